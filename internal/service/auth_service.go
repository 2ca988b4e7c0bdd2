package service

import (
	"context"
	"fmt"
	"time"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/session"
	"go.uber.org/zap"
)

// AuthGateway performs the credential exchange with the backend
type AuthGateway interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthService relays logins to the backend and decodes the returned
// token into the user it identifies.
type AuthService struct {
	gateway AuthGateway
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(gateway AuthGateway, logger *zap.Logger) *AuthService {
	return &AuthService{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// Login exchanges credentials for a token. The token's claims are
// decoded locally so the client gets the user identity in the same
// round trip; a token that cannot be decoded is treated as a failure.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	token, err := s.gateway.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	claims, err := session.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("backend returned an unreadable token: %w", err)
	}
	if !claims.ExpiresAt().After(s.now()) {
		return nil, session.ErrExpiredToken
	}

	s.logger.Info("User logged in",
		zap.String("user_id", claims.UserID),
		zap.String("role", string(claims.Role)),
	)

	return &domain.LoginResponse{
		Token: token,
		User: domain.UserDTO{
			ID:   claims.UserID,
			Name: claims.Name,
			Role: claims.Role,
		},
	}, nil
}
