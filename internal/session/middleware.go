package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plmware/forecast-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger,
		now:    time.Now,
	}
}

// Authenticate requires a live bearer token and stores the decoded user
// on the request context. Tokens that fail to decode are rejected the
// same way expired ones are.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]
		claims, err := Decode(token)
		if err != nil || !claims.ExpiresAt().After(m.now()) {
			m.logger.Warn("session token rejected",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+ErrExpiredToken.Error(), http.StatusUnauthorized)
			return
		}

		// The user id keys per-user caches downstream, so a token whose
		// id does not parse must not fall through to the zero UUID.
		uid, err := uuid.Parse(claims.UserID)
		if err != nil {
			m.logger.Warn("session token carries a malformed user id",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		userCtx := &UserContext{
			UserID:      uid,
			DisplayName: claims.Name,
			Role:        claims.Role,
			Token:       token,
		}

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware ensures the user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
