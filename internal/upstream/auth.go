package upstream

import (
	"context"
)

// loginResponse is the backend's token envelope
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. Credential checking is
// entirely the backend's business; this call just relays the result.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var resp loginResponse
	if err := c.post(ctx, "/api/auth/login", body, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}
