// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

// TokenRequest carries the identity claim established by the external
// identity provider.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}
