// Package auth resolves bearer tokens against the identity service the
// mobile app authenticates with. The gateway never mints tokens; it only
// validates them with the public anon key.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/domain"
	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
	"github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/logger"
)

// Verifier validates bearer tokens against the identity service.
type Verifier struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewVerifier creates a verifier for the identity service at baseURL.
func NewVerifier(baseURL, anonKey string) *Verifier {
	return &Verifier{
		baseURL: baseURL,
		anonKey: anonKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// userResponse is the identity service's user payload. Only the fields
// the gateway needs are decoded.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves token to an Identity. Every verification failure,
// including an identity service outage, collapses into the same
// unauthenticated error; the client's recovery is identical in all cases
// (obtain a fresh token and retry).
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		logger.Error("failed to build verification request", "error", err)
		return nil, apperrors.ErrUnauthorized
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		logger.Error("identity service unreachable", "error", err)
		return nil, apperrors.ErrUnauthorized
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrUnauthorized
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		logger.Error("failed to decode identity response", "error", err)
		return nil, apperrors.ErrUnauthorized
	}
	if user.ID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	return &domain.Identity{UserID: user.ID, Email: user.Email}, nil
}
