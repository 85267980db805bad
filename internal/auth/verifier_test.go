package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/ChiFungHillmanChan/Nutritrack-sub000/internal/errors"
)

func TestVerify_ValidToken(t *testing.T) {
	var gotAuth, gotAPIKey string
	identityService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q, want /auth/v1/user", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-123","email":"user@example.com"}`))
	}))
	defer identityService.Close()

	verifier := NewVerifier(identityService.URL, "anon-key")
	identity, err := verifier.Verify(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if identity.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "user-123")
	}
	if identity.Email != "user@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
	if gotAuth != "Bearer valid-token" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("apikey header = %q", gotAPIKey)
	}
}

func TestVerify_RejectedToken(t *testing.T) {
	identityService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer identityService.Close()

	verifier := NewVerifier(identityService.URL, "anon-key")
	_, err := verifier.Verify(context.Background(), "expired-token")
	assertUnauthorized(t, err)
}

func TestVerify_IdentityServiceDown(t *testing.T) {
	identityService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	identityService.Close() // connection refused from here on

	verifier := NewVerifier(identityService.URL, "anon-key")
	_, err := verifier.Verify(context.Background(), "any-token")
	assertUnauthorized(t, err)
}

func TestVerify_UnusableBaseURL(t *testing.T) {
	verifier := NewVerifier("://not-a-url", "anon-key")
	_, err := verifier.Verify(context.Background(), "any-token")
	assertUnauthorized(t, err)
}

func TestVerify_MalformedIdentityResponse(t *testing.T) {
	identityService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer identityService.Close()

	verifier := NewVerifier(identityService.URL, "anon-key")
	_, err := verifier.Verify(context.Background(), "any-token")
	assertUnauthorized(t, err)
}

func TestVerify_EmptyTokenSkipsNetworkCall(t *testing.T) {
	called := false
	identityService := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer identityService.Close()

	verifier := NewVerifier(identityService.URL, "anon-key")
	_, err := verifier.Verify(context.Background(), "")
	assertUnauthorized(t, err)
	if called {
		t.Error("empty token must not reach the identity service")
	}
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypePermission {
		t.Errorf("expected unauthenticated error, got %v", err)
	}
}
