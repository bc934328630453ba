package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifierRoundTrip(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", "authenticated")
	require.NoError(t, err)

	token, err := v.Sign("user-1", time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)
}

func TestJWTVerifierRejects(t *testing.T) {
	v, err := NewJWTVerifier("test-secret", "")
	require.NoError(t, err)

	other, err := NewJWTVerifier("other-secret", "")
	require.NoError(t, err)
	foreign, err := other.Sign("user-1", time.Hour)
	require.NoError(t, err)

	expired, err := v.Sign("user-1", -time.Minute)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired":       expired,
		"missing exp":   noExp,
		"wrong alg":     wrongAlg,
		"empty subject": mustSign(t, "test-secret", ""),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestJWTVerifierAudience(t *testing.T) {
	signer, err := NewJWTVerifier("test-secret", "other")
	require.NoError(t, err)
	token, err := signer.Sign("user-1", time.Hour)
	require.NoError(t, err)

	v, err := NewJWTVerifier("test-secret", "authenticated")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("  ", "")
	assert.Error(t, err)
}

func TestRemoteVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-42","email":"a@example.com"}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v, err := NewRemoteVerifier(srv.URL+"/", "anon-key", srv.Client())
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.ID)
	assert.Equal(t, "a@example.com", id.Email)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func mustSign(t *testing.T, secret, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
