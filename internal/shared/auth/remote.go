package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteVerifier asks the managed auth provider who owns a token
// (GET {baseURL}/user with the token as bearer credentials).
type RemoteVerifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// NewRemoteVerifier builds a verifier against the provider's auth API.
func NewRemoteVerifier(baseURL, apiKey string, httpClient *http.Client) (*RemoteVerifier, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("auth url not configured")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteVerifier{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		timeout:    defaultRemoteTimeout,
	}, nil
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verify resolves the token through the provider.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/user", nil)
	if err != nil {
		return Identity{}, err
	}
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("auth provider request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidToken
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("auth provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Identity{}, fmt.Errorf("auth provider response parse: %w", err)
	}
	if user.ID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

var _ Verifier = (*RemoteVerifier)(nil)
