// Package supabase implements the AuthProvider port against the Supabase
// GoTrue REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/automatrixhq/automatrix/internal/domain/model"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuthProvider = (*AuthClient)(nil)

// ErrExchangeRejected is returned when the auth service refuses the code.
var ErrExchangeRejected = errors.New("authorization code rejected")

// AuthClient exchanges PKCE authorization codes for sessions.
type AuthClient struct {
	http    *http.Client
	baseURL string
	anonKey string
	now     func() time.Time
}

// NewAuthClient creates an AuthClient for the project at baseURL.
func NewAuthClient(baseURL, anonKey string, timeout time.Duration) *AuthClient {
	return &AuthClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		now:     time.Now,
	}
}

// ExchangeCode trades the code and its verifier for a session.
func (c *AuthClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (model.Session, error) {
	if c.baseURL == "" || c.anonKey == "" {
		return model.Session{}, fmt.Errorf("auth service: %w", driven.ErrNotConfigured)
	}
	if code == "" {
		return model.Session{}, fmt.Errorf("%w: empty code", ErrExchangeRejected)
	}

	body, err := json.Marshal(map[string]string{"auth_code": code, "code_verifier": codeVerifier})
	if err != nil {
		return model.Session{}, fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=pkce", bytes.NewReader(body))
	if err != nil {
		return model.Session{}, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Session{}, fmt.Errorf("calling auth service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return model.Session{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return model.Session{}, fmt.Errorf("%w: %s", ErrExchangeRejected, errorMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Session{}, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	return c.parseSession(data)
}

func (c *AuthClient) parseSession(data []byte) (model.Session, error) {
	if !gjson.ValidBytes(data) {
		return model.Session{}, errors.New("auth service returned invalid JSON")
	}
	res := gjson.ParseBytes(data)

	s := model.Session{
		AccessToken:  res.Get("access_token").String(),
		RefreshToken: res.Get("refresh_token").String(),
		Identity: model.Identity{
			UserID: res.Get("user.id").String(),
			Email:  res.Get("user.email").String(),
		},
		FullName: firstNonEmpty(
			res.Get("user.user_metadata.full_name").String(),
			res.Get("user.user_metadata.name").String(),
		),
	}
	if s.AccessToken == "" || s.Identity.UserID == "" {
		return model.Session{}, errors.New("auth service response missing token or user")
	}

	switch {
	case res.Get("expires_at").Int() > 0:
		s.ExpiresAt = time.Unix(res.Get("expires_at").Int(), 0).UTC()
	case res.Get("expires_in").Int() > 0:
		s.ExpiresAt = c.now().Add(time.Duration(res.Get("expires_in").Int()) * time.Second).UTC()
	}
	return s, nil
}

func errorMessage(data []byte) string {
	res := gjson.ParseBytes(data)
	for _, key := range []string{"error_description", "msg", "message", "error"} {
		if v := res.Get(key).String(); v != "" {
			return v
		}
	}
	return "no detail"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
