// Package auth manages the OAuth2 token lifecycle for match sessions.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/brunovale/go-spotify-match/internal/errs"
	"github.com/brunovale/go-spotify-match/internal/session"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"
	requestTimeout  = 20 * time.Second

	// refreshMargin is how close to expiry a token may get before it is
	// refreshed proactively.
	refreshMargin = 5 * time.Minute
)

// CredentialStore is the slice of the session store the manager reads and
// mutates. Mutations caused by expiry go through the manager only.
type CredentialStore interface {
	Credential(sessionID string, slot session.Slot) (*oauth2.Token, bool)
	SetCredential(sessionID string, slot session.Slot, token *oauth2.Token)
	ClearSlot(sessionID string, slot session.Slot)
}

// Manager ensures a slot holds a valid access token, refreshing proactively.
type Manager struct {
	store        CredentialStore
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	logger       *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenURL overrides the provider token endpoint. Used in tests.
func WithTokenURL(u string) Option {
	return func(m *Manager) { m.tokenURL = u }
}

// WithHTTPClient overrides the HTTP client used for refresh calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithLogger sets the manager's logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a token lifecycle manager backed by the given store.
func NewManager(store CredentialStore, clientID, clientSecret string, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: requestTimeout},
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// tokenResponse is the provider's token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// tokenError is the provider's OAuth error body.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// EnsureValidToken returns a valid access token for the slot.
//
// A stored token expiring more than refreshMargin in the future is returned
// as-is, without a network call. Otherwise the refresh token is exchanged at
// the provider's token endpoint. An invalid or missing refresh token purges
// the slot and returns errs.ErrAuthRequired; transient refresh failures
// return errs.ErrTokenRefreshFailed and keep the credential for retry.
func (m *Manager) EnsureValidToken(ctx context.Context, sessionID string, slot session.Slot) (string, error) {
	tok, ok := m.store.Credential(sessionID, slot)
	if ok && tok.AccessToken != "" && time.Until(tok.Expiry) > refreshMargin {
		return tok.AccessToken, nil
	}

	if !ok || tok.RefreshToken == "" {
		m.logger.Warn("no refresh token available, re-login required", "slot", slot)
		m.store.ClearSlot(sessionID, slot)
		return "", errs.ErrAuthRequired
	}

	m.logger.Debug("access token expired or nearing expiry, refreshing", "slot", slot)

	refreshed, err := m.refresh(ctx, tok.RefreshToken)
	if err != nil {
		if isInvalidGrant(err) {
			m.logger.Warn("refresh token rejected, purging slot", "slot", slot)
			m.store.ClearSlot(sessionID, slot)
			return "", errs.ErrAuthRequired
		}
		return "", fmt.Errorf("%w: %s", errs.ErrTokenRefreshFailed, err)
	}

	tok.AccessToken = refreshed.AccessToken
	tok.Expiry = time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	// Providers may rotate the refresh token or keep the same one. Never
	// discard a still-valid refresh token because none was returned.
	if refreshed.RefreshToken != "" {
		tok.RefreshToken = refreshed.RefreshToken
	}
	m.store.SetCredential(sessionID, slot, tok)

	m.logger.Debug("access token refreshed", "slot", slot, "expires_in", refreshed.ExpiresIn)
	return tok.AccessToken, nil
}

// invalidGrantError marks refresh failures that require a fresh login.
type invalidGrantError struct {
	reason string
}

func (e *invalidGrantError) Error() string {
	return "invalid grant: " + e.reason
}

func isInvalidGrant(err error) bool {
	var ig *invalidGrantError
	return errors.As(err, &ig)
}

// refresh exchanges the refresh token using the client-credentials Basic
// auth scheme on the provider token endpoint.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing refresh request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("decoding token response: %w", err)
		}
		if tr.AccessToken == "" {
			return nil, fmt.Errorf("token response missing access token")
		}
		return &tr, nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &invalidGrantError{reason: "unauthorized"}

	case resp.StatusCode == http.StatusBadRequest:
		var te tokenError
		if err := json.NewDecoder(resp.Body).Decode(&te); err == nil && te.Error == "invalid_grant" {
			return nil, &invalidGrantError{reason: te.ErrorDescription}
		}
		return nil, fmt.Errorf("token endpoint rejected request: %s", te.Error)

	default:
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}
}
