package aps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	// TokenPath is the client-credentials token endpoint.
	TokenPath = "/authentication/v2/token"
	// ExpiryMargin is subtracted from the provider lifetime so a returned
	// token stays valid for at least this long. Lifetimes shorter than twice
	// the margin give up half their length instead.
	ExpiryMargin = 60 * time.Second
	// DefaultTokenLifetime applies when the provider omits expires_in.
	DefaultTokenLifetime = 3600 * time.Second
)

// Credential is a bearer token and the instant it stops being served from cache.
type Credential struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiresIn returns the whole seconds remaining before the credential expires.
func (c Credential) ExpiresIn(now time.Time) int64 {
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Credentials obtains and caches a client-credentials bearer token.
// Concurrent refreshes are collapsed into a single exchange.
type Credentials struct {
	config *clientcredentials.Config
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Credential
	flight  singleflight.Group
}

// NewCredentials creates a credential store for cfg using client for token exchanges.
func NewCredentials(cfg *Config, client *http.Client, logger *slog.Logger) *Credentials {
	return &Credentials{
		config: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     strings.TrimRight(cfg.BaseURL, "/") + TokenPath,
			Scopes:       strings.Fields(cfg.Scope),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a cached access token or exchanges for a new one.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	cred, err := c.Get(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Get returns the cached credential when it has not passed its expiry,
// otherwise it performs a token exchange.
func (c *Credentials) Get(ctx context.Context) (Credential, error) {
	if cur, ok := c.cached(); ok {
		return cur, nil
	}
	return c.exchange(ctx)
}

func (c *Credentials) cached() (Credential, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil || !c.now().Before(c.current.ExpiresAt) {
		return Credential{}, false
	}
	return *c.current, true
}

// Refresh discards the cached credential and exchanges for a new one.
func (c *Credentials) Refresh(ctx context.Context) (Credential, error) {
	c.Invalidate()
	return c.exchange(ctx)
}

// Invalidate drops the cached credential.
func (c *Credentials) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func (c *Credentials) exchange(ctx context.Context) (Credential, error) {
	v, err, _ := c.flight.Do("token", func() (any, error) {
		if cur, ok := c.cached(); ok {
			return cur, nil
		}

		ctx := context.WithValue(ctx, oauth2.HTTPClient, c.client)

		tok, err := c.config.Token(ctx)
		if err != nil {
			return nil, mapTokenError(err)
		}

		now := c.now()
		expiry := tok.Expiry
		if expiry.IsZero() {
			expiry = now.Add(DefaultTokenLifetime)
		}

		cred := &Credential{
			AccessToken: tok.AccessToken,
			TokenType:   tok.TokenType,
			ExpiresAt:   expiry.Add(-margin(expiry.Sub(now))),
		}

		c.mu.Lock()
		c.current = cred
		c.mu.Unlock()

		c.logger.Debug("token acquired", "expires_at", cred.ExpiresAt)
		return *cred, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

func margin(lifetime time.Duration) time.Duration {
	if lifetime <= 0 {
		return 0
	}
	return min(ExpiryMargin, lifetime/2)
}

func mapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch re.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: status %d", ErrAuth, re.Response.StatusCode)
		}
		return fmt.Errorf("%w: token exchange: status %d", ErrTransport, re.Response.StatusCode)
	}
	return fmt.Errorf("%w: token exchange: %v", ErrTransport, err)
}
