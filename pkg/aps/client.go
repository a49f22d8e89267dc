package aps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// client issues authorized JSON requests against the provider base URL.
type client struct {
	base   string
	http   *http.Client
	creds  *Credentials
	logger *slog.Logger
}

func newClient(cfg *Config, httpClient *http.Client, creds *Credentials, logger *slog.Logger) *client {
	return &client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   httpClient,
		creds:  creds,
		logger: logger,
	}
}

// call sends an authorized request and returns the status code and body.
// A 401 response invalidates the cached token and the request is retried once.
func (c *client) call(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
	}

	token, err := c.creds.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	status, data, err := c.send(ctx, method, path, payload, token)
	if err != nil || status != http.StatusUnauthorized {
		return status, data, err
	}

	c.logger.Warn("request unauthorized, refreshing token", "method", method, "path", path)

	cred, err := c.creds.Refresh(ctx)
	if err != nil {
		return 0, nil, err
	}

	return c.send(ctx, method, path, payload, cred.AccessToken)
}

func (c *client) send(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s %s: %v", ErrTransport, method, path, err)
	}

	return resp.StatusCode, data, nil
}

// put streams length bytes from r to a pre-signed URL without authorization.
func (c *client) put(ctx context.Context, url string, r io.Reader, length int64) (int, error) {
	if length == 0 {
		r = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, r)
	if err != nil {
		return 0, err
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func decode(method, path string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrTransport, method, path, err)
	}
	return nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}
