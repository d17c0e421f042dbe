// Package client is the Go client for the rhythmrisk document service. It
// implements upload.Transport, so an upload.Orchestrator can drive uploads and
// status polling through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/rhythmrisk/pkg/session"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8000".
	BaseURL string
	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
	// Session stores the bearer token. Defaults to a MemoryStore.
	Session session.Store
	// OnUnauthorized runs after a 401 has cleared the session.
	OnUnauthorized func()
	Logger         *slog.Logger
}

// Client calls the document service on behalf of the session in its Store.
type Client struct {
	base           *url.URL
	http           *http.Client
	session        session.Store
	onUnauthorized func()
	logger         *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", cfg.BaseURL)
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Session == nil {
		cfg.Session = session.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		base:           base,
		http:           cfg.HTTPClient,
		session:        cfg.Session,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger.With("system", "client"),
	}, nil
}

// Session returns the client's session store.
func (c *Client) Session() session.Store {
	return c.session
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool
}

// send issues r and returns the response for any 2xx status. Non-2xx
// responses are closed and converted to errors; a 401 on an authenticated
// request clears the session.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	u := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	if !r.public {
		st, err := c.session.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return nil, ErrNotAuthenticated
			}
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+st.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := decodeError(resp)

	if resp.StatusCode == http.StatusUnauthorized && !r.public {
		c.expire()
		return nil, unauthorized(apiErr)
	}

	c.logger.Debug("request rejected", "method", r.method, "path", r.path, "status", resp.StatusCode, "detail", apiErr.Message)
	return nil, apiErr
}

func (c *Client) expire() {
	c.logger.Warn("session rejected by service, clearing")
	if err := c.session.Clear(); err != nil {
		c.logger.Error("clear session failed", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}
