package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:4000.
	BaseURL string
	Timeout time.Duration
	// MaxRetries of zero uses DefaultMaxRetries; a negative value disables retries.
	MaxRetries   int
	RetryBackoff time.Duration
	// Transport is the underlying round tripper, http.DefaultTransport if nil.
	Transport http.RoundTripper
	Clock     clock.Clock
	Logger    *zap.Logger
}

// Client bundles the session with typed clients for every resource.
type Client struct {
	Session     *Session
	Accounts    *AccountService
	Departments *Departments
	Employees   *Employees
	Requests    *Requests
	Workflows   *Workflows
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	retries := uint64(DefaultMaxRetries)
	switch {
	case cfg.MaxRetries < 0:
		retries = 0
	case cfg.MaxRetries > 0:
		retries = uint64(cfg.MaxRetries)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	session := NewSession()
	accounts := newAccountService(session, cfg.Clock, cfg.Timeout, cfg.Logger)
	httpClient := &http.Client{
		Jar:     jar,
		Timeout: cfg.Timeout,
		Transport: NewTransport(cfg.Transport, session, accounts, TransportOptions{
			BaseURL:      base,
			MaxRetries:   retries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       cfg.Logger,
		}),
	}
	a := &api{baseURL: base, http: httpClient}
	accounts.api = a

	return &Client{
		Session:     session,
		Accounts:    accounts,
		Departments: &Departments{api: a},
		Employees:   &Employees{api: a},
		Requests:    &Requests{api: a},
		Workflows:   &Workflows{api: a},
	}, nil
}

type api struct {
	baseURL *url.URL
	http    *http.Client
}

func (a *api) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := a.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (a *api) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	_, err := a.call(ctx, method, path, query, in, out)
	return err
}

// call is do that also reports the response status.
func (a *api) call(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	req, err := a.newRequest(ctx, method, path, query, in)
	if err != nil {
		return 0, err
	}
	return a.sendStatus(req, out)
}

func (a *api) send(req *http.Request, out any) error {
	_, err := a.sendStatus(req, out)
	return err
}

func (a *api) sendStatus(req *http.Request, out any) (int, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			return 0, ue.Err
		}
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg message
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return resp.StatusCode, apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, nil
}
