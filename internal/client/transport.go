package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Refresher renews the access token and ends the session when it cannot.
type Refresher interface {
	RefreshToken(ctx context.Context) (*Account, error)
	ForceLogout()
}

type TransportOptions struct {
	// BaseURL limits bearer injection to requests under the API.
	BaseURL *url.URL
	// MaxRetries is the number of extra attempts for idempotent requests.
	MaxRetries uint64
	// RetryBackoff is the first retry delay, doubled on every attempt.
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

func (o TransportOptions) withDefaults() TransportOptions {
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 200 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// DefaultMaxRetries is the retry budget used by New.
const DefaultMaxRetries = 2

var authEndpoints = []string{
	"/accounts/authenticate",
	"/accounts/refresh-token",
	"/accounts/revoke-token",
}

func isAuthEndpoint(u *url.URL) bool {
	for _, suffix := range authEndpoints {
		if strings.HasSuffix(u.Path, suffix) {
			return true
		}
	}
	return false
}

// NewTransport chains, outermost first, error handling, retries and bearer
// token injection on top of base.
func NewTransport(base http.RoundTripper, session *Session, refresher Refresher, opts TransportOptions) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	opts = opts.withDefaults()

	var rt http.RoundTripper = &jwtTransport{next: base, baseURL: opts.BaseURL, session: session}
	rt = &retryTransport{next: rt, maxRetries: opts.MaxRetries, backoff: opts.RetryBackoff, logger: opts.Logger}
	return &errorTransport{next: rt, session: session, refresher: refresher, logger: opts.Logger}
}

/** JWT */

type jwtTransport struct {
	next    http.RoundTripper
	baseURL *url.URL
	session *Session
}

// underAPI reports whether u has the base scheme and host and a path at or
// below the base path. A nil base matches everything.
func underAPI(base, u *url.URL) bool {
	if base == nil {
		return true
	}
	if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
		return false
	}
	root := strings.TrimSuffix(base.Path, "/")
	return root == "" || u.Path == root || strings.HasPrefix(u.Path, root+"/")
}

func (t *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.session.Token()
	if token == "" || !underAPI(t.baseURL, req.URL) {
		return t.next.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(out)
}

/** RETRY */

type retryTransport struct {
	next       http.RoundTripper
	maxRetries uint64
	backoff    time.Duration
	logger     *zap.Logger
}

var errRetryableStatus = errors.New("retryable status")

func retryable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
	default:
		return false
	}
	if isAuthEndpoint(req.URL) {
		return false
	}
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.maxRetries == 0 || !retryable(req) {
		return t.next.RoundTrip(req)
	}

	var (
		resp    *http.Response
		attempt uint64
	)
	backoff := retry.WithMaxRetries(t.maxRetries, retry.NewExponential(t.backoff))
	err := retry.Do(req.Context(), backoff, func(ctx context.Context) error {
		attempt++
		try, err := rewind(req)
		if err != nil {
			return err
		}
		r, err := t.next.RoundTrip(try)
		last := attempt > t.maxRetries
		switch {
		case err != nil:
			if last || ctx.Err() != nil {
				return err
			}
			t.logger.Debug("retrying request", zap.String("url", req.URL.String()), zap.Uint64("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		case retryableStatus(r.StatusCode) && !last:
			drain(r)
			t.logger.Debug("retrying request", zap.String("url", req.URL.String()), zap.Uint64("attempt", attempt), zap.Int("status", r.StatusCode))
			return retry.RetryableError(errRetryableStatus)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// rewind returns a copy of req with a fresh body.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.Body = body
	return out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

/** ERRORS */

type errorTransport struct {
	next      http.RoundTripper
	session   *Session
	refresher Refresher
	logger    *zap.Logger
}

func (t *errorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if !t.session.LoggedIn() {
			return resp, nil
		}
		if isAuthEndpoint(req.URL) {
			t.logger.Info("authentication endpoint rejected the session, logging out", zap.String("path", req.URL.Path))
			t.refresher.ForceLogout()
			return resp, nil
		}
		drain(resp)
		return t.refreshAndReplay(req)
	case http.StatusForbidden:
		drain(resp)
		return nil, ErrForbidden
	}
	return resp, nil
}

func (t *errorTransport) refreshAndReplay(req *http.Request) (*http.Response, error) {
	if _, err := t.refresher.RefreshToken(req.Context()); err != nil {
		t.logger.Info("token refresh failed, logging out", zap.Error(err))
		t.refresher.ForceLogout()
		return nil, ErrSessionExpired
	}

	replay, err := rewind(req)
	if err != nil {
		return nil, err
	}
	replay = replay.Clone(req.Context())
	replay.Header.Del("Authorization")

	resp, err := t.next.RoundTrip(replay)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		drain(resp)
		t.refresher.ForceLogout()
		return nil, ErrSessionExpired
	case http.StatusForbidden:
		drain(resp)
		return nil, ErrForbidden
	}
	return resp, nil
}
