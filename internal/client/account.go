package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	// refreshLead is how long before expiry the access token is renewed.
	refreshLead = 60 * time.Second
	// minRefreshDelay applies to live tokens already inside the refresh
	// window.
	minRefreshDelay = time.Second
)

type RegisterRequest struct {
	Title           string `json:"title"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

type CreateAccountRequest struct {
	Title           string `json:"title"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	IsActive        *bool  `json:"isActive,omitempty"`
}

// UpdateAccountRequest leaves empty fields unchanged.
type UpdateAccountRequest struct {
	Title           string `json:"title,omitempty"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
	Role            string `json:"role,omitempty"`
}

type message struct {
	Message string `json:"message"`
}

// inflight is a refresh shared by every caller that asks while it runs.
type inflight struct {
	done chan struct{}
	acc  *Account
	err  error
}

// AccountService talks to the account endpoints and keeps the session and
// its refresh timer up to date.
type AccountService struct {
	api     *api
	session *Session
	clock   clock.Clock
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	timer      *clock.Timer
	refreshing *inflight
	// epoch changes on every logout. Responses that started in an older
	// epoch are discarded.
	epoch uint64
	// timerGen identifies the armed timer so that a stopped or replaced one
	// cannot fire a refresh.
	timerGen uint64

	revokes sync.WaitGroup
}

func newAccountService(session *Session, clk clock.Clock, timeout time.Duration, logger *zap.Logger) *AccountService {
	return &AccountService{session: session, clock: clk, timeout: timeout, logger: logger}
}

func (s *AccountService) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Account, error) {
	epoch := s.currentEpoch()
	var acc Account
	in := map[string]string{"email": email, "password": password}
	if err := s.api.do(ctx, http.MethodPost, "accounts/authenticate", nil, in, &acc); err != nil {
		return nil, err
	}
	if !s.apply(epoch, LoggedIn, &acc) {
		return nil, ErrNotLoggedIn
	}
	s.logger.Info("logged in", zap.Uint("accountID", acc.ID))
	return &acc, nil
}

// RefreshToken exchanges the refresh cookie for a new access token.
// Concurrent calls share a single request.
func (s *AccountService) RefreshToken(ctx context.Context) (*Account, error) {
	s.mu.Lock()
	if f := s.refreshing; f != nil {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.acc, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &inflight{done: make(chan struct{})}
	s.refreshing = f
	epoch := s.epoch
	s.mu.Unlock()

	f.acc, f.err = s.refresh(ctx, epoch)

	s.mu.Lock()
	s.refreshing = nil
	s.mu.Unlock()
	close(f.done)
	return f.acc, f.err
}

func (s *AccountService) refresh(ctx context.Context, epoch uint64) (*Account, error) {
	var acc Account
	if err := s.api.do(ctx, http.MethodPost, "accounts/refresh-token", nil, nil, &acc); err != nil {
		return nil, err
	}
	kind := Refreshed
	if !s.session.LoggedIn() {
		kind = LoggedIn
	}
	if !s.apply(epoch, kind, &acc) {
		s.logger.Debug("session ended while refreshing, dropping new token")
		return nil, ErrNotLoggedIn
	}
	return &acc, nil
}

// apply stores acc as the session and rearms the refresh timer, unless a
// logout happened since epoch was read.
func (s *AccountService) apply(epoch uint64, kind EventKind, acc *Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.session.set(kind, acc)
	s.scheduleLocked(acc.JwtToken)
	return true
}

// scheduleLocked arms the refresh timer one minute before the token
// expires, replacing any earlier timer. An expired token is refreshed at
// once. s.mu must be held.
func (s *AccountService) scheduleLocked(token string) {
	s.stopTimerLocked()

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		s.logger.Warn("cannot read access token expiry, refresh timer not started", zap.Error(err))
		return
	}

	left := claims.ExpiresAt.Sub(s.clock.Now())
	var wait time.Duration
	switch {
	case left <= 0:
	case left-refreshLead < minRefreshDelay:
		wait = minRefreshDelay
	default:
		wait = left - refreshLead
	}

	gen := s.timerGen
	s.timer = s.clock.AfterFunc(wait, func() { s.onTimer(gen) })
}

func (s *AccountService) onTimer(gen uint64) {
	s.mu.Lock()
	stale := gen != s.timerGen
	s.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RefreshToken(ctx); err != nil {
		s.logger.Warn("scheduled token refresh failed", zap.Error(err))
	}
}

func (s *AccountService) stopTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// endSession cancels the timer and invalidates refreshes in flight.
func (s *AccountService) endSession() {
	s.mu.Lock()
	s.epoch++
	s.stopTimerLocked()
	s.mu.Unlock()
	s.session.clear()
}

// Logout ends the session locally and revokes the refresh token in the
// background. Revoke failures are only logged.
func (s *AccountService) Logout() {
	token := s.session.Token()
	s.endSession()
	if token == "" {
		return
	}

	s.revokes.Add(1)
	go func() {
		defer s.revokes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		req, err := s.api.newRequest(ctx, http.MethodPost, "accounts/revoke-token", nil, nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			err = s.api.send(req, nil)
		}
		if err != nil {
			s.logger.Warn("failed to revoke refresh token", zap.Error(err))
		}
	}()
}

// ForceLogout drops the session without contacting the server.
func (s *AccountService) ForceLogout() {
	s.endSession()
}

// Restore tries to resume a session from the refresh cookie.
func (s *AccountService) Restore(ctx context.Context) bool {
	if _, err := s.RefreshToken(ctx); err != nil {
		s.logger.Debug("no session to restore", zap.Error(err))
		return false
	}
	return true
}

// Wait blocks until background revokes have finished.
func (s *AccountService) Wait() {
	s.revokes.Wait()
}

func (s *AccountService) Register(ctx context.Context, in RegisterRequest) (string, error) {
	var out message
	err := s.api.do(ctx, http.MethodPost, "accounts/register", nil, in, &out)
	return out.Message, err
}

func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	return s.api.do(ctx, http.MethodPost, "accounts/verify-email", nil, map[string]string{"token": token}, nil)
}

func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	return s.api.do(ctx, http.MethodPost, "accounts/forgot-password", nil, map[string]string{"email": email}, nil)
}

func (s *AccountService) ValidateResetToken(ctx context.Context, token string) error {
	return s.api.do(ctx, http.MethodPost, "accounts/validate-reset-token", nil, map[string]string{"token": token}, nil)
}

func (s *AccountService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	in := map[string]string{"token": token, "password": password, "confirmPassword": confirm}
	return s.api.do(ctx, http.MethodPost, "accounts/reset-password", nil, in, nil)
}

func (s *AccountService) GetAll(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := s.api.do(ctx, http.MethodGet, "accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uint) (*Account, error) {
	var out Account
	if err := s.api.do(ctx, http.MethodGet, fmt.Sprintf("accounts/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AccountService) Create(ctx context.Context, in CreateAccountRequest) (*Account, error) {
	var out Account
	if err := s.api.do(ctx, http.MethodPost, "accounts", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes an account. Updating the logged-in account refreshes the
// session copy.
func (s *AccountService) Update(ctx context.Context, id uint, in UpdateAccountRequest) (*Account, error) {
	var out Account
	if err := s.api.do(ctx, http.MethodPut, fmt.Sprintf("accounts/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	s.session.merge(&out)
	return &out, nil
}

func (s *AccountService) UpdateStatus(ctx context.Context, id uint, active bool) (*Account, error) {
	var out Account
	in := map[string]bool{"isActive": active}
	if err := s.api.do(ctx, http.MethodPut, fmt.Sprintf("accounts/%d/status", id), nil, in, &out); err != nil {
		return nil, err
	}
	s.session.merge(&out)
	return &out, nil
}

// Delete removes an account and logs out when it was the current one.
func (s *AccountService) Delete(ctx context.Context, id uint) error {
	if err := s.api.do(ctx, http.MethodDelete, fmt.Sprintf("accounts/%d", id), nil, nil, nil); err != nil {
		return err
	}
	if cur := s.session.Current(); cur != nil && cur.ID == id {
		s.Logout()
	}
	return nil
}
