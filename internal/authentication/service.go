package authentication

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrInvalidCredentials = apperror.BadRequest("Email or password is incorrect")
	ErrAccountDeactivated = apperror.BadRequest("Your account has been deactivated. Please contact an administrator.")
	ErrTokenRequired      = apperror.BadRequest("Token is required")
	ErrUnauthorized       = apperror.Unauthorized("Unauthorized")
)

// Session is what a successful authenticate or refresh hands back.
type Session struct {
	Account        *account.Account
	JwtToken       string
	RefreshToken   string
	RefreshExpires time.Time
}

type AuthenticationService interface {
	Authenticate(ctx context.Context, email, password, ip string) (*Session, error)
	Refresh(ctx context.Context, token, ip string) (*Session, error)
	Revoke(ctx context.Context, token, ip string) error
	// OwnsToken reports whether token was ever issued to accountID.
	OwnsToken(ctx context.Context, accountID uint, token string) (bool, error)
}

type authenticationService struct {
	accounts        account.AccountService
	tokenRepo       RefreshTokenRepository
	logger          *zap.Logger
	secret          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

func NewAuthenticationService(
	accounts account.AccountService,
	tokenRepo RefreshTokenRepository,
	logger *zap.Logger,
	secret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthenticationService {
	return &authenticationService{
		accounts:        accounts,
		tokenRepo:       tokenRepo,
		logger:          logger,
		secret:          secret,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (a *authenticationService) Authenticate(ctx context.Context, email, password, ip string) (*Session, error) {
	acc, err := a.accounts.ReadAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !acc.CanLogIn() {
		a.logger.Info("login attempt on deactivated account", zap.Uint("id", acc.ID))
		return nil, ErrAccountDeactivated
	}
	if !acc.IsVerified() || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	raw, refresh, err := a.newRefreshToken(ip)
	if err != nil {
		return nil, err
	}
	refresh.AccountID = acc.ID
	if err := a.tokenRepo.Create(ctx, refresh); err != nil {
		a.logger.Error("failed to store refresh token", zap.Uint("id", acc.ID), zap.Error(err))
		return nil, err
	}

	return a.session(acc, raw, refresh)
}

func (a *authenticationService) Refresh(ctx context.Context, token, ip string) (*Session, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	oldHash := account.HashToken(token)
	current, err := a.tokenRepo.ReadByHash(ctx, oldHash)
	if err != nil {
		return nil, err
	}
	if !current.IsActive(a.now()) {
		a.logger.Warn("inactive refresh token presented",
			zap.Uint("tokenID", current.ID),
			zap.Bool("revoked", current.Revoked != nil),
			zap.String("ip", ip),
		)
		return nil, ErrTokenInactive
	}

	acc, err := a.accounts.ReadAccountByID(ctx, current.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if !acc.CanLogIn() {
		return nil, ErrUnauthorized
	}

	raw, next, err := a.newRefreshToken(ip)
	if err != nil {
		return nil, err
	}
	if err := a.tokenRepo.Rotate(ctx, oldHash, next, ip, a.now()); err != nil {
		return nil, err
	}

	return a.session(acc, raw, next)
}

func (a *authenticationService) Revoke(ctx context.Context, token, ip string) error {
	if token == "" {
		return ErrTokenRequired
	}
	if err := a.tokenRepo.Revoke(ctx, account.HashToken(token), ip, a.now()); err != nil {
		return err
	}
	return nil
}

func (a *authenticationService) OwnsToken(ctx context.Context, accountID uint, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return a.tokenRepo.HasToken(ctx, accountID, account.HashToken(token))
}

func (a *authenticationService) newRefreshToken(ip string) (string, *RefreshToken, error) {
	raw, err := account.RandomToken()
	if err != nil {
		return "", nil, apperror.Internal("Could not generate refresh token", err)
	}
	return raw, &RefreshToken{
		TokenHash:   account.HashToken(raw),
		Expires:     a.now().Add(a.refreshTokenTTL),
		CreatedByIP: ip,
	}, nil
}

func (a *authenticationService) session(acc *account.Account, raw string, refresh *RefreshToken) (*Session, error) {
	jwtToken, err := IssueAccessToken(acc.ID, acc.Role, a.secret, a.accessTokenTTL)
	if err != nil {
		return nil, apperror.Internal("Could not sign access token", err)
	}
	return &Session{
		Account:        acc,
		JwtToken:       jwtToken,
		RefreshToken:   raw,
		RefreshExpires: refresh.Expires,
	}, nil
}
