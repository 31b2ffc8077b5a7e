package account

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/mail"
)

var (
	ErrHashingPasswordFailed = apperror.Internal("Could not process password", nil)
	ErrInvalidEmailFormat    = apperror.Validation("Email must be a valid email", nil)
	ErrTermsNotAccepted      = apperror.Validation("Terms must be accepted", nil)
	ErrVerificationFailed    = apperror.BadRequest("Verification failed")
	ErrInvalidToken          = apperror.BadRequest("Invalid token")
	ErrInvalidRole           = apperror.Validation("Role must be Admin or User", nil)
	ErrAdminStatusChange     = apperror.BadRequest("Cannot change status of admin accounts")
)

// Notifier queues outgoing email without blocking the caller.
type Notifier interface {
	Dispatch(msg mail.Message)
}

type RegisterParams struct {
	Title           string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

type CreateParams struct {
	Title           string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            Role
	// IsActive defaults to true when nil.
	IsActive *bool
}

// UpdateParams leaves a field untouched when it is empty.
type UpdateParams struct {
	Title           string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Role            Role
}

type AccountService interface {
	Register(ctx context.Context, params RegisterParams, origin string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email, origin string) error
	ValidateResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error

	ReadAccountByEmail(ctx context.Context, email string) (*Account, error)
	ReadAccountByID(ctx context.Context, id uint) (*Account, error)
	ReadAllAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, params CreateParams) (*Account, error)
	UpdateAccount(ctx context.Context, id uint, params UpdateParams) (*Account, error)
	UpdateStatus(ctx context.Context, id uint, isActive bool) (*Account, error)
	DeleteAccount(ctx context.Context, id uint) error
}

type accountService struct {
	repo     AccountRepository
	notifier Notifier
	validate *validator.Validate
	logger   *zap.Logger
	resetTTL time.Duration
	now      func() time.Time
}

func NewAccountService(repo AccountRepository, notifier Notifier, logger *zap.Logger, resetTTL time.Duration) AccountService {
	return &accountService{
		repo:     repo,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		resetTTL: resetTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

/** REGISTRATION */
func (s *accountService) Register(ctx context.Context, params RegisterParams, origin string) error {
	if err := s.validateEmail(params.Email); err != nil {
		return err
	}
	if err := CheckPassword(params.Password, params.ConfirmPassword); err != nil {
		return err
	}
	if !params.AcceptTerms {
		return ErrTermsNotAccepted
	}

	taken, err := s.repo.EmailTaken(ctx, params.Email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return err
	}
	if taken {
		// Same response as a fresh registration, the owner hears about it by email.
		s.logger.Info("registration attempt with existing email", zap.String("email", params.Email))
		s.notifier.Dispatch(mail.AlreadyRegisteredEmail(params.Email, origin))
		return nil
	}

	hashed, err := s.hash(params.Password)
	if err != nil {
		return err
	}
	token, err := RandomToken()
	if err != nil {
		return apperror.Internal("Could not generate verification token", err)
	}

	account := &Account{
		Title:             params.Title,
		FirstName:         params.FirstName,
		LastName:          params.LastName,
		Email:             params.Email,
		PasswordHash:      hashed,
		AcceptTerms:       params.AcceptTerms,
		VerificationToken: HashToken(token),
		IsActive:          true,
	}
	if err := s.repo.Register(ctx, account); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			// lost a race with a concurrent registration
			s.notifier.Dispatch(mail.AlreadyRegisteredEmail(params.Email, origin))
			return nil
		}
		s.logger.Error("failed to register account", zap.Error(err))
		return err
	}

	s.logger.Info("account registered", zap.Uint("id", account.ID), zap.String("role", string(account.Role)))
	s.notifier.Dispatch(mail.VerificationEmail(account.Email, token, origin))
	return nil
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrVerificationFailed
	}
	account, err := s.repo.ReadByVerificationToken(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrVerificationFailed
		}
		return err
	}

	now := s.now()
	account.Verified = &now
	account.VerificationToken = ""
	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("failed to verify account", zap.Uint("id", account.ID), zap.Error(err))
		return err
	}
	return nil
}

/** PASSWORD RESET */
func (s *accountService) ForgotPassword(ctx context.Context, email, origin string) error {
	account, err := s.repo.ReadByEmail(ctx, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("failed to look up account for password reset", zap.Error(err))
		return err
	}

	token, err := RandomToken()
	if err != nil {
		return apperror.Internal("Could not generate reset token", err)
	}
	expires := s.now().Add(s.resetTTL)
	account.ResetToken = HashToken(token)
	account.ResetTokenExpires = &expires
	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("failed to store reset token", zap.Uint("id", account.ID), zap.Error(err))
		return err
	}

	s.notifier.Dispatch(mail.PasswordResetEmail(account.Email, token, origin))
	return nil
}

func (s *accountService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.accountByResetToken(ctx, token)
	return err
}

func (s *accountService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	account, err := s.accountByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := CheckPassword(password, confirm); err != nil {
		return err
	}
	hashed, err := s.hash(password)
	if err != nil {
		return err
	}

	now := s.now()
	account.PasswordHash = hashed
	account.PasswordReset = &now
	account.ResetToken = ""
	account.ResetTokenExpires = nil
	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("failed to reset password", zap.Uint("id", account.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *accountService) accountByResetToken(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	account, err := s.repo.ReadByResetToken(ctx, HashToken(token))
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if account.ResetTokenExpires == nil || !account.ResetTokenExpires.After(s.now()) {
		return nil, ErrInvalidToken
	}
	return account, nil
}

/** READ */
func (s *accountService) ReadAccountByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.repo.ReadByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		s.logger.Error("failed to get account by email", zap.Error(err))
	}
	return account, err
}

func (s *accountService) ReadAccountByID(ctx context.Context, id uint) (*Account, error) {
	account, err := s.repo.ReadByID(ctx, id)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		s.logger.Error("failed to get account by ID", zap.Uint("id", id), zap.Error(err))
	}
	return account, err
}

func (s *accountService) ReadAllAccounts(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.ReadAll(ctx)
	if err != nil {
		s.logger.Error("failed to list accounts", zap.Error(err))
		return nil, err
	}
	return accounts, nil
}

/** CREATE */
func (s *accountService) CreateAccount(ctx context.Context, params CreateParams) (*Account, error) {
	if err := s.validateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := CheckPassword(params.Password, params.ConfirmPassword); err != nil {
		return nil, err
	}
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := s.hash(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	isActive := params.IsActive == nil || *params.IsActive
	account := &Account{
		Title:        params.Title,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: hashed,
		Role:         params.Role,
		Verified:     &now,
		IsActive:     isActive || params.Role == Admin,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		s.logger.Error("failed to create account", zap.String("email", params.Email), zap.Error(err))
		return nil, err
	}
	return account, nil
}

/** UPDATE */
func (s *accountService) UpdateAccount(ctx context.Context, id uint, params UpdateParams) (*Account, error) {
	account, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Email != "" && params.Email != account.Email {
		if err := s.validateEmail(params.Email); err != nil {
			return nil, err
		}
		taken, err := s.repo.EmailTaken(ctx, params.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailAlreadyExists
		}
		account.Email = params.Email
	}
	if params.Password != "" {
		if err := CheckPassword(params.Password, params.ConfirmPassword); err != nil {
			return nil, err
		}
		hashed, err := s.hash(params.Password)
		if err != nil {
			return nil, err
		}
		account.PasswordHash = hashed
	}
	if params.Role != "" {
		if !params.Role.Valid() {
			return nil, ErrInvalidRole
		}
		account.Role = params.Role
	}
	if params.Title != "" {
		account.Title = params.Title
	}
	if params.FirstName != "" {
		account.FirstName = params.FirstName
	}
	if params.LastName != "" {
		account.LastName = params.LastName
	}

	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("failed to update account", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *accountService) UpdateStatus(ctx context.Context, id uint, isActive bool) (*Account, error) {
	account, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.IsAdmin() {
		return nil, ErrAdminStatusChange
	}

	account.IsActive = isActive
	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("failed to update account status", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("account status changed", zap.Uint("id", id), zap.Bool("isActive", isActive))
	return account, nil
}

/** DELETE */
func (s *accountService) DeleteAccount(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Error("failed to delete account", zap.Uint("id", id), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *accountService) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmailFormat.WithCause(err)
	}
	return nil
}

func (s *accountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return "", ErrHashingPasswordFailed.WithCause(err)
	}
	return string(hashed), nil
}
