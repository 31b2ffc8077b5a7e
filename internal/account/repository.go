package account

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

var (
	ErrEmailAlreadyExists   = apperror.Conflict("Email is already registered")
	ErrAccountNotFound      = apperror.NotFound("Account not found")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing accounts", nil)
)

type AccountRepository interface {
	// Register inserts account as Admin when no account exists yet and as
	// User otherwise.
	Register(ctx context.Context, account *Account) error
	Create(ctx context.Context, account *Account) error
	ReadByID(ctx context.Context, id uint) (*Account, error)
	ReadByEmail(ctx context.Context, email string) (*Account, error)
	ReadByVerificationToken(ctx context.Context, tokenHash string) (*Account, error)
	ReadByResetToken(ctx context.Context, tokenHash string) (*Account, error)
	ReadAll(ctx context.Context) ([]Account, error)
	// EmailTaken also sees soft-deleted accounts, whose email stays reserved.
	EmailTaken(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, id uint) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Register(ctx context.Context, account *Account) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAccounts(tx); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&Account{}).Count(&count).Error; err != nil {
			return err
		}
		account.Role = User
		if count == 0 {
			account.Role = Admin
		}
		return tx.Create(account).Error
	})
	return translate(err)
}

// lockAccounts holds off other registrations until tx ends so that only one
// of them can see an empty table. SQLite already serializes writers.
func lockAccounts(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(&Account{}); err != nil {
		return err
	}
	return tx.Exec("LOCK TABLE " + stmt.Quote(stmt.Schema.Table) + " IN SHARE ROW EXCLUSIVE MODE").Error
}

func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *accountRepository) ReadByID(ctx context.Context, id uint) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) ReadByEmail(ctx context.Context, email string) (*Account, error) {
	return r.readWhere(ctx, "email = ?", email)
}

func (r *accountRepository) ReadByVerificationToken(ctx context.Context, tokenHash string) (*Account, error) {
	return r.readWhere(ctx, "verification_token = ? AND verification_token <> ''", tokenHash)
}

func (r *accountRepository) ReadByResetToken(ctx context.Context, tokenHash string) (*Account, error) {
	return r.readWhere(ctx, "reset_token = ? AND reset_token <> ''", tokenHash)
}

func (r *accountRepository) readWhere(ctx context.Context, query string, args ...any) (*Account, error) {
	var account Account
	err := r.db.WithContext(ctx).
		Where(query, args...).
		First(&account).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepository) ReadAll(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := r.db.WithContext(ctx).Order("id").Find(&accounts).Error; err != nil {
		return nil, translate(err)
	}
	return accounts, nil
}

func (r *accountRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&Account{}).
		Where("email = ?", email).
		Count(&count).
		Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *accountRepository) Update(ctx context.Context, account *Account) error {
	return translate(r.db.WithContext(ctx).Save(account).Error)
}

func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Account{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAccountNotFound
	case utils.IsDuplicateKey(err):
		return ErrEmailAlreadyExists.WithCause(err)
	default:
		return ErrUnresponsiveDatabase.WithCause(err)
	}
}
