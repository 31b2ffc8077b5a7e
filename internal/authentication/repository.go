package authentication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrTokenNotFound        = apperror.Unauthorized("Invalid token")
	ErrTokenInactive        = apperror.Unauthorized("Invalid token")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing refresh tokens", nil)
)

const liveAccountJoin = "JOIN accounts ON accounts.id = refresh_tokens.account_id AND accounts.deleted_at IS NULL"

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	ReadByHash(ctx context.Context, hash string) (*RefreshToken, error)
	// Rotate revokes the active token identified by oldHash and stores next
	// in the same transaction.
	Rotate(ctx context.Context, oldHash string, next *RefreshToken, ip string, now time.Time) error
	Revoke(ctx context.Context, hash, ip string, now time.Time) error
	HasToken(ctx context.Context, accountID uint, hash string) (bool, error)
	ReadByAccount(ctx context.Context, accountID uint) ([]RefreshToken, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return ErrUnresponsiveDatabase.WithCause(fmt.Errorf("create refresh token: %w", err))
	}
	return nil
}

func (r *refreshTokenRepository) ReadByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	return readByHash(r.db.WithContext(ctx), hash)
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, oldHash string, next *RefreshToken, ip string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := readByHash(tx.Clauses(clause.Locking{Strength: "UPDATE"}), oldHash)
		if err != nil {
			return err
		}
		if !current.IsActive(now) {
			return ErrTokenInactive
		}

		current.Revoked = &now
		current.RevokedByIP = ip
		current.ReplacedByToken = next.TokenHash
		if err := tx.Save(current).Error; err != nil {
			return ErrUnresponsiveDatabase.WithCause(err)
		}

		next.AccountID = current.AccountID
		if err := tx.Create(next).Error; err != nil {
			return ErrUnresponsiveDatabase.WithCause(err)
		}
		return nil
	})
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, hash, ip string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := readByHash(tx.Clauses(clause.Locking{Strength: "UPDATE"}), hash)
		if err != nil {
			return err
		}
		if !current.IsActive(now) {
			return ErrTokenInactive
		}

		current.Revoked = &now
		current.RevokedByIP = ip
		if err := tx.Save(current).Error; err != nil {
			return ErrUnresponsiveDatabase.WithCause(err)
		}
		return nil
	})
}

func (r *refreshTokenRepository) HasToken(ctx context.Context, accountID uint, hash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RefreshToken{}).
		Where("account_id = ? AND token_hash = ?", accountID, hash).
		Count(&count).
		Error
	if err != nil {
		return false, ErrUnresponsiveDatabase.WithCause(err)
	}
	return count > 0, nil
}

func (r *refreshTokenRepository) ReadByAccount(ctx context.Context, accountID uint) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id").
		Find(&tokens).
		Error
	if err != nil {
		return nil, ErrUnresponsiveDatabase.WithCause(err)
	}
	return tokens, nil
}

func readByHash(db *gorm.DB, hash string) (*RefreshToken, error) {
	var token RefreshToken
	err := db.
		Joins(liveAccountJoin).
		Where("refresh_tokens.token_hash = ?", hash).
		First(&token).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase.WithCause(err)
	}
	return &token, nil
}
