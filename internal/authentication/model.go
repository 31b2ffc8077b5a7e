package authentication

import (
	"time"

	"github.com/phloxxx/user-management-system/internal/account"
)

// RefreshToken is one link in a rotation chain. Only the sha256 of the raw
// token is stored; ReplacedByToken holds the successor's hash.
type RefreshToken struct {
	ID              uint             `gorm:"primarykey"`
	AccountID       uint             `gorm:"index;not null"`
	Account         *account.Account `gorm:"constraint:OnDelete:CASCADE"`
	TokenHash       string           `gorm:"uniqueIndex;not null"`
	Expires         time.Time        `gorm:"index;not null"`
	CreatedAt       time.Time
	CreatedByIP     string
	Revoked         *time.Time
	RevokedByIP     string
	ReplacedByToken string
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.Expires)
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.Revoked == nil && !t.IsExpired(now)
}
