package account

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	// Admin has full access
	Admin Role = "Admin"
	// User has limited access
	User Role = "User"
)

func (r Role) Valid() bool {
	return r == Admin || r == User
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Account is an identity record. Tokens are stored as sha256 hashes.
type Account struct {
	gorm.Model
	Title        string `gorm:"not null"`
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(16);not null"`
	AcceptTerms  bool

	VerificationToken string `gorm:"index"`
	Verified          *time.Time

	IsActive bool `gorm:"not null"`

	ResetToken        string `gorm:"index"`
	ResetTokenExpires *time.Time
	PasswordReset     *time.Time
}

// IsVerified is true once the email was confirmed or a password reset completed.
func (a *Account) IsVerified() bool {
	return a.Verified != nil || a.PasswordReset != nil
}

func (a *Account) IsAdmin() bool {
	return a.Role == Admin
}

// CanLogIn reports whether the account may authenticate. Admins are never
// locked out by the active flag.
func (a *Account) CanLogIn() bool {
	return a.IsAdmin() || a.IsActive
}

// Details is the public projection of an Account.
type Details struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Created    time.Time  `json:"created"`
	Updated    *time.Time `json:"updated,omitempty"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
}

func (a *Account) Details() Details {
	d := Details{
		ID:         a.ID,
		Title:      a.Title,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Email:      a.Email,
		Role:       a.Role,
		Created:    a.CreatedAt,
		IsVerified: a.IsVerified(),
		IsActive:   a.CanLogIn(),
	}
	if !a.UpdatedAt.Equal(a.CreatedAt) {
		updated := a.UpdatedAt
		d.Updated = &updated
	}
	return d
}
