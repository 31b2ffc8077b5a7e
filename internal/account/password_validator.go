package account

import (
	"fmt"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

const (
	PasswordMinimumLength = 6
	// bcrypt ignores everything past 72 bytes
	PasswordMaximumLength = 72
)

var (
	ErrPasswordTooShort = apperror.Validation(
		fmt.Sprintf("Password should be at least %d characters", PasswordMinimumLength), nil)
	ErrPasswordTooLong = apperror.Validation(
		fmt.Sprintf("Password should be at most %d bytes", PasswordMaximumLength), nil)
	ErrPasswordMismatch = apperror.Validation("Passwords do not match", nil)
)

func CheckPassword(password, confirm string) error {
	if len(password) < PasswordMinimumLength {
		return ErrPasswordTooShort
	}
	if len(password) > PasswordMaximumLength {
		return ErrPasswordTooLong
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
