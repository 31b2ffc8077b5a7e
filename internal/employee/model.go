package employee

import (
	"time"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/department"
)

const (
	StatusActive = "Active"
	DateLayout   = "2006-01-02"
)

type Employee struct {
	ID           uint                   `json:"id" gorm:"primarykey"`
	EmployeeID   string                 `json:"employeeId" gorm:"uniqueIndex;not null"`
	UserID       uint                   `json:"userId" gorm:"uniqueIndex;not null"`
	User         *account.Account       `json:"-" gorm:"foreignKey:UserID"`
	Position     string                 `json:"position" gorm:"not null"`
	DepartmentID *uint                  `json:"departmentId" gorm:"index"`
	Department   *department.Department `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	HireDate     time.Time              `json:"hireDate" gorm:"type:date;not null"`
	Status       string                 `json:"status" gorm:"not null;default:Active"`
	Created      time.Time              `json:"created" gorm:"autoCreateTime"`
	Updated      *time.Time             `json:"updated"`

	DepartmentName *string `json:"departmentName" gorm:"->;-:migration"`
	UserEmail      *string `json:"userEmail" gorm:"->;-:migration"`
}

// ParseHireDate accepts a calendar date or an RFC 3339 timestamp.
func ParseHireDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
