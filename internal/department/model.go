package department

import "time"

type Department struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	Name        string     `json:"name" gorm:"uniqueIndex;not null"`
	Description string     `json:"description" gorm:"not null"`
	Created     time.Time  `json:"created" gorm:"autoCreateTime"`
	Updated     *time.Time `json:"updated"`
	// EmployeeCount is computed on read.
	EmployeeCount int64 `json:"employeeCount" gorm:"->;-:migration"`
}
