package request

import "time"

type Status string

const (
	Pending   Status = "Pending"
	Approved  Status = "Approved"
	Rejected  Status = "Rejected"
	Completed Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected, Completed:
		return true
	}
	return false
}

// decided reports whether reaching s records the approver.
func (s Status) decided() bool {
	return s == Approved || s == Rejected
}

const DefaultType = "General"

type Request struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	EmployeeID  uint       `json:"employeeId" gorm:"index;not null"`
	Type        string     `json:"type" gorm:"not null"`
	Description string     `json:"description"`
	Status      Status     `json:"status" gorm:"not null;default:Pending"`
	Comments    string     `json:"comments"`
	ApproverID  *uint      `json:"approverId"`
	Created     time.Time  `json:"createdDate" gorm:"column:created_date;autoCreateTime"`
	Updated     *time.Time `json:"updatedDate" gorm:"column:updated_date"`
	Items       []Item     `json:"requestItems" gorm:"foreignKey:RequestID"`

	EmployeeCode  *string `json:"employeeCode,omitempty" gorm:"->;-:migration"`
	UserEmail     *string `json:"userEmail,omitempty" gorm:"->;-:migration"`
	ApproverEmail *string `json:"approverEmail,omitempty" gorm:"->;-:migration"`
}

type Item struct {
	ID          uint   `json:"id" gorm:"primarykey"`
	RequestID   uint   `json:"requestId" gorm:"index;not null"`
	Name        string `json:"name" gorm:"not null"`
	Quantity    int    `json:"quantity" gorm:"not null;default:1"`
	Description string `json:"description"`
}

func (Item) TableName() string {
	return "request_items"
}

// Actor is the authenticated caller a request operation runs on behalf of.
type Actor struct {
	AccountID uint
	Admin     bool
}
