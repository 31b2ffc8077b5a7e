package workflow

import (
	"fmt"
	"time"
)

type Status string

const (
	Pending  Status = "Pending"
	Approved Status = "Approved"
	Rejected Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case Pending, Approved, Rejected:
		return true
	}
	return false
}

const (
	TypeOnboarding            = "Onboarding"
	DefaultOnboardingComments = "Automated onboarding workflow created"
	UnknownDepartment         = "Unknown Department"
)

// Details is free-form workflow data stored as a JSON object.
type Details map[string]any

type Step struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type Workflow struct {
	ID         uint       `json:"id" gorm:"primarykey"`
	EmployeeID uint       `json:"employeeId" gorm:"index;not null"`
	Type       string     `json:"type" gorm:"index;not null"`
	Details    Details    `json:"details" gorm:"type:json;serializer:json;not null"`
	Status     Status     `json:"status" gorm:"not null;default:Pending"`
	Comments   string     `json:"comments"`
	Created    time.Time  `json:"createdDate" gorm:"column:created_date;autoCreateTime;index"`
	Updated    *time.Time `json:"updatedDate" gorm:"column:updated_date"`

	// Read from the employee, department and account joins.
	EmployeeCode     *string `json:"employeeCode,omitempty" gorm:"->;-:migration"`
	Position         *string `json:"position,omitempty" gorm:"->;-:migration"`
	DepartmentName   *string `json:"departmentName,omitempty" gorm:"->;-:migration"`
	AccountFirstName *string `json:"-" gorm:"->;-:migration"`
	AccountLastName  *string `json:"-" gorm:"->;-:migration"`
	AccountEmail     *string `json:"-" gorm:"->;-:migration"`
}

// DefaultOnboardingSteps lists the steps every new hire goes through.
func DefaultOnboardingSteps(departmentName string) []Step {
	return []Step{
		{Name: "Welcome Package"},
		{Name: "IT Setup"},
		{Name: "HR Orientation"},
		{Name: fmt.Sprintf("%s Orientation", departmentName)},
	}
}

// NewOnboarding builds a pending onboarding workflow. Keys in extra override
// the generated steps and department.
func NewOnboarding(employeeID uint, departmentName string, extra Details, comments string) *Workflow {
	if departmentName == "" {
		departmentName = UnknownDepartment
	}
	if comments == "" {
		comments = DefaultOnboardingComments
	}
	details := Details{
		"steps":      DefaultOnboardingSteps(departmentName),
		"department": departmentName,
	}
	for k, v := range extra {
		details[k] = v
	}
	return &Workflow{
		EmployeeID: employeeID,
		Type:       TypeOnboarding,
		Details:    details,
		Status:     Pending,
		Comments:   comments,
	}
}

// RecentOnboarding is an onboarding workflow flattened for dashboards.
type RecentOnboarding struct {
	Workflow
	EmployeeName   string `json:"employeeName"`
	DepartmentName string `json:"departmentName"`
	Email          string `json:"email"`
}

func newRecentOnboarding(w Workflow) RecentOnboarding {
	r := RecentOnboarding{
		Workflow:       w,
		EmployeeName:   "Unknown",
		DepartmentName: "No Department",
		Email:          "No Email",
	}
	if w.AccountFirstName != nil && w.AccountLastName != nil {
		r.EmployeeName = *w.AccountFirstName + " " + *w.AccountLastName
	}
	if w.DepartmentName != nil {
		r.DepartmentName = *w.DepartmentName
	}
	if w.AccountEmail != nil {
		r.Email = *w.AccountEmail
	}
	return r
}
