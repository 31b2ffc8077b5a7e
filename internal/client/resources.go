package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

/** DEPARTMENTS */

type Department struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Created       time.Time  `json:"created"`
	Updated       *time.Time `json:"updated"`
	EmployeeCount int64      `json:"employeeCount"`
}

type DepartmentInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type Departments struct{ api *api }

func (d *Departments) List(ctx context.Context) ([]Department, error) {
	var out []Department
	if err := d.api.do(ctx, http.MethodGet, "departments", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Departments) Get(ctx context.Context, id uint) (*Department, error) {
	var out Department
	if err := d.api.do(ctx, http.MethodGet, fmt.Sprintf("departments/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Departments) Create(ctx context.Context, in DepartmentInput) (*Department, error) {
	var out Department
	if err := d.api.do(ctx, http.MethodPost, "departments", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Departments) Update(ctx context.Context, id uint, in DepartmentInput) (*Department, error) {
	var out Department
	if err := d.api.do(ctx, http.MethodPut, fmt.Sprintf("departments/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *Departments) Delete(ctx context.Context, id uint) error {
	return d.api.do(ctx, http.MethodDelete, fmt.Sprintf("departments/%d", id), nil, nil, nil)
}

/** EMPLOYEES */

type Employee struct {
	ID             uint       `json:"id"`
	EmployeeID     string     `json:"employeeId"`
	UserID         uint       `json:"userId"`
	Position       string     `json:"position"`
	DepartmentID   *uint      `json:"departmentId"`
	HireDate       time.Time  `json:"hireDate"`
	Status         string     `json:"status"`
	Created        time.Time  `json:"created"`
	Updated        *time.Time `json:"updated"`
	DepartmentName *string    `json:"departmentName"`
	UserEmail      *string    `json:"userEmail"`
}

// EmployeeInput is used for create and update. HireDate is YYYY-MM-DD.
type EmployeeInput struct {
	EmployeeID   string `json:"employeeId,omitempty"`
	UserID       uint   `json:"userId,omitempty"`
	Position     string `json:"position,omitempty"`
	DepartmentID uint   `json:"departmentId,omitempty"`
	HireDate     string `json:"hireDate,omitempty"`
	Status       string `json:"status,omitempty"`
}

type Employees struct{ api *api }

func (e *Employees) List(ctx context.Context) ([]Employee, error) {
	var out []Employee
	if err := e.api.do(ctx, http.MethodGet, "employees", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Employees) Get(ctx context.Context, id uint) (*Employee, error) {
	var out Employee
	if err := e.api.do(ctx, http.MethodGet, fmt.Sprintf("employees/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Employees) Create(ctx context.Context, in EmployeeInput) (*Employee, error) {
	var out Employee
	if err := e.api.do(ctx, http.MethodPost, "employees", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Employees) Update(ctx context.Context, id uint, in EmployeeInput) (*Employee, error) {
	var out Employee
	if err := e.api.do(ctx, http.MethodPut, fmt.Sprintf("employees/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Employees) Delete(ctx context.Context, id uint) error {
	return e.api.do(ctx, http.MethodDelete, fmt.Sprintf("employees/%d", id), nil, nil, nil)
}

func (e *Employees) Transfer(ctx context.Context, id, departmentID uint) (*Employee, error) {
	var out struct {
		Message  string    `json:"message"`
		Employee *Employee `json:"employee"`
	}
	in := map[string]uint{"departmentId": departmentID}
	if err := e.api.do(ctx, http.MethodPost, fmt.Sprintf("employees/%d/transfer", id), nil, in, &out); err != nil {
		return nil, err
	}
	return out.Employee, nil
}

/** REQUESTS */

type RequestItem struct {
	ID          uint   `json:"id,omitempty"`
	RequestID   uint   `json:"requestId,omitempty"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

type Request struct {
	ID            uint          `json:"id"`
	EmployeeID    uint          `json:"employeeId"`
	Type          string        `json:"type"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	Comments      string        `json:"comments"`
	ApproverID    *uint         `json:"approverId"`
	Created       time.Time     `json:"createdDate"`
	Updated       *time.Time    `json:"updatedDate"`
	Items         []RequestItem `json:"requestItems"`
	EmployeeCode  *string       `json:"employeeCode,omitempty"`
	UserEmail     *string       `json:"userEmail,omitempty"`
	ApproverEmail *string       `json:"approverEmail,omitempty"`
}

// RequestInput creates a request. EmployeeID defaults to the caller's
// employee record.
type RequestInput struct {
	EmployeeID  uint          `json:"employeeId,omitempty"`
	Type        string        `json:"type,omitempty"`
	Description string        `json:"description,omitempty"`
	Items       []RequestItem `json:"requestItems"`
}

// RequestUpdate leaves nil and empty fields unchanged. A non-empty Items
// replaces all items.
type RequestUpdate struct {
	EmployeeID  uint          `json:"employeeId,omitempty"`
	Type        string        `json:"type,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      string        `json:"status,omitempty"`
	Comments    *string       `json:"comments,omitempty"`
	Items       []RequestItem `json:"requestItems,omitempty"`
}

type Requests struct{ api *api }

func (r *Requests) List(ctx context.Context) ([]Request, error) {
	var out []Request
	if err := r.api.do(ctx, http.MethodGet, "requests", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Requests) ListByEmployee(ctx context.Context, employeeID uint) ([]Request, error) {
	var out []Request
	if err := r.api.do(ctx, http.MethodGet, fmt.Sprintf("requests/employee/%d", employeeID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Requests) Get(ctx context.Context, id uint) (*Request, error) {
	var out Request
	if err := r.api.do(ctx, http.MethodGet, fmt.Sprintf("requests/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Requests) Create(ctx context.Context, in RequestInput) (*Request, error) {
	var out Request
	if err := r.api.do(ctx, http.MethodPost, "requests", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Requests) Update(ctx context.Context, id uint, in RequestUpdate) (*Request, error) {
	var out Request
	if err := r.api.do(ctx, http.MethodPut, fmt.Sprintf("requests/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Requests) Delete(ctx context.Context, id uint) error {
	return r.api.do(ctx, http.MethodDelete, fmt.Sprintf("requests/%d", id), nil, nil, nil)
}

/** WORKFLOWS */

type Workflow struct {
	ID             uint           `json:"id"`
	EmployeeID     uint           `json:"employeeId"`
	Type           string         `json:"type"`
	Details        map[string]any `json:"details"`
	Status         string         `json:"status"`
	Comments       string         `json:"comments"`
	Created        time.Time      `json:"createdDate"`
	Updated        *time.Time     `json:"updatedDate"`
	EmployeeCode   *string        `json:"employeeCode,omitempty"`
	Position       *string        `json:"position,omitempty"`
	DepartmentName *string        `json:"departmentName,omitempty"`
}

type RecentOnboarding struct {
	Workflow
	EmployeeName   string `json:"employeeName"`
	DepartmentName string `json:"departmentName"`
	Email          string `json:"email"`
}

type WorkflowInput struct {
	EmployeeID uint           `json:"employeeId,omitempty"`
	Type       string         `json:"type,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Status     string         `json:"status,omitempty"`
	Comments   *string        `json:"comments,omitempty"`
}

type Workflows struct{ api *api }

func (w *Workflows) List(ctx context.Context) ([]Workflow, error) {
	var out []Workflow
	if err := w.api.do(ctx, http.MethodGet, "workflows", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Workflows) ListByEmployee(ctx context.Context, employeeID uint) ([]Workflow, error) {
	var out []Workflow
	if err := w.api.do(ctx, http.MethodGet, fmt.Sprintf("workflows/employee/%d", employeeID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Workflows) Get(ctx context.Context, id uint) (*Workflow, error) {
	var out Workflow
	if err := w.api.do(ctx, http.MethodGet, fmt.Sprintf("workflows/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) Create(ctx context.Context, in WorkflowInput) (*Workflow, error) {
	var out Workflow
	if err := w.api.do(ctx, http.MethodPost, "workflows", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) Update(ctx context.Context, id uint, in WorkflowInput) (*Workflow, error) {
	var out Workflow
	if err := w.api.do(ctx, http.MethodPut, fmt.Sprintf("workflows/%d", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) UpdateStatus(ctx context.Context, id uint, status, comments string) (*Workflow, error) {
	var out Workflow
	in := map[string]string{"status": status, "comments": comments}
	if err := w.api.do(ctx, http.MethodPut, fmt.Sprintf("workflows/%d/status", id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *Workflows) Delete(ctx context.Context, id uint) error {
	return w.api.do(ctx, http.MethodDelete, fmt.Sprintf("workflows/%d", id), nil, nil, nil)
}

// CreateOnboarding returns the employee's onboarding workflow, creating it
// when missing. created reports whether a new one was made.
func (w *Workflows) CreateOnboarding(ctx context.Context, employeeID uint, details map[string]any, comments string) (*Workflow, bool, error) {
	var out Workflow
	in := map[string]any{"employeeId": employeeID, "details": details, "comments": comments}
	status, err := w.api.call(ctx, http.MethodPost, "workflows/onboarding", nil, in, &out)
	if err != nil {
		return nil, false, err
	}
	return &out, status == http.StatusCreated, nil
}

// RecentOnboardings lists onboardings from the last days; zero uses the
// server default.
func (w *Workflows) RecentOnboardings(ctx context.Context, days int) ([]RecentOnboarding, error) {
	var query url.Values
	if days > 0 {
		query = url.Values{"days": {strconv.Itoa(days)}}
	}
	var out []RecentOnboarding
	if err := w.api.do(ctx, http.MethodGet, "workflows/recent-onboardings", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
