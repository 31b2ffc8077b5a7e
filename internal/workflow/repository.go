package workflow

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrWorkflowNotFound     = apperror.NotFound("Workflow not found")
	ErrEmployeeNotFound     = apperror.NotFound("Employee not found")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing workflows", nil)
)

const selectWithEmployee = "workflows.*, " +
	"employees.employee_id AS employee_code, " +
	"employees.position AS position, " +
	"departments.name AS department_name, " +
	"accounts.first_name AS account_first_name, " +
	"accounts.last_name AS account_last_name, " +
	"accounts.email AS account_email"

type WorkflowRepository interface {
	Create(ctx context.Context, w *Workflow) error
	ReadAll(ctx context.Context) ([]Workflow, error)
	ReadByID(ctx context.Context, id uint) (*Workflow, error)
	ReadByEmployee(ctx context.Context, employeeID uint) ([]Workflow, error)
	ReadOnboardingsSince(ctx context.Context, since time.Time) ([]Workflow, error)
	Update(ctx context.Context, w *Workflow) error
	Delete(ctx context.Context, id uint) error
	// EmployeeDepartment returns the employee's department name, nil when the
	// employee has none.
	EmployeeDepartment(ctx context.Context, employeeID uint) (*string, error)
	// CreateOnboarding returns the employee's existing onboarding workflow, or
	// stores w when there is none. The bool reports whether w was created.
	CreateOnboarding(ctx context.Context, w *Workflow) (*Workflow, bool, error)
}

type workflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepository{db: db}
}

func withEmployee(db *gorm.DB) *gorm.DB {
	return db.Model(&Workflow{}).
		Select(selectWithEmployee).
		Joins("LEFT JOIN employees ON employees.id = workflows.employee_id").
		Joins("LEFT JOIN departments ON departments.id = employees.department_id").
		Joins("LEFT JOIN accounts ON accounts.id = employees.user_id AND accounts.deleted_at IS NULL")
}

func (r *workflowRepository) Create(ctx context.Context, w *Workflow) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

func (r *workflowRepository) ReadAll(ctx context.Context) ([]Workflow, error) {
	var workflows []Workflow
	err := withEmployee(r.db.WithContext(ctx)).
		Order("workflows.created_date DESC, workflows.id DESC").
		Find(&workflows).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return workflows, nil
}

func (r *workflowRepository) ReadByID(ctx context.Context, id uint) (*Workflow, error) {
	var w Workflow
	err := withEmployee(r.db.WithContext(ctx)).
		Where("workflows.id = ?", id).
		Take(&w).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *workflowRepository) ReadByEmployee(ctx context.Context, employeeID uint) ([]Workflow, error) {
	var workflows []Workflow
	err := withEmployee(r.db.WithContext(ctx)).
		Where("workflows.employee_id = ?", employeeID).
		Order("workflows.created_date DESC, workflows.id DESC").
		Find(&workflows).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return workflows, nil
}

func (r *workflowRepository) ReadOnboardingsSince(ctx context.Context, since time.Time) ([]Workflow, error) {
	var workflows []Workflow
	err := withEmployee(r.db.WithContext(ctx)).
		Where("workflows.type = ? AND workflows.created_date >= ?", TypeOnboarding, since).
		Order("workflows.created_date DESC, workflows.id DESC").
		Find(&workflows).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return workflows, nil
}

func (r *workflowRepository) Update(ctx context.Context, w *Workflow) error {
	err := r.db.WithContext(ctx).
		Model(w).
		Select("employee_id", "type", "details", "status", "comments", "updated_date").
		Updates(w).
		Error
	return translate(err)
}

func (r *workflowRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Workflow{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWorkflowNotFound
	}
	return nil
}

func (r *workflowRepository) EmployeeDepartment(ctx context.Context, employeeID uint) (*string, error) {
	return employeeDepartment(r.db.WithContext(ctx), employeeID)
}

func employeeDepartment(db *gorm.DB, employeeID uint) (*string, error) {
	var row struct {
		ID             uint
		DepartmentName *string
	}
	res := db.Table("employees").
		Select("employees.id AS id, departments.name AS department_name").
		Joins("LEFT JOIN departments ON departments.id = employees.department_id").
		Where("employees.id = ?", employeeID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, ErrUnresponsiveDatabase.WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrEmployeeNotFound
	}
	return row.DepartmentName, nil
}

func (r *workflowRepository) CreateOnboarding(ctx context.Context, w *Workflow) (*Workflow, bool, error) {
	var (
		result  *Workflow
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Workflow
		err := tx.Where("employee_id = ? AND type = ?", w.EmployeeID, TypeOnboarding).
			Order("id").
			Take(&existing).
			Error
		switch {
		case err == nil:
			result = &existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return translate(err)
		}
		if err := tx.Create(w).Error; err != nil {
			return translate(err)
		}
		result, created = w, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrWorkflowNotFound
	default:
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return ErrUnresponsiveDatabase.WithCause(err)
	}
}
