package employee

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/department"
	"github.com/phloxxx/user-management-system/internal/request"
	"github.com/phloxxx/user-management-system/internal/utils"
	"github.com/phloxxx/user-management-system/internal/workflow"
)

var (
	ErrEmployeeNotFound     = apperror.NotFound("Employee not found")
	ErrEmployeeIDExists     = apperror.Conflict("Employee with this ID already exists")
	ErrUserAlreadyEmployee  = apperror.Conflict("This user is already associated with another employee")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing employees", nil)
)

const selectWithNames = "employees.*, " +
	"departments.name AS department_name, " +
	"accounts.email AS user_email"

type EmployeeRepository interface {
	// Create stores the employee together with its onboarding workflow.
	Create(ctx context.Context, e *Employee) (*workflow.Workflow, error)
	ReadAll(ctx context.Context) ([]Employee, error)
	ReadByID(ctx context.Context, id uint) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	// Delete removes the employee with its workflows and requests.
	Delete(ctx context.Context, id uint) error
	// CheckUnique fails when the business code or the account already belong
	// to an employee other than exceptID.
	CheckUnique(ctx context.Context, code string, userID, exceptID uint) error
	DepartmentName(ctx context.Context, departmentID uint) (string, error)
	AccountExists(ctx context.Context, accountID uint) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func withNames(db *gorm.DB) *gorm.DB {
	return db.Model(&Employee{}).
		Select(selectWithNames).
		Joins("LEFT JOIN departments ON departments.id = employees.department_id").
		Joins("LEFT JOIN accounts ON accounts.id = employees.user_id AND accounts.deleted_at IS NULL")
}

func (r *employeeRepository) Create(ctx context.Context, e *Employee) (*workflow.Workflow, error) {
	var onboarding *workflow.Workflow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, e.EmployeeID, e.UserID, 0); err != nil {
			return err
		}
		name := workflow.UnknownDepartment
		if e.DepartmentID != nil {
			var err error
			if name, err = departmentName(tx, *e.DepartmentID); err != nil {
				return err
			}
		}
		if err := tx.Omit("User", "Department").Create(e).Error; err != nil {
			return translate(err)
		}
		onboarding = workflow.NewOnboarding(e.ID, name, nil, "")
		return translate(tx.Create(onboarding).Error)
	})
	if err != nil {
		return nil, err
	}
	return onboarding, nil
}

func (r *employeeRepository) ReadAll(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := withNames(r.db.WithContext(ctx)).Order("employees.id").Find(&employees).Error
	if err != nil {
		return nil, translate(err)
	}
	return employees, nil
}

func (r *employeeRepository) ReadByID(ctx context.Context, id uint) (*Employee, error) {
	var e Employee
	err := withNames(r.db.WithContext(ctx)).Where("employees.id = ?", id).Take(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *employeeRepository) Update(ctx context.Context, e *Employee) error {
	err := r.db.WithContext(ctx).
		Model(e).
		Select("employee_id", "user_id", "position", "department_id", "hire_date", "status", "updated").
		Updates(e).
		Error
	return translate(err)
}

func (r *employeeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", id).Delete(&workflow.Workflow{}).Error; err != nil {
			return translate(err)
		}
		requests := tx.Model(&request.Request{}).Select("id").Where("employee_id = ?", id)
		if err := tx.Where("request_id IN (?)", requests).Delete(&request.Item{}).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("employee_id = ?", id).Delete(&request.Request{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&Employee{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrEmployeeNotFound
		}
		return nil
	})
}

func (r *employeeRepository) CheckUnique(ctx context.Context, code string, userID, exceptID uint) error {
	return checkUnique(r.db.WithContext(ctx), code, userID, exceptID)
}

func checkUnique(db *gorm.DB, code string, userID, exceptID uint) error {
	if code != "" {
		taken, err := exists(db.Where("employee_id = ? AND id <> ?", code, exceptID))
		if err != nil {
			return err
		}
		if taken {
			return ErrEmployeeIDExists
		}
	}
	if userID != 0 {
		taken, err := exists(db.Where("user_id = ? AND id <> ?", userID, exceptID))
		if err != nil {
			return err
		}
		if taken {
			return ErrUserAlreadyEmployee
		}
	}
	return nil
}

func exists(q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Model(&Employee{}).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *employeeRepository) DepartmentName(ctx context.Context, departmentID uint) (string, error) {
	return departmentName(r.db.WithContext(ctx), departmentID)
}

func departmentName(db *gorm.DB, departmentID uint) (string, error) {
	var names []string
	err := db.Model(&department.Department{}).
		Where("id = ?", departmentID).
		Limit(1).
		Pluck("name", &names).
		Error
	if err != nil {
		return "", translate(err)
	}
	if len(names) == 0 {
		return "", department.ErrDepartmentNotFound
	}
	return names[0], nil
}

func (r *employeeRepository) AccountExists(ctx context.Context, accountID uint) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&account.Account{}).Where("id = ?", accountID).Count(&count).Error
	if err != nil {
		return translate(err)
	}
	if count == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func translate(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrEmployeeNotFound
	case utils.IsDuplicateKey(err):
		return ErrEmployeeIDExists.WithCause(err)
	default:
		return ErrUnresponsiveDatabase.WithCause(err)
	}
}
