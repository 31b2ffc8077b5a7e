package department

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

var (
	ErrDepartmentNotFound   = apperror.NotFound("Department not found")
	ErrDepartmentNameExists = apperror.Conflict("Department name already exists")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing departments", nil)
)

const selectWithCount = "departments.*, " +
	"(SELECT COUNT(*) FROM employees WHERE employees.department_id = departments.id) AS employee_count"

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	ReadAll(ctx context.Context) ([]Department, error)
	ReadByID(ctx context.Context, id uint) (*Department, error)
	Update(ctx context.Context, d *Department) error
	// Delete detaches the department's employees and removes it.
	Delete(ctx context.Context, id uint) error
}

type departmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, d *Department) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *departmentRepository) ReadAll(ctx context.Context) ([]Department, error) {
	var departments []Department
	err := r.db.WithContext(ctx).
		Select(selectWithCount).
		Order("departments.id").
		Find(&departments).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return departments, nil
}

func (r *departmentRepository) ReadByID(ctx context.Context, id uint) (*Department, error) {
	var d Department
	err := r.db.WithContext(ctx).
		Select(selectWithCount).
		Where("departments.id = ?", id).
		First(&d).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *departmentRepository) Update(ctx context.Context, d *Department) error {
	err := r.db.WithContext(ctx).
		Model(d).
		Select("name", "description", "updated").
		Updates(d).
		Error
	return translate(err)
}

func (r *departmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("employees").
			Where("department_id = ?", id).
			Update("department_id", nil).
			Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&Department{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDepartmentNotFound
		}
		return nil
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrDepartmentNotFound
	case utils.IsDuplicateKey(err):
		return ErrDepartmentNameExists.WithCause(err)
	default:
		return ErrUnresponsiveDatabase.WithCause(err)
	}
}
