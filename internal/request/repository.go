package request

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrRequestNotFound      = apperror.NotFound("Request not found")
	ErrEmployeeNotFound     = apperror.NotFound("Employee not found")
	ErrNotAnEmployee        = apperror.BadRequest("User is not registered as an employee")
	ErrUnresponsiveDatabase = apperror.Database("Error occurred while accessing requests", nil)
)

const selectWithPeople = "requests.*, " +
	"employees.employee_id AS employee_code, " +
	"owners.email AS user_email, " +
	"approvers.email AS approver_email"

type RequestRepository interface {
	// Create stores the request and its items in one transaction.
	Create(ctx context.Context, r *Request) error
	ReadAll(ctx context.Context) ([]Request, error)
	ReadByID(ctx context.Context, id uint) (*Request, error)
	ReadByEmployee(ctx context.Context, employeeID uint) ([]Request, error)
	// Update saves the request columns and, when replaceItems is set, swaps
	// its items for r.Items in the same transaction.
	Update(ctx context.Context, r *Request, replaceItems bool) error
	Delete(ctx context.Context, id uint) error
	EmployeeExists(ctx context.Context, employeeID uint) error
	// EmployeeForAccount returns the id of the employee linked to an account.
	EmployeeForAccount(ctx context.Context, accountID uint) (uint, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func withPeople(db *gorm.DB) *gorm.DB {
	return db.Model(&Request{}).
		Select(selectWithPeople).
		Joins("LEFT JOIN employees ON employees.id = requests.employee_id").
		Joins("LEFT JOIN accounts owners ON owners.id = employees.user_id").
		Joins("LEFT JOIN accounts approvers ON approvers.id = requests.approver_id").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("request_items.id")
		})
}

func (r *requestRepository) Create(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := req.Items
		if err := tx.Omit("Items").Create(req).Error; err != nil {
			return translate(err)
		}
		if err := createItems(tx, req.ID, items); err != nil {
			return err
		}
		req.Items = items
		return nil
	})
}

func createItems(tx *gorm.DB, requestID uint, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].RequestID = requestID
	}
	return translate(tx.Create(&items).Error)
}

func (r *requestRepository) ReadAll(ctx context.Context) ([]Request, error) {
	var requests []Request
	err := withPeople(r.db.WithContext(ctx)).
		Order("requests.created_date DESC, requests.id DESC").
		Find(&requests).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return requests, nil
}

func (r *requestRepository) ReadByID(ctx context.Context, id uint) (*Request, error) {
	var req Request
	err := withPeople(r.db.WithContext(ctx)).
		Where("requests.id = ?", id).
		Take(&req).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *requestRepository) ReadByEmployee(ctx context.Context, employeeID uint) ([]Request, error) {
	var requests []Request
	err := withPeople(r.db.WithContext(ctx)).
		Where("requests.employee_id = ?", employeeID).
		Order("requests.created_date DESC, requests.id DESC").
		Find(&requests).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return requests, nil
}

func (r *requestRepository) Update(ctx context.Context, req *Request, replaceItems bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(req).
			Select("employee_id", "type", "description", "status", "comments", "approver_id", "updated_date").
			Updates(req).
			Error
		if err != nil {
			return translate(err)
		}
		if !replaceItems {
			return nil
		}
		if err := tx.Where("request_id = ?", req.ID).Delete(&Item{}).Error; err != nil {
			return translate(err)
		}
		return createItems(tx, req.ID, req.Items)
	})
}

func (r *requestRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&Item{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&Request{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRequestNotFound
		}
		return nil
	})
}

func (r *requestRepository) EmployeeExists(ctx context.Context, employeeID uint) error {
	var count int64
	err := r.db.WithContext(ctx).Table("employees").Where("id = ?", employeeID).Count(&count).Error
	if err != nil {
		return translate(err)
	}
	if count == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *requestRepository) EmployeeForAccount(ctx context.Context, accountID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("user_id = ?", accountID).
		Limit(1).
		Pluck("id", &ids).
		Error
	if err != nil {
		return 0, translate(err)
	}
	if len(ids) == 0 {
		return 0, ErrNotAnEmployee
	}
	return ids[0], nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRequestNotFound
	default:
		return ErrUnresponsiveDatabase.WithCause(err)
	}
}
