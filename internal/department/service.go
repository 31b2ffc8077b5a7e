package department

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrNameRequired        = apperror.Validation("Department name is required", nil)
	ErrDescriptionRequired = apperror.Validation("Department description is required", nil)
)

type DepartmentService interface {
	CreateDepartment(ctx context.Context, name, description string) (*Department, error)
	ReadAllDepartments(ctx context.Context) ([]Department, error)
	ReadDepartmentByID(ctx context.Context, id uint) (*Department, error)
	// UpdateDepartment leaves empty fields untouched.
	UpdateDepartment(ctx context.Context, id uint, name, description string) (*Department, error)
	DeleteDepartment(ctx context.Context, id uint) error
}

type departmentService struct {
	repo   DepartmentRepository
	logger *zap.Logger
}

func NewDepartmentService(repo DepartmentRepository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

func (s *departmentService) CreateDepartment(ctx context.Context, name, description string) (*Department, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return nil, ErrNameRequired
	}
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	d := &Department{Name: name, Description: description}
	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Warn("failed to create department", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("department created", zap.Uint("id", d.ID), zap.String("name", d.Name))
	return d, nil
}

func (s *departmentService) ReadAllDepartments(ctx context.Context) ([]Department, error) {
	departments, err := s.repo.ReadAll(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", zap.Error(err))
		return nil, err
	}
	return departments, nil
}

func (s *departmentService) ReadDepartmentByID(ctx context.Context, id uint) (*Department, error) {
	return s.repo.ReadByID(ctx, id)
}

func (s *departmentService) UpdateDepartment(ctx context.Context, id uint, name, description string) (*Department, error) {
	d, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		d.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		d.Description = description
	}
	now := time.Now().UTC()
	d.Updated = &now

	if err := s.repo.Update(ctx, d); err != nil {
		s.logger.Warn("failed to update department", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (s *departmentService) DeleteDepartment(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete department", zap.Uint("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("department deleted", zap.Uint("id", id))
	return nil
}
