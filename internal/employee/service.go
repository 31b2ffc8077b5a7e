package employee

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrInvalidHireDate     = apperror.Validation("hireDate must be a date in YYYY-MM-DD format", nil)
	ErrAlreadyInDepartment = apperror.BadRequest("Employee is already in this department")
)

type CreateParams struct {
	EmployeeID   string
	UserID       uint
	Position     string
	DepartmentID uint
	HireDate     string
	Status       string
}

// UpdateParams leaves zero-valued fields untouched.
type UpdateParams CreateParams

type EmployeeService interface {
	// CreateEmployee also starts the employee's onboarding workflow.
	CreateEmployee(ctx context.Context, params CreateParams) (*Employee, error)
	ReadAllEmployees(ctx context.Context) ([]Employee, error)
	ReadEmployeeByID(ctx context.Context, id uint) (*Employee, error)
	UpdateEmployee(ctx context.Context, id uint, params UpdateParams) (*Employee, error)
	DeleteEmployee(ctx context.Context, id uint) error
	Transfer(ctx context.Context, id, departmentID uint) (*Employee, error)
}

type employeeService struct {
	repo   EmployeeRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewEmployeeService(repo EmployeeRepository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger, now: time.Now}
}

func (s *employeeService) CreateEmployee(ctx context.Context, params CreateParams) (*Employee, error) {
	hired, err := ParseHireDate(params.HireDate)
	if err != nil {
		return nil, ErrInvalidHireDate.WithCause(err)
	}
	if err := s.repo.AccountExists(ctx, params.UserID); err != nil {
		return nil, err
	}
	status := strings.TrimSpace(params.Status)
	if status == "" {
		status = StatusActive
	}
	departmentID := params.DepartmentID

	e := &Employee{
		EmployeeID:   strings.TrimSpace(params.EmployeeID),
		UserID:       params.UserID,
		Position:     strings.TrimSpace(params.Position),
		DepartmentID: &departmentID,
		HireDate:     hired,
		Status:       status,
	}
	onboarding, err := s.repo.Create(ctx, e)
	if err != nil {
		s.logger.Warn("failed to create employee", zap.String("employeeId", e.EmployeeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("employee created",
		zap.Uint("id", e.ID),
		zap.String("employeeId", e.EmployeeID),
		zap.Uint("onboardingWorkflowId", onboarding.ID))
	return s.repo.ReadByID(ctx, e.ID)
}

func (s *employeeService) ReadAllEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.ReadAll(ctx)
}

func (s *employeeService) ReadEmployeeByID(ctx context.Context, id uint) (*Employee, error) {
	return s.repo.ReadByID(ctx, id)
}

func (s *employeeService) UpdateEmployee(ctx context.Context, id uint, params UpdateParams) (*Employee, error) {
	e, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(params.EmployeeID)
	if code == e.EmployeeID {
		code = ""
	}
	userID := params.UserID
	if userID == e.UserID {
		userID = 0
	}
	if err := s.repo.CheckUnique(ctx, code, userID, e.ID); err != nil {
		return nil, err
	}
	if code != "" {
		e.EmployeeID = code
	}
	if userID != 0 {
		if err := s.repo.AccountExists(ctx, userID); err != nil {
			return nil, err
		}
		e.UserID = userID
	}
	if params.DepartmentID != 0 {
		if _, err := s.repo.DepartmentName(ctx, params.DepartmentID); err != nil {
			return nil, err
		}
		departmentID := params.DepartmentID
		e.DepartmentID = &departmentID
	}
	if p := strings.TrimSpace(params.Position); p != "" {
		e.Position = p
	}
	if params.HireDate != "" {
		if e.HireDate, err = ParseHireDate(params.HireDate); err != nil {
			return nil, ErrInvalidHireDate.WithCause(err)
		}
	}
	if st := strings.TrimSpace(params.Status); st != "" {
		e.Status = st
	}
	return s.save(ctx, e)
}

func (s *employeeService) save(ctx context.Context, e *Employee) (*Employee, error) {
	now := s.now().UTC()
	e.Updated = &now
	if err := s.repo.Update(ctx, e); err != nil {
		s.logger.Warn("failed to update employee", zap.Uint("id", e.ID), zap.Error(err))
		return nil, err
	}
	return s.repo.ReadByID(ctx, e.ID)
}

func (s *employeeService) DeleteEmployee(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("employee deleted", zap.Uint("id", id))
	return nil
}

func (s *employeeService) Transfer(ctx context.Context, id, departmentID uint) (*Employee, error) {
	if _, err := s.repo.DepartmentName(ctx, departmentID); err != nil {
		return nil, err
	}
	e, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.DepartmentID != nil && *e.DepartmentID == departmentID {
		return nil, ErrAlreadyInDepartment
	}

	from := e.DepartmentID
	e.DepartmentID = &departmentID
	e, err = s.save(ctx, e)
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{zap.Uint("id", id), zap.Uint("to", departmentID)}
	if from != nil {
		fields = append(fields, zap.Uint("from", *from))
	}
	s.logger.Info("employee transferred", fields...)
	return e, nil
}
