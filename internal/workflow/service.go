package workflow

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrTypeRequired  = apperror.Validation("Workflow type is required", nil)
	ErrInvalidStatus = apperror.Validation("Invalid status. Must be Pending, Approved, or Rejected", nil)
	ErrInvalidDays   = apperror.Validation("days must be a positive integer", nil)
)

const DefaultRecentDays = 30

type CreateParams struct {
	EmployeeID uint
	Type       string
	Details    Details
	Status     Status
	Comments   string
}

// UpdateParams leaves zero-valued fields untouched.
type UpdateParams struct {
	EmployeeID uint
	Type       string
	Details    Details
	Status     Status
	Comments   *string
}

type WorkflowService interface {
	CreateWorkflow(ctx context.Context, params CreateParams) (*Workflow, error)
	ReadAllWorkflows(ctx context.Context) ([]Workflow, error)
	ReadWorkflowByID(ctx context.Context, id uint) (*Workflow, error)
	ReadEmployeeWorkflows(ctx context.Context, employeeID uint) ([]Workflow, error)
	UpdateWorkflow(ctx context.Context, id uint, params UpdateParams) (*Workflow, error)
	UpdateStatus(ctx context.Context, id uint, status Status, comments string) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, id uint) error
	// CreateOnboarding is idempotent per employee. The bool reports whether a
	// new workflow was stored.
	CreateOnboarding(ctx context.Context, employeeID uint, details Details, comments string) (*Workflow, bool, error)
	RecentOnboardings(ctx context.Context, days int) ([]RecentOnboarding, error)
}

type workflowService struct {
	repo   WorkflowRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewWorkflowService(repo WorkflowRepository, logger *zap.Logger) WorkflowService {
	return &workflowService{repo: repo, logger: logger, now: time.Now}
}

func (s *workflowService) CreateWorkflow(ctx context.Context, params CreateParams) (*Workflow, error) {
	params.Type = strings.TrimSpace(params.Type)
	if params.Type == "" {
		return nil, ErrTypeRequired
	}
	if params.Status == "" {
		params.Status = Pending
	}
	if !params.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.repo.EmployeeDepartment(ctx, params.EmployeeID); err != nil {
		return nil, err
	}
	if params.Details == nil {
		params.Details = Details{}
	}

	w := &Workflow{
		EmployeeID: params.EmployeeID,
		Type:       params.Type,
		Details:    params.Details,
		Status:     params.Status,
		Comments:   params.Comments,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		s.logger.Error("failed to create workflow", zap.Uint("employeeId", params.EmployeeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("workflow created", zap.Uint("id", w.ID), zap.String("type", w.Type))
	return s.repo.ReadByID(ctx, w.ID)
}

func (s *workflowService) ReadAllWorkflows(ctx context.Context) ([]Workflow, error) {
	return s.repo.ReadAll(ctx)
}

func (s *workflowService) ReadWorkflowByID(ctx context.Context, id uint) (*Workflow, error) {
	return s.repo.ReadByID(ctx, id)
}

func (s *workflowService) ReadEmployeeWorkflows(ctx context.Context, employeeID uint) ([]Workflow, error) {
	if _, err := s.repo.EmployeeDepartment(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.ReadByEmployee(ctx, employeeID)
}

func (s *workflowService) UpdateWorkflow(ctx context.Context, id uint, params UpdateParams) (*Workflow, error) {
	w, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.EmployeeID != 0 && params.EmployeeID != w.EmployeeID {
		if _, err := s.repo.EmployeeDepartment(ctx, params.EmployeeID); err != nil {
			return nil, err
		}
		w.EmployeeID = params.EmployeeID
	}
	if t := strings.TrimSpace(params.Type); t != "" {
		w.Type = t
	}
	if params.Details != nil {
		w.Details = params.Details
	}
	if params.Status != "" {
		if !params.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		w.Status = params.Status
	}
	if params.Comments != nil {
		w.Comments = *params.Comments
	}
	return s.save(ctx, w)
}

func (s *workflowService) UpdateStatus(ctx context.Context, id uint, status Status, comments string) (*Workflow, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	w, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Status = status
	if comments != "" {
		w.Comments = comments
	}
	return s.save(ctx, w)
}

func (s *workflowService) save(ctx context.Context, w *Workflow) (*Workflow, error) {
	now := s.now().UTC()
	w.Updated = &now
	if err := s.repo.Update(ctx, w); err != nil {
		s.logger.Error("failed to update workflow", zap.Uint("id", w.ID), zap.Error(err))
		return nil, err
	}
	return s.repo.ReadByID(ctx, w.ID)
}

func (s *workflowService) DeleteWorkflow(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("workflow deleted", zap.Uint("id", id))
	return nil
}

func (s *workflowService) CreateOnboarding(ctx context.Context, employeeID uint, details Details, comments string) (*Workflow, bool, error) {
	department, err := s.repo.EmployeeDepartment(ctx, employeeID)
	if err != nil {
		return nil, false, err
	}
	name := UnknownDepartment
	if department != nil {
		name = *department
	}

	w, created, err := s.repo.CreateOnboarding(ctx, NewOnboarding(employeeID, name, details, comments))
	if err != nil {
		s.logger.Error("failed to create onboarding workflow", zap.Uint("employeeId", employeeID), zap.Error(err))
		return nil, false, err
	}
	if !created {
		s.logger.Info("employee already has an onboarding workflow", zap.Uint("employeeId", employeeID))
	}
	w, err = s.repo.ReadByID(ctx, w.ID)
	if err != nil {
		return nil, false, err
	}
	return w, created, nil
}

func (s *workflowService) RecentOnboardings(ctx context.Context, days int) ([]RecentOnboarding, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	workflows, err := s.repo.ReadOnboardingsSince(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]RecentOnboarding, 0, len(workflows))
	for _, w := range workflows {
		out = append(out, newRecentOnboarding(w))
	}
	return out, nil
}
