package request

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

var (
	ErrItemsRequired         = apperror.Validation("At least one request item is required", nil)
	ErrItemNameRequired      = apperror.Validation("Request item name is required", nil)
	ErrInvalidQuantity       = apperror.Validation("Request item quantity must be positive", nil)
	ErrInvalidStatus         = apperror.Validation("Invalid status. Must be Pending, Approved, Rejected, or Completed", nil)
	ErrAccessDenied          = apperror.Forbidden("You do not have permission to access this request")
	ErrEmployeeAccessDenied  = apperror.Forbidden("You do not have permission to access these requests")
	ErrUpdateDenied          = apperror.Forbidden("You do not have permission to update this request")
	ErrCreateDenied          = apperror.Forbidden("You can only create requests for yourself")
	ErrStatusChangeForbidden = apperror.Forbidden("Only admins can change request status")
)

type CreateParams struct {
	// EmployeeID falls back to the caller's employee when zero.
	EmployeeID  uint
	Type        string
	Description string
	Items       []Item
}

// UpdateParams leaves zero-valued fields untouched. A non-nil Items replaces
// every item of the request.
type UpdateParams struct {
	EmployeeID  uint
	Type        string
	Description *string
	Status      Status
	Comments    *string
	Items       []Item
}

type RequestService interface {
	CreateRequest(ctx context.Context, actor Actor, params CreateParams) (*Request, error)
	ReadAllRequests(ctx context.Context) ([]Request, error)
	ReadRequest(ctx context.Context, actor Actor, id uint) (*Request, error)
	ReadEmployeeRequests(ctx context.Context, actor Actor, employeeID uint) ([]Request, error)
	UpdateRequest(ctx context.Context, actor Actor, id uint, params UpdateParams) (*Request, error)
	DeleteRequest(ctx context.Context, id uint) error
}

type requestService struct {
	repo   RequestRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewRequestService(repo RequestRepository, logger *zap.Logger) RequestService {
	return &requestService{repo: repo, logger: logger, now: time.Now}
}

func (s *requestService) CreateRequest(ctx context.Context, actor Actor, params CreateParams) (*Request, error) {
	employeeID, err := s.resolveEmployee(ctx, actor, params.EmployeeID)
	if err != nil {
		return nil, err
	}
	items, err := normalizeItems(params.Items)
	if err != nil {
		return nil, err
	}
	kind := strings.TrimSpace(params.Type)
	if kind == "" {
		kind = DefaultType
	}

	req := &Request{
		EmployeeID:  employeeID,
		Type:        kind,
		Description: params.Description,
		Status:      Pending,
		Items:       items,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create request", zap.Uint("employeeId", employeeID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("request created",
		zap.Uint("id", req.ID),
		zap.Uint("employeeId", employeeID),
		zap.Int("items", len(items)))
	return s.repo.ReadByID(ctx, req.ID)
}

func (s *requestService) resolveEmployee(ctx context.Context, actor Actor, employeeID uint) (uint, error) {
	if employeeID == 0 {
		return s.repo.EmployeeForAccount(ctx, actor.AccountID)
	}
	if err := s.repo.EmployeeExists(ctx, employeeID); err != nil {
		return 0, err
	}
	if actor.Admin {
		return employeeID, nil
	}
	own, err := s.repo.EmployeeForAccount(ctx, actor.AccountID)
	if err != nil || own != employeeID {
		return 0, ErrCreateDenied
	}
	return employeeID, nil
}

func normalizeItems(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, ErrItemsRequired
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, ErrItemNameRequired
		}
		switch {
		case item.Quantity == 0:
			item.Quantity = 1
		case item.Quantity < 0:
			return nil, ErrInvalidQuantity
		}
		out = append(out, Item{Name: item.Name, Quantity: item.Quantity, Description: item.Description})
	}
	return out, nil
}

func (s *requestService) ReadAllRequests(ctx context.Context) ([]Request, error) {
	return s.repo.ReadAll(ctx)
}

func (s *requestService) ReadRequest(ctx context.Context, actor Actor, id uint) (*Request, error) {
	req, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.owns(ctx, actor, req.EmployeeID) {
		return nil, ErrAccessDenied
	}
	return req, nil
}

func (s *requestService) ReadEmployeeRequests(ctx context.Context, actor Actor, employeeID uint) ([]Request, error) {
	if !s.owns(ctx, actor, employeeID) {
		return nil, ErrEmployeeAccessDenied
	}
	if err := s.repo.EmployeeExists(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.ReadByEmployee(ctx, employeeID)
}

// owns is true for admins and for the account linked to employeeID.
func (s *requestService) owns(ctx context.Context, actor Actor, employeeID uint) bool {
	if actor.Admin {
		return true
	}
	own, err := s.repo.EmployeeForAccount(ctx, actor.AccountID)
	if err != nil {
		if !errors.Is(err, ErrNotAnEmployee) {
			s.logger.Warn("could not resolve caller's employee", zap.Uint("accountId", actor.AccountID), zap.Error(err))
		}
		return false
	}
	return own == employeeID
}

func (s *requestService) UpdateRequest(ctx context.Context, actor Actor, id uint, params UpdateParams) (*Request, error) {
	req, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.owns(ctx, actor, req.EmployeeID) {
		return nil, ErrUpdateDenied
	}

	if params.Status != "" {
		if !params.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if !actor.Admin && params.Status != Pending && params.Status != req.Status {
			return nil, ErrStatusChangeForbidden
		}
		if params.Status != req.Status && params.Status.decided() {
			approver := actor.AccountID
			req.ApproverID = &approver
		}
		req.Status = params.Status
	}
	if params.EmployeeID != 0 && params.EmployeeID != req.EmployeeID {
		if !actor.Admin {
			return nil, ErrUpdateDenied
		}
		if err := s.repo.EmployeeExists(ctx, params.EmployeeID); err != nil {
			return nil, err
		}
		req.EmployeeID = params.EmployeeID
	}
	if t := strings.TrimSpace(params.Type); t != "" {
		req.Type = t
	}
	if params.Description != nil {
		req.Description = *params.Description
	}
	if params.Comments != nil {
		req.Comments = *params.Comments
	}

	replaceItems := params.Items != nil
	if replaceItems {
		if req.Items, err = normalizeItems(params.Items); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	req.Updated = &now
	if err := s.repo.Update(ctx, req, replaceItems); err != nil {
		s.logger.Error("failed to update request", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("request updated", zap.Uint("id", id), zap.String("status", string(req.Status)))
	return s.repo.ReadByID(ctx, id)
}

func (s *requestService) DeleteRequest(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("request deleted", zap.Uint("id", id))
	return nil
}
