package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/department"
	"github.com/phloxxx/user-management-system/internal/mocks"
	"github.com/phloxxx/user-management-system/internal/utils/testdb"
)

type fixture struct {
	db  *gorm.DB
	svc *workflowService
}

// newFixture seeds an engineer in Engineering (employee 1) and an employee
// without a department or account (employee 2).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t, &Workflow{}, &department.Department{}, &account.Account{})
	require.NoError(t, db.Exec(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		employee_id TEXT,
		user_id INTEGER,
		position TEXT,
		department_id INTEGER
	)`).Error)

	dept := &department.Department{Name: "Engineering", Description: "Builds"}
	require.NoError(t, db.Create(dept).Error)
	acc := &account.Account{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: account.User}
	require.NoError(t, db.Create(acc).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO employees (id, employee_id, user_id, position, department_id) VALUES (1, 'EMP001', ?, 'Engineer', ?), (2, 'EMP002', NULL, 'Intern', NULL)",
		acc.ID, dept.ID,
	).Error)

	svc := NewWorkflowService(NewWorkflowRepository(db), zap.NewNop()).(*workflowService)
	return &fixture{db: db, svc: svc}
}

func TestNewOnboardingDefaults(t *testing.T) {
	w := NewOnboarding(7, "Sales", nil, "")
	assert.Equal(t, TypeOnboarding, w.Type)
	assert.Equal(t, Pending, w.Status)
	assert.Equal(t, DefaultOnboardingComments, w.Comments)
	assert.Equal(t, "Sales", w.Details["department"])

	steps, ok := w.Details["steps"].([]Step)
	require.True(t, ok)
	require.Len(t, steps, 4)
	assert.Equal(t, "Sales Orientation", steps[3].Name)

	custom := NewOnboarding(7, "", Details{"steps": []Step{{Name: "Badge"}}}, "by hand")
	assert.Equal(t, UnknownDepartment, custom.Details["department"])
	assert.Equal(t, []Step{{Name: "Badge"}}, custom.Details["steps"])
	assert.Equal(t, "by hand", custom.Comments)
}

func TestCreateAndReadWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.svc.CreateWorkflow(ctx, CreateParams{EmployeeID: 1, Type: "Leave", Details: Details{"days": 3}})
	require.NoError(t, err)
	assert.Equal(t, Pending, w.Status)
	require.NotNil(t, w.DepartmentName)
	assert.Equal(t, "Engineering", *w.DepartmentName)
	require.NotNil(t, w.EmployeeCode)
	assert.Equal(t, "EMP001", *w.EmployeeCode)
	assert.EqualValues(t, 3, w.Details["days"])

	_, err = f.svc.CreateWorkflow(ctx, CreateParams{EmployeeID: 99, Type: "Leave"})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = f.svc.CreateWorkflow(ctx, CreateParams{EmployeeID: 1, Type: "Leave", Status: "Done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	list, err := f.svc.ReadEmployeeWorkflows(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ReadEmployeeWorkflows(ctx, 99)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestUpdateWorkflowStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.svc.CreateWorkflow(ctx, CreateParams{EmployeeID: 1, Type: "Leave", Comments: "first"})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, w.ID, "Finished", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := f.svc.UpdateStatus(ctx, w.ID, Approved, "")
	require.NoError(t, err)
	assert.Equal(t, Approved, got.Status)
	assert.Equal(t, "first", got.Comments)
	assert.NotNil(t, got.Updated)

	_, err = f.svc.UpdateStatus(ctx, 404, Approved, "")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestUpdateWorkflowKeepsUnsetFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w, err := f.svc.CreateWorkflow(ctx, CreateParams{EmployeeID: 1, Type: "Leave", Details: Details{"days": 2}})
	require.NoError(t, err)

	comments := "moved"
	got, err := f.svc.UpdateWorkflow(ctx, w.ID, UpdateParams{EmployeeID: 2, Comments: &comments})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.EmployeeID)
	assert.Equal(t, "Leave", got.Type)
	assert.EqualValues(t, 2, got.Details["days"])
	assert.Equal(t, "moved", got.Comments)
	assert.Nil(t, got.DepartmentName)

	_, err = f.svc.UpdateWorkflow(ctx, w.ID, UpdateParams{EmployeeID: 42})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestCreateOnboardingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.svc.CreateOnboarding(ctx, 1, nil, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Engineering", first.Details["department"])

	second, created, err := f.svc.CreateOnboarding(ctx, 1, nil, "again")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, DefaultOnboardingComments, second.Comments)

	var count int64
	require.NoError(t, f.db.Model(&Workflow{}).Where("employee_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	orphan, _, err := f.svc.CreateOnboarding(ctx, 2, nil, "")
	require.NoError(t, err)
	assert.Equal(t, UnknownDepartment, orphan.Details["department"])

	steps, ok := orphan.Details["steps"].([]any)
	require.True(t, ok)
	last := steps[len(steps)-1].(map[string]any)
	assert.Equal(t, "Unknown Department Orientation", last["name"])
}

func TestRecentOnboardings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	recent, _, err := f.svc.CreateOnboarding(ctx, 1, nil, "")
	require.NoError(t, err)
	old, _, err := f.svc.CreateOnboarding(ctx, 2, nil, "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&Workflow{}).Where("id = ?", recent.ID).Update("created_date", now.AddDate(0, 0, -2)).Error)
	require.NoError(t, f.db.Model(&Workflow{}).Where("id = ?", old.ID).Update("created_date", now.AddDate(0, 0, -40)).Error)

	got, err := f.svc.RecentOnboardings(ctx, DefaultRecentDays)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada Lovelace", got[0].EmployeeName)
	assert.Equal(t, "Engineering", got[0].DepartmentName)
	assert.Equal(t, "ada@example.com", got[0].Email)

	got, err = f.svc.RecentOnboardings(ctx, 60)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Unknown", got[1].EmployeeName)
	assert.Equal(t, "No Department", got[1].DepartmentName)
	assert.Equal(t, "No Email", got[1].Email)

	_, err = f.svc.RecentOnboardings(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestWorkflowHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	r.Use(apperror.Middleware(zap.NewNop(), false))
	NewWorkflowHandler(&r.RouterGroup, f.svc, mocks.Authorize, zap.NewNop())

	tests := []struct {
		name    string
		method  string
		path    string
		role    account.Role
		body    any
		status  int
		message string
	}{
		{"anonymous", http.MethodGet, "/workflows", "", nil, http.StatusUnauthorized, "Unauthorized"},
		{"user cannot create", http.MethodPost, "/workflows", account.User, gin.H{"employeeId": 1, "type": "Leave"}, http.StatusForbidden, "Forbidden"},
		{"admin creates", http.MethodPost, "/workflows", account.Admin, gin.H{"employeeId": 1, "type": "Leave"}, http.StatusCreated, ""},
		{"missing type", http.MethodPost, "/workflows", account.Admin, gin.H{"employeeId": 1}, http.StatusBadRequest, "Validation error: type is required"},
		{"unknown employee", http.MethodPost, "/workflows", account.Admin, gin.H{"employeeId": 9, "type": "Leave"}, http.StatusNotFound, "Employee not found"},
		{"user lists", http.MethodGet, "/workflows", account.User, nil, http.StatusOK, ""},
		{"user reads one", http.MethodGet, "/workflows/1", account.User, nil, http.StatusOK, ""},
		{"by employee", http.MethodGet, "/workflows/employee/1", account.User, nil, http.StatusOK, ""},
		{"bad status", http.MethodPut, "/workflows/1/status", account.Admin, gin.H{"status": "Done"}, http.StatusBadRequest, "Invalid status. Must be Pending, Approved, or Rejected"},
		{"approve", http.MethodPut, "/workflows/1/status", account.Admin, gin.H{"status": "Approved"}, http.StatusOK, ""},
		{"onboarding created", http.MethodPost, "/workflows/onboarding", account.Admin, gin.H{"employeeId": 2}, http.StatusCreated, ""},
		{"onboarding exists", http.MethodPost, "/workflows/onboarding", account.Admin, gin.H{"employeeId": 2}, http.StatusOK, ""},
		{"recent onboardings", http.MethodGet, "/workflows/recent-onboardings?days=7", account.Admin, nil, http.StatusOK, ""},
		{"recent bad days", http.MethodGet, "/workflows/recent-onboardings?days=abc", account.Admin, nil, http.StatusBadRequest, "days must be a positive integer"},
		{"user cannot see recent", http.MethodGet, "/workflows/recent-onboardings", account.User, nil, http.StatusForbidden, "Forbidden"},
		{"admin deletes", http.MethodDelete, "/workflows/1", account.Admin, nil, http.StatusOK, "Workflow deleted successfully"},
		{"gone", http.MethodGet, "/workflows/1", account.User, nil, http.StatusNotFound, "Workflow not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if tt.body != nil {
				require.NoError(t, json.NewEncoder(&buf).Encode(tt.body))
			}
			req := httptest.NewRequest(tt.method, tt.path, &buf)
			req.Header.Set("Content-Type", "application/json")
			if tt.role != "" {
				req.Header.Set(mocks.HeaderAccountID, "1")
				req.Header.Set(mocks.HeaderRole, string(tt.role))
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.message, body["message"])
			}
		})
	}
}
