package employee

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
	"github.com/phloxxx/user-management-system/internal/request"
	"github.com/phloxxx/user-management-system/internal/utils/testdb"
	"github.com/phloxxx/user-management-system/internal/workflow"
)

type fixture struct {
	db          *gorm.DB
	svc         EmployeeService
	engineering *department.Department
	sales       *department.Department
	ada         *account.Account
	grace       *account.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t,
		&account.Account{},
		&department.Department{},
		&Employee{},
		&workflow.Workflow{},
		&request.Request{},
		&request.Item{},
	)
	f := &fixture{
		db:          db,
		svc:         NewEmployeeService(NewEmployeeRepository(db), zap.NewNop()),
		engineering: &department.Department{Name: "Engineering", Description: "Builds"},
		sales:       &department.Department{Name: "Sales", Description: "Sells"},
		ada:         &account.Account{Email: "ada@example.com", FirstName: "Ada", Role: account.User},
		grace:       &account.Account{Email: "grace@example.com", FirstName: "Grace", Role: account.User},
	}
	for _, v := range []any{f.engineering, f.sales, f.ada, f.grace} {
		require.NoError(t, db.Create(v).Error)
	}
	return f
}

func (f *fixture) hire(t *testing.T, code string, acc *account.Account) *Employee {
	t.Helper()
	e, err := f.svc.CreateEmployee(context.Background(), CreateParams{
		EmployeeID:   code,
		UserID:       acc.ID,
		Position:     "Engineer",
		DepartmentID: f.engineering.ID,
		HireDate:     "2026-01-15",
	})
	require.NoError(t, err)
	return e
}

func TestCreateEmployeeStartsOnboarding(t *testing.T) {
	f := newFixture(t)
	e := f.hire(t, "EMP001", f.ada)

	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), e.HireDate.UTC())
	require.NotNil(t, e.DepartmentName)
	assert.Equal(t, "Engineering", *e.DepartmentName)
	require.NotNil(t, e.UserEmail)
	assert.Equal(t, "ada@example.com", *e.UserEmail)

	var workflows []workflow.Workflow
	require.NoError(t, f.db.Where("employee_id = ?", e.ID).Find(&workflows).Error)
	require.Len(t, workflows, 1)
	assert.Equal(t, workflow.TypeOnboarding, workflows[0].Type)
	assert.Equal(t, "Engineering", workflows[0].Details["department"])

	steps, ok := workflows[0].Details["steps"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 4)
	assert.Equal(t, "Engineering Orientation", steps[3].(map[string]any)["name"])
}

func TestCreateEmployeeRejections(t *testing.T) {
	f := newFixture(t)
	f.hire(t, "EMP001", f.ada)
	ctx := context.Background()

	tests := []struct {
		name   string
		params CreateParams
		want   error
	}{
		{"duplicate code", CreateParams{EmployeeID: "EMP001", UserID: f.grace.ID, Position: "QA", DepartmentID: f.sales.ID, HireDate: "2026-02-01"}, ErrEmployeeIDExists},
		{"account already hired", CreateParams{EmployeeID: "EMP002", UserID: f.ada.ID, Position: "QA", DepartmentID: f.sales.ID, HireDate: "2026-02-01"}, ErrUserAlreadyEmployee},
		{"unknown department", CreateParams{EmployeeID: "EMP002", UserID: f.grace.ID, Position: "QA", DepartmentID: 99, HireDate: "2026-02-01"}, department.ErrDepartmentNotFound},
		{"unknown account", CreateParams{EmployeeID: "EMP002", UserID: 99, Position: "QA", DepartmentID: f.sales.ID, HireDate: "2026-02-01"}, account.ErrAccountNotFound},
		{"bad hire date", CreateParams{EmployeeID: "EMP002", UserID: f.grace.ID, Position: "QA", DepartmentID: f.sales.ID, HireDate: "yesterday"}, ErrInvalidHireDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateEmployee(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var employees, workflows int64
	require.NoError(t, f.db.Model(&Employee{}).Count(&employees).Error)
	require.NoError(t, f.db.Model(&workflow.Workflow{}).Count(&workflows).Error)
	assert.EqualValues(t, 1, employees)
	assert.EqualValues(t, 1, workflows)
}

func TestUpdateEmployee(t *testing.T) {
	f := newFixture(t)
	ada := f.hire(t, "EMP001", f.ada)
	grace := f.hire(t, "EMP002", f.grace)
	ctx := context.Background()

	_, err := f.svc.UpdateEmployee(ctx, grace.ID, UpdateParams{EmployeeID: "EMP001"})
	assert.ErrorIs(t, err, ErrEmployeeIDExists)
	_, err = f.svc.UpdateEmployee(ctx, grace.ID, UpdateParams{UserID: f.ada.ID})
	assert.ErrorIs(t, err, ErrUserAlreadyEmployee)

	got, err := f.svc.UpdateEmployee(ctx, ada.ID, UpdateParams{EmployeeID: "EMP001", Position: "Lead", Status: "On Leave"})
	require.NoError(t, err)
	assert.Equal(t, "Lead", got.Position)
	assert.Equal(t, "On Leave", got.Status)
	assert.Equal(t, "EMP001", got.EmployeeID)
	assert.NotNil(t, got.Updated)

	_, err = f.svc.UpdateEmployee(ctx, 404, UpdateParams{Position: "Ghost"})
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestTransferEmployee(t *testing.T) {
	f := newFixture(t)
	e := f.hire(t, "EMP001", f.ada)
	ctx := context.Background()

	_, err := f.svc.Transfer(ctx, e.ID, f.engineering.ID)
	assert.ErrorIs(t, err, ErrAlreadyInDepartment)
	_, err = f.svc.Transfer(ctx, e.ID, 99)
	assert.ErrorIs(t, err, department.ErrDepartmentNotFound)

	moved, err := f.svc.Transfer(ctx, e.ID, f.sales.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.DepartmentName)
	assert.Equal(t, "Sales", *moved.DepartmentName)
}

func TestDeleteEmployeeCascades(t *testing.T) {
	f := newFixture(t)
	e := f.hire(t, "EMP001", f.ada)
	ctx := context.Background()

	req := &request.Request{EmployeeID: e.ID, Type: "Equipment", Status: request.Pending}
	require.NoError(t, f.db.Create(req).Error)
	require.NoError(t, f.db.Create(&request.Item{RequestID: req.ID, Name: "Laptop", Quantity: 1}).Error)

	require.NoError(t, f.svc.DeleteEmployee(ctx, e.ID))
	assert.ErrorIs(t, f.svc.DeleteEmployee(ctx, e.ID), ErrEmployeeNotFound)

	for _, model := range []any{&workflow.Workflow{}, &request.Request{}, &request.Item{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
}

func TestEmployeeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	r.Use(apperror.Middleware(zap.NewNop(), false))
	NewEmployeeHandler(&r.RouterGroup, f.svc, mocks.Authorize, zap.NewNop())

	hire := gin.H{
		"employeeId":   "EMP001",
		"userId":       f.ada.ID,
		"position":     "Engineer",
		"departmentId": f.engineering.ID,
		"hireDate":     "2026-01-15",
	}
	tests := []struct {
		name    string
		method  string
		path    string
		role    account.Role
		body    any
		status  int
		message string
	}{
		{"user cannot hire", http.MethodPost, "/employees", account.User, hire, http.StatusForbidden, "Forbidden"},
		{"admin hires", http.MethodPost, "/employees", account.Admin, hire, http.StatusCreated, ""},
		{"duplicate", http.MethodPost, "/employees", account.Admin, hire, http.StatusBadRequest, "Employee with this ID already exists"},
		{"missing position", http.MethodPost, "/employees", account.Admin, gin.H{"employeeId": "EMP9", "userId": 2, "departmentId": 1, "hireDate": "2026-01-01"}, http.StatusBadRequest, "Validation error: position is required"},
		{"user lists", http.MethodGet, "/employees", account.User, nil, http.StatusOK, ""},
		{"user reads", http.MethodGet, "/employees/1", account.User, nil, http.StatusOK, ""},
		{"unknown", http.MethodGet, "/employees/9", account.User, nil, http.StatusNotFound, "Employee not found"},
		{"same department", http.MethodPost, "/employees/1/transfer", account.Admin, gin.H{"departmentId": f.engineering.ID}, http.StatusBadRequest, "Employee is already in this department"},
		{"transfer", http.MethodPost, "/employees/1/transfer", account.Admin, gin.H{"departmentId": f.sales.ID}, http.StatusOK, "Employee transferred successfully"},
		{"admin updates", http.MethodPut, "/employees/1", account.Admin, gin.H{"position": "Lead"}, http.StatusOK, ""},
		{"admin deletes", http.MethodDelete, "/employees/1", account.Admin, nil, http.StatusOK, "Employee deleted successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if tt.body != nil {
				require.NoError(t, json.NewEncoder(&buf).Encode(tt.body))
			}
			req := httptest.NewRequest(tt.method, tt.path, &buf)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(mocks.HeaderAccountID, "1")
			req.Header.Set(mocks.HeaderRole, string(tt.role))
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
