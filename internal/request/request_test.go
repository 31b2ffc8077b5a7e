package request

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/mocks"
	"github.com/phloxxx/user-management-system/internal/utils/testdb"
)

var (
	admin    = Actor{AccountID: 1, Admin: true}
	alice    = Actor{AccountID: 2} // employee 1
	bob      = Actor{AccountID: 3} // employee 2
	stranger = Actor{AccountID: 4} // no employee record
)

func newTestService(t *testing.T) (*requestService, *gorm.DB) {
	t.Helper()
	db := testdb.New(t, &Request{}, &Item{}, &account.Account{})
	require.NoError(t, db.Exec(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		employee_id TEXT,
		user_id INTEGER
	)`).Error)
	for i, email := range []string{"admin@example.com", "alice@example.com", "bob@example.com", "eve@example.com"} {
		acc := &account.Account{Email: email, Role: account.User}
		if i == 0 {
			acc.Role = account.Admin
		}
		require.NoError(t, db.Create(acc).Error)
	}
	require.NoError(t, db.Exec(
		"INSERT INTO employees (id, employee_id, user_id) VALUES (1, 'EMP001', 2), (2, 'EMP002', 3)",
	).Error)

	svc := NewRequestService(NewRequestRepository(db), zap.NewNop()).(*requestService)
	return svc, db
}

func laptop() []Item {
	return []Item{{Name: "Laptop"}, {Name: "Mouse", Quantity: 2, Description: "wireless"}}
}

func TestCreateRequestResolvesCallerEmployee(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, alice, CreateParams{Type: "Equipment", Items: laptop()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, req.EmployeeID)
	assert.Equal(t, Pending, req.Status)
	require.Len(t, req.Items, 2)
	assert.Equal(t, 1, req.Items[0].Quantity)
	assert.Equal(t, 2, req.Items[1].Quantity)
	require.NotNil(t, req.UserEmail)
	assert.Equal(t, "alice@example.com", *req.UserEmail)

	generic, err := svc.CreateRequest(ctx, admin, CreateParams{EmployeeID: 2, Items: laptop()})
	require.NoError(t, err)
	assert.Equal(t, DefaultType, generic.Type)
	assert.EqualValues(t, 2, generic.EmployeeID)
}

func TestCreateRequestRejections(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  Actor
		params CreateParams
		want   error
	}{
		{"no employee record", stranger, CreateParams{Items: laptop()}, ErrNotAnEmployee},
		{"unknown employee", admin, CreateParams{EmployeeID: 9, Items: laptop()}, ErrEmployeeNotFound},
		{"no items", alice, CreateParams{}, ErrItemsRequired},
		{"negative quantity", alice, CreateParams{Items: []Item{{Name: "Desk", Quantity: -1}}}, ErrInvalidQuantity},
		{"blank item name", alice, CreateParams{Items: []Item{{Name: " "}}}, ErrItemNameRequired},
		{"other employee", alice, CreateParams{EmployeeID: 2, Items: laptop()}, ErrCreateDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRequest(ctx, tt.actor, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, db.Model(&Request{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReadRequestAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, alice, CreateParams{Items: laptop()})
	require.NoError(t, err)

	_, err = svc.ReadRequest(ctx, alice, req.ID)
	assert.NoError(t, err)
	_, err = svc.ReadRequest(ctx, admin, req.ID)
	assert.NoError(t, err)
	_, err = svc.ReadRequest(ctx, bob, req.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.ReadRequest(ctx, stranger, req.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.ReadRequest(ctx, admin, 77)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	list, err := svc.ReadEmployeeRequests(ctx, alice, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.ReadEmployeeRequests(ctx, bob, 1)
	assert.ErrorIs(t, err, ErrEmployeeAccessDenied)
	_, err = svc.ReadEmployeeRequests(ctx, admin, 9)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestUpdateRequestStatusRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, alice, CreateParams{Items: laptop()})
	require.NoError(t, err)

	_, err = svc.UpdateRequest(ctx, alice, req.ID, UpdateParams{Status: Approved})
	assert.ErrorIs(t, err, ErrStatusChangeForbidden)

	_, err = svc.UpdateRequest(ctx, bob, req.ID, UpdateParams{Type: "Other"})
	assert.ErrorIs(t, err, ErrUpdateDenied)

	same, err := svc.UpdateRequest(ctx, alice, req.ID, UpdateParams{Status: Pending, Type: "Hardware"})
	require.NoError(t, err)
	assert.Equal(t, "Hardware", same.Type)
	assert.Nil(t, same.ApproverID)

	_, err = svc.UpdateRequest(ctx, admin, req.ID, UpdateParams{Status: "Shipped"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	approved, err := svc.UpdateRequest(ctx, admin, req.ID, UpdateParams{Status: Approved})
	require.NoError(t, err)
	assert.Equal(t, Approved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.EqualValues(t, admin.AccountID, *approved.ApproverID)
	require.NotNil(t, approved.ApproverEmail)
	assert.Equal(t, "admin@example.com", *approved.ApproverEmail)
	assert.NotNil(t, approved.Updated)
	assert.Len(t, approved.Items, 2)
}

func TestUpdateRequestReplacesItems(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, alice, CreateParams{Items: laptop()})
	require.NoError(t, err)

	_, err = svc.UpdateRequest(ctx, alice, req.ID, UpdateParams{Items: []Item{}})
	assert.ErrorIs(t, err, ErrItemsRequired)

	got, err := svc.UpdateRequest(ctx, alice, req.ID, UpdateParams{Items: []Item{{Name: "Monitor", Quantity: 3}}})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Monitor", got.Items[0].Name)

	var count int64
	require.NoError(t, db.Model(&Item{}).Where("request_id = ?", req.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteRequestRemovesItems(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, alice, CreateParams{Items: laptop()})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRequest(ctx, req.ID))
	assert.ErrorIs(t, svc.DeleteRequest(ctx, req.ID), ErrRequestNotFound)

	var count int64
	require.NoError(t, db.Model(&Item{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	r := gin.New()
	r.Use(apperror.Middleware(zap.NewNop(), false))
	NewRequestHandler(&r.RouterGroup, svc, mocks.Authorize, zap.NewNop())

	items := []gin.H{{"name": "Laptop", "quantity": 1}}
	tests := []struct {
		name    string
		method  string
		path    string
		as      Actor
		body    any
		status  int
		message string
	}{
		{"anonymous", http.MethodPost, "/requests", Actor{}, gin.H{"requestItems": items}, http.StatusUnauthorized, "Unauthorized"},
		{"user creates", http.MethodPost, "/requests", alice, gin.H{"type": "Equipment", "requestItems": items}, http.StatusCreated, ""},
		{"no items", http.MethodPost, "/requests", alice, gin.H{"type": "Equipment"}, http.StatusBadRequest, "At least one request item is required"},
		{"not an employee", http.MethodPost, "/requests", stranger, gin.H{"requestItems": items}, http.StatusBadRequest, "User is not registered as an employee"},
		{"user cannot list all", http.MethodGet, "/requests", alice, nil, http.StatusForbidden, "Forbidden"},
		{"admin lists", http.MethodGet, "/requests", admin, nil, http.StatusOK, ""},
		{"owner reads", http.MethodGet, "/requests/1", alice, nil, http.StatusOK, ""},
		{"other reads", http.MethodGet, "/requests/1", bob, nil, http.StatusForbidden, "You do not have permission to access this request"},
		{"own employee list", http.MethodGet, "/requests/employee/1", alice, nil, http.StatusOK, ""},
		{"other employee list", http.MethodGet, "/requests/employee/1", bob, nil, http.StatusForbidden, "You do not have permission to access these requests"},
		{"owner approves", http.MethodPut, "/requests/1", alice, gin.H{"status": "Approved"}, http.StatusForbidden, "Only admins can change request status"},
		{"admin rejects", http.MethodPut, "/requests/1", admin, gin.H{"status": "Rejected", "comments": "budget"}, http.StatusOK, ""},
		{"user cannot delete", http.MethodDelete, "/requests/1", alice, nil, http.StatusForbidden, "Forbidden"},
		{"admin deletes", http.MethodDelete, "/requests/1", admin, nil, http.StatusOK, "Request deleted successfully"},
		{"gone", http.MethodGet, "/requests/1", admin, nil, http.StatusNotFound, "Request not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if tt.body != nil {
				require.NoError(t, json.NewEncoder(&buf).Encode(tt.body))
			}
			req := httptest.NewRequest(tt.method, tt.path, &buf)
			req.Header.Set("Content-Type", "application/json")
			if tt.as.AccountID != 0 {
				req.Header.Set(mocks.HeaderAccountID, strconv.FormatUint(uint64(tt.as.AccountID), 10))
				role := account.User
				if tt.as.Admin {
					role = account.Admin
				}
				req.Header.Set(mocks.HeaderRole, string(role))
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
