package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

// stubAuthorize trusts the X-Account-ID header, loading that account as the
// principal.
func stubAuthorize(repo AccountRepository) AuthorizeFunc {
	return func(roles ...Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			var id uint
			if _, err := fmt.Sscan(c.GetHeader("X-Account-ID"), &id); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
			acc, err := repo.ReadByID(c.Request.Context(), id)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
			if len(roles) > 0 && acc.Role != roles[0] {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
				return
			}
			c.Set(ContextPrincipalKey, &Principal{Account: acc, OwnsToken: func(string) bool { return false }})
			c.Next()
		}
	}
}

type handlerFixture struct {
	router *gin.Engine
	svc    *accountService
	repo   AccountRepository
	admin  *Account
	user   *Account
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, registerParams("admin@example.com"), ""))
	require.NoError(t, svc.Register(ctx, registerParams("user@example.com"), ""))
	admin, err := repo.ReadByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	user, err := repo.ReadByEmail(ctx, "user@example.com")
	require.NoError(t, err)

	r := gin.New()
	r.Use(apperror.Middleware(zap.NewNop(), false))
	NewAccountHandler(&r.RouterGroup, svc, stubAuthorize(repo), zap.NewNop())
	return &handlerFixture{router: r, svc: svc, repo: repo, admin: admin, user: user}
}

func (f *handlerFixture) do(t *testing.T, method, path string, as *Account, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("X-Account-ID", fmt.Sprint(as.ID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/accounts/register", nil, gin.H{
		"title": "Dr", "firstName": "N", "lastName": "M", "email": "new@example.com",
		"password": "secret1", "confirmPassword": "secret1", "acceptTerms": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registration successful")

	// an existing email yields the same response
	w = f.do(t, http.MethodPost, "/accounts/register", nil, gin.H{
		"title": "Dr", "firstName": "N", "lastName": "M", "email": "new@example.com",
		"password": "secret1", "confirmPassword": "secret1", "acceptTerms": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registration successful")

	w = f.do(t, http.MethodPost, "/accounts/register", nil, gin.H{
		"title": "Dr", "firstName": "N", "lastName": "M", "email": "other@example.com",
		"password": "secret1", "confirmPassword": "nope", "acceptTerms": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "confirmPassword must match password")
}

func TestReadByIDOwnership(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name   string
		as     *Account
		target uint
		want   int
	}{
		{"self", f.user, f.user.ID, http.StatusOK},
		{"admin reads other", f.admin, f.user.ID, http.StatusOK},
		{"user reads other", f.user, f.admin.ID, http.StatusForbidden},
		{"anonymous", nil, f.user.ID, http.StatusUnauthorized},
		{"missing", f.admin, 9999, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, fmt.Sprintf("/accounts/%d", tt.target), tt.as, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestReadAllRequiresAdmin(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/accounts", f.user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/accounts", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
	assert.Equal(t, Admin, out[0].Role)
}

func TestUpdateRoleRequiresAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	path := fmt.Sprintf("/accounts/%d", f.user.ID)

	w := f.do(t, http.MethodPut, path, f.user, gin.H{"role": "Admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPut, path, f.user, gin.H{"firstName": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	var d Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "Renamed", d.FirstName)
	assert.Equal(t, User, d.Role)

	w = f.do(t, http.MethodPut, path, f.admin, gin.H{"role": "Admin"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, Admin, d.Role)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPut, fmt.Sprintf("/accounts/%d/status", f.admin.ID), f.admin, gin.H{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cannot change status of admin accounts")

	w = f.do(t, http.MethodPut, fmt.Sprintf("/accounts/%d/status", f.user.ID), f.admin, gin.H{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	var d Details
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.False(t, d.IsActive)

	w = f.do(t, http.MethodPut, fmt.Sprintf("/accounts/%d/status", f.user.ID), f.admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSelf(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodDelete, fmt.Sprintf("/accounts/%d", f.admin.ID), f.user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/accounts/%d", f.user.ID), f.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Account deleted successfully")
}

func TestInvalidID(t *testing.T) {
	f := newHandlerFixture(t)
	w := f.do(t, http.MethodGet, "/accounts/abc", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
