package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/phloxxx/user-management-system/internal/mocks"
	"github.com/phloxxx/user-management-system/internal/utils"
	"github.com/phloxxx/user-management-system/internal/utils/testdb"
)

func testConfig(rate float64) *utils.Config {
	return &utils.Config{
		Env: utils.EnvDevelopment,
		Server: &utils.ServerConfig{
			CORSOrigins:        []string{"http://localhost:4200"},
			RateLimitPerSecond: rate,
		},
		Token: &utils.TokenConfig{
			Secret:          "server-test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			ResetTokenTTL:   24 * time.Hour,
		},
	}
}

type harness struct {
	router http.Handler
	inbox  *mocks.Inbox
}

func newHarness(t *testing.T, rate float64) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testdb.New(t, Models()...)
	inbox := &mocks.Inbox{}
	return &harness{router: NewRouter(testConfig(rate), db, inbox, zaptest.NewLogger(t)), inbox: inbox}
}

func (h *harness) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (h *harness) signUp(t *testing.T, email string) string {
	t.Helper()
	w, _ := h.do(t, http.MethodPost, "/accounts/register", "", gin.H{
		"title": "Ms", "firstName": "Test", "lastName": "Person", "email": email,
		"password": "secret123", "confirmPassword": "secret123", "acceptTerms": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := h.inbox.LastToken(email)
	require.NotEmpty(t, token)
	w, _ = h.do(t, http.MethodPost, "/accounts/verify-email", "", gin.H{"token": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := h.do(t, http.MethodPost, "/accounts/authenticate", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	jwt, _ := body["jwtToken"].(string)
	require.NotEmpty(t, jwt)
	return jwt
}

func TestHealth(t *testing.T) {
	h := newHarness(t, 0)
	w, body := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORSPreflightAllowsCredentials(t *testing.T) {
	h := newHarness(t, 0)
	req := httptest.NewRequest(http.MethodOptions, "/accounts/authenticate", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPublicAccountEndpointsAreRateLimited(t *testing.T) {
	h := newHarness(t, 1)
	body := gin.H{"email": "nobody@example.com", "password": "whatever"}

	w, _ := h.do(t, http.MethodPost, "/accounts/authenticate", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, msg := h.do(t, http.MethodPost, "/accounts/authenticate", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests, please try again later", msg["message"])

	w, _ = h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHiringFlow(t *testing.T) {
	h := newHarness(t, 0)
	admin := h.signUp(t, "admin@example.com")
	user := h.signUp(t, "worker@example.com")

	w, _ := h.do(t, http.MethodPost, "/departments", user, gin.H{"name": "Ops", "description": "Runs"})
	require.Equal(t, http.StatusForbidden, w.Code)
	w, dept := h.do(t, http.MethodPost, "/departments", admin, gin.H{"name": "Ops", "description": "Runs"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, emp := h.do(t, http.MethodPost, "/employees", admin, gin.H{
		"employeeId":   "EMP001",
		"userId":       2,
		"position":     "Operator",
		"departmentId": dept["id"],
		"hireDate":     "2026-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "worker@example.com", emp["userEmail"])
	assert.Equal(t, "Ops", emp["departmentName"])

	w, _ = h.do(t, http.MethodGet, "/workflows/employee/1", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var workflows []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &workflows))
	require.Len(t, workflows, 1)
	assert.Equal(t, "Onboarding", workflows[0]["type"])

	w, created := h.do(t, http.MethodPost, "/requests", user, gin.H{
		"type":         "Equipment",
		"requestItems": []gin.H{{"name": "Headset", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 1, created["employeeId"])

	w, _ = h.do(t, http.MethodPut, "/requests/1", user, gin.H{"status": "Approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, approved := h.do(t, http.MethodPut, "/requests/1", admin, gin.H{"status": "Approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, approved["approverId"])

	w, counted := h.do(t, http.MethodGet, "/departments/1", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, counted["employeeCount"])
}
