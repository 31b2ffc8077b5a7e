package workflow

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

type CreateWorkflowRequest struct {
	EmployeeID uint    `json:"employeeId" binding:"required,min=1"`
	Type       string  `json:"type" binding:"required"`
	Details    Details `json:"details"`
	Status     Status  `json:"status"`
	Comments   string  `json:"comments"`
}

type UpdateWorkflowRequest struct {
	EmployeeID uint    `json:"employeeId"`
	Type       string  `json:"type"`
	Details    Details `json:"details"`
	Status     Status  `json:"status"`
	Comments   *string `json:"comments"`
}

type UpdateStatusRequest struct {
	Status   Status `json:"status" binding:"required"`
	Comments string `json:"comments"`
}

type OnboardingRequest struct {
	EmployeeID uint    `json:"employeeId" binding:"required,min=1"`
	Details    Details `json:"details"`
	Comments   string  `json:"comments"`
}

type WorkflowHandler struct {
	router  *gin.RouterGroup
	service WorkflowService
	logger  *zap.Logger
}

func NewWorkflowHandler(router *gin.RouterGroup, service WorkflowService, authorize account.AuthorizeFunc, logger *zap.Logger) *WorkflowHandler {
	h := &WorkflowHandler{router: router, service: service, logger: logger}
	g := h.router.Group("/workflows")
	g.POST("", authorize(account.Admin), h.Create)
	g.GET("", authorize(), h.ReadAll)
	g.POST("/onboarding", authorize(account.Admin), h.CreateOnboarding)
	g.GET("/recent-onboardings", authorize(account.Admin), h.RecentOnboardings)
	g.GET("/employee/:employeeId", authorize(), h.ReadByEmployee)
	g.GET("/:id", authorize(), h.ReadByID)
	g.PUT("/:id", authorize(account.Admin), h.Update)
	g.PUT("/:id/status", authorize(account.Admin), h.UpdateStatus)
	g.DELETE("/:id", authorize(account.Admin), h.Delete)
	return h
}

// Create godoc
// @Summary      Create workflow
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateWorkflowRequest  true  "Workflow payload"
// @Success      201      {object}  Workflow
// @Failure      400      {object}  utils.MessageResponse
// @Failure      404      {object}  utils.MessageResponse
// @Router       /workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	w, err := h.service.CreateWorkflow(c.Request.Context(), CreateParams(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WorkflowHandler) ReadAll(c *gin.Context) {
	workflows, err := h.service.ReadAllWorkflows(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *WorkflowHandler) ReadByID(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	w, err := h.service.ReadWorkflowByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) ReadByEmployee(c *gin.Context) {
	employeeID, ok := utils.BindUint(c, "employeeId")
	if !ok {
		return
	}
	workflows, err := h.service.ReadEmployeeWorkflows(c.Request.Context(), employeeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *WorkflowHandler) Update(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	w, err := h.service.UpdateWorkflow(c.Request.Context(), id, UpdateParams(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// UpdateStatus godoc
// @Summary      Change workflow status
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Workflow ID"
// @Param        payload  body      UpdateStatusRequest  true  "Status payload"
// @Success      200      {object}  Workflow
// @Failure      400      {object}  utils.MessageResponse
// @Router       /workflows/{id}/status [put]
func (h *WorkflowHandler) UpdateStatus(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	w, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, req.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorkflowHandler) Delete(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteWorkflow(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Workflow deleted successfully"})
}

// CreateOnboarding godoc
// @Summary      Start onboarding for an employee
// @Description  Returns the existing onboarding workflow with 200 when the employee already has one
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        payload  body      OnboardingRequest  true  "Onboarding payload"
// @Success      201      {object}  Workflow
// @Success      200      {object}  Workflow
// @Failure      404      {object}  utils.MessageResponse
// @Router       /workflows/onboarding [post]
func (h *WorkflowHandler) CreateOnboarding(c *gin.Context) {
	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	w, created, err := h.service.CreateOnboarding(c.Request.Context(), req.EmployeeID, req.Details, req.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, w)
}

func (h *WorkflowHandler) RecentOnboardings(c *gin.Context) {
	days := DefaultRecentDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(ErrInvalidDays.WithCause(err))
			return
		}
		days = n
	}
	onboardings, err := h.service.RecentOnboardings(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, onboardings)
}
