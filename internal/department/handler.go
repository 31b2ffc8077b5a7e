package department

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type UpdateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DepartmentHandler handles HTTP requests for department resources.
type DepartmentHandler struct {
	router  *gin.RouterGroup
	service DepartmentService
	logger  *zap.Logger
}

// NewDepartmentHandler registers department endpoints on the given router group.
func NewDepartmentHandler(router *gin.RouterGroup, service DepartmentService, authorize account.AuthorizeFunc, logger *zap.Logger) *DepartmentHandler {
	h := &DepartmentHandler{router: router, service: service, logger: logger}
	g := h.router.Group("/departments")
	g.POST("", authorize(account.Admin), h.Create)
	g.GET("", authorize(), h.ReadAll)
	g.GET("/:id", authorize(), h.ReadByID)
	g.PUT("/:id", authorize(account.Admin), h.Update)
	g.DELETE("/:id", authorize(account.Admin), h.Delete)
	return h
}

// Create godoc
// @Summary      Create department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateDepartmentRequest  true  "Department payload"
// @Success      201      {object}  Department
// @Failure      400      {object}  utils.MessageResponse
// @Failure      403      {object}  utils.MessageResponse
// @Router       /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	d, err := h.service.CreateDepartment(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ReadAll godoc
// @Summary      List departments
// @Tags         departments
// @Produce      json
// @Success      200  {array}  Department
// @Router       /departments [get]
func (h *DepartmentHandler) ReadAll(c *gin.Context) {
	departments, err := h.service.ReadAllDepartments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *DepartmentHandler) ReadByID(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	d, err := h.service.ReadDepartmentByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	d, err := h.service.UpdateDepartment(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Delete godoc
// @Summary      Delete department
// @Description  Employees of the department are left without one
// @Tags         departments
// @Produce      json
// @Param        id   path      int  true  "Department ID"
// @Success      200  {object}  utils.MessageResponse
// @Failure      404  {object}  utils.MessageResponse
// @Router       /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDepartment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Department deleted successfully"})
}
