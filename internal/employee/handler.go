package employee

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

type CreateEmployeeRequest struct {
	EmployeeID   string `json:"employeeId" binding:"required"`
	UserID       uint   `json:"userId" binding:"required,min=1"`
	Position     string `json:"position" binding:"required"`
	DepartmentID uint   `json:"departmentId" binding:"required,min=1"`
	HireDate     string `json:"hireDate" binding:"required"`
	Status       string `json:"status"`
}

type UpdateEmployeeRequest struct {
	EmployeeID   string `json:"employeeId"`
	UserID       uint   `json:"userId"`
	Position     string `json:"position"`
	DepartmentID uint   `json:"departmentId"`
	HireDate     string `json:"hireDate"`
	Status       string `json:"status"`
}

type TransferRequest struct {
	DepartmentID uint `json:"departmentId" binding:"required,min=1"`
}

type TransferResponse struct {
	Message  string    `json:"message"`
	Employee *Employee `json:"employee"`
}

type EmployeeHandler struct {
	router  *gin.RouterGroup
	service EmployeeService
	logger  *zap.Logger
}

func NewEmployeeHandler(router *gin.RouterGroup, service EmployeeService, authorize account.AuthorizeFunc, logger *zap.Logger) *EmployeeHandler {
	h := &EmployeeHandler{router: router, service: service, logger: logger}
	g := h.router.Group("/employees")
	g.POST("", authorize(account.Admin), h.Create)
	g.GET("", authorize(), h.ReadAll)
	g.GET("/:id", authorize(), h.ReadByID)
	g.PUT("/:id", authorize(account.Admin), h.Update)
	g.DELETE("/:id", authorize(account.Admin), h.Delete)
	g.POST("/:id/transfer", authorize(account.Admin), h.Transfer)
	return h
}

// Create godoc
// @Summary      Hire an employee
// @Description  Links an account to a department and starts its onboarding workflow
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateEmployeeRequest  true  "Employee payload"
// @Success      201      {object}  Employee
// @Failure      400      {object}  utils.MessageResponse
// @Failure      404      {object}  utils.MessageResponse
// @Router       /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	e, err := h.service.CreateEmployee(c.Request.Context(), CreateParams(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EmployeeHandler) ReadAll(c *gin.Context) {
	employees, err := h.service.ReadAllEmployees(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *EmployeeHandler) ReadByID(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	e, err := h.service.ReadEmployeeByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	e, err := h.service.UpdateEmployee(c.Request.Context(), id, UpdateParams(req))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Delete godoc
// @Summary      Delete employee
// @Description  Also removes the employee's workflows and requests
// @Tags         employees
// @Produce      json
// @Param        id   path      int  true  "Employee ID"
// @Success      200  {object}  utils.MessageResponse
// @Failure      404  {object}  utils.MessageResponse
// @Router       /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteEmployee(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Employee deleted successfully"})
}

func (h *EmployeeHandler) Transfer(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	e, err := h.service.Transfer(c.Request.Context(), id, req.DepartmentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, TransferResponse{Message: "Employee transferred successfully", Employee: e})
}
