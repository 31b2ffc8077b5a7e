package request

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

var ErrNoPrincipal = apperror.Unauthorized("Unauthorized")

type ItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Quantity    int    `json:"quantity" binding:"gte=0"`
	Description string `json:"description"`
}

type CreateRequestRequest struct {
	EmployeeID  uint          `json:"employeeId"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Items       []ItemRequest `json:"requestItems" binding:"dive"`
}

type UpdateRequestRequest struct {
	EmployeeID  uint          `json:"employeeId"`
	Type        string        `json:"type"`
	Description *string       `json:"description"`
	Status      Status        `json:"status"`
	Comments    *string       `json:"comments"`
	Items       []ItemRequest `json:"requestItems" binding:"omitempty,dive"`
}

func toItems(in []ItemRequest) []Item {
	if in == nil {
		return nil
	}
	out := make([]Item, 0, len(in))
	for _, item := range in {
		out = append(out, Item{Name: item.Name, Quantity: item.Quantity, Description: item.Description})
	}
	return out
}

type RequestHandler struct {
	router  *gin.RouterGroup
	service RequestService
	logger  *zap.Logger
}

func NewRequestHandler(router *gin.RouterGroup, service RequestService, authorize account.AuthorizeFunc, logger *zap.Logger) *RequestHandler {
	h := &RequestHandler{router: router, service: service, logger: logger}
	g := h.router.Group("/requests")
	g.POST("", authorize(), h.Create)
	g.GET("", authorize(account.Admin), h.ReadAll)
	g.GET("/employee/:employeeId", authorize(), h.ReadByEmployee)
	g.GET("/:id", authorize(), h.ReadByID)
	g.PUT("/:id", authorize(), h.Update)
	g.DELETE("/:id", authorize(account.Admin), h.Delete)
	return h
}

func actorOf(c *gin.Context) (Actor, bool) {
	p, ok := account.CurrentPrincipal(c)
	if !ok {
		_ = c.Error(ErrNoPrincipal)
		return Actor{}, false
	}
	return Actor{AccountID: p.ID, Admin: p.IsAdmin()}, true
}

// Create godoc
// @Summary      Submit a request
// @Description  employeeId defaults to the caller's own employee record
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateRequestRequest  true  "Request payload"
// @Success      201      {object}  Request
// @Failure      400      {object}  utils.MessageResponse
// @Failure      404      {object}  utils.MessageResponse
// @Router       /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	created, err := h.service.CreateRequest(c.Request.Context(), actor, CreateParams{
		EmployeeID:  req.EmployeeID,
		Type:        req.Type,
		Description: req.Description,
		Items:       toItems(req.Items),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *RequestHandler) ReadAll(c *gin.Context) {
	requests, err := h.service.ReadAllRequests(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *RequestHandler) ReadByID(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	req, err := h.service.ReadRequest(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) ReadByEmployee(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	employeeID, ok := utils.BindUint(c, "employeeId")
	if !ok {
		return
	}
	requests, err := h.service.ReadEmployeeRequests(c.Request.Context(), actor, employeeID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// Update godoc
// @Summary      Update a request
// @Description  Only admins may move a request out of Pending. requestItems replaces every item.
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Request ID"
// @Param        payload  body      UpdateRequestRequest  true  "Update payload"
// @Success      200      {object}  Request
// @Failure      403      {object}  utils.MessageResponse
// @Failure      404      {object}  utils.MessageResponse
// @Router       /requests/{id} [put]
func (h *RequestHandler) Update(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	updated, err := h.service.UpdateRequest(c.Request.Context(), actor, id, UpdateParams{
		EmployeeID:  req.EmployeeID,
		Type:        req.Type,
		Description: req.Description,
		Status:      req.Status,
		Comments:    req.Comments,
		Items:       toItems(req.Items),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *RequestHandler) Delete(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Request deleted successfully"})
}
