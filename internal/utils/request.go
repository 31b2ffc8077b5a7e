package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phloxxx/user-management-system/internal/apperror"
)

// IDRequest represents a URI ID parameter.
type IDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// BindID reads the :id path parameter. On failure the error is attached to c
// and false is returned.
func BindID(c *gin.Context) (uint, bool) {
	var uri IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		_ = c.Error(apperror.Validation("Invalid or missing id", err))
		return 0, false
	}
	return uri.ID, true
}

// BindUint reads a positive integer path parameter by name.
func BindUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		_ = c.Error(apperror.Validation("Invalid or missing "+name, err))
		return 0, false
	}
	return uint(v), true
}
