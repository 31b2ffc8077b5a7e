package mocks

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/account"
)

const (
	HeaderAccountID = "X-Account-ID"
	HeaderRole      = "X-Role"
)

// Authorize trusts the X-Account-ID and X-Role headers instead of a bearer
// token. Requests without an account id are rejected with 401.
func Authorize(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(HeaderAccountID), 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		role := account.Role(c.GetHeader(HeaderRole))
		if role == "" {
			role = account.User
		}
		if len(roles) > 0 && !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		acc := &account.Account{Model: gorm.Model{ID: uint(id)}, Role: role, IsActive: true}
		c.Set(account.ContextPrincipalKey, &account.Principal{
			Account:   acc,
			OwnsToken: func(string) bool { return false },
		})
		c.Next()
	}
}

var _ account.AuthorizeFunc = Authorize
