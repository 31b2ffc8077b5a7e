package account

import (
	"github.com/gin-gonic/gin"
)

// ContextPrincipalKey is the key under which the authenticated Principal is
// stored in the gin context.
const ContextPrincipalKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	*Account
	// OwnsToken reports whether a raw refresh token belongs to this account.
	OwnsToken func(token string) bool
}

// CanAccess is true for admins and for the account itself.
func (p *Principal) CanAccess(accountID uint) bool {
	return p.IsAdmin() || p.ID == accountID
}

// AuthorizeFunc builds middleware that authenticates the request and, when
// roles are given, requires one of them.
type AuthorizeFunc func(roles ...Role) gin.HandlerFunc

func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	raw, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := raw.(*Principal)
	return p, ok
}
