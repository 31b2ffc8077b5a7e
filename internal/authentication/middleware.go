package authentication

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
)

// Authorizer verifies bearer access tokens and gates routes by role.
type Authorizer struct {
	accounts account.AccountService
	tokens   AuthenticationService
	secret   string
	logger   *zap.Logger
}

func NewAuthorizer(accounts account.AccountService, tokens AuthenticationService, secret string, logger *zap.Logger) *Authorizer {
	return &Authorizer{accounts: accounts, tokens: tokens, secret: secret, logger: logger}
}

// Authorize rejects requests without a valid access token with 401. When
// roles are given, authenticated callers holding none of them get 403.
func (a *Authorizer) Authorize(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		claims, err := ParseAccessToken(parts[1], a.secret)
		if err != nil {
			a.logger.Debug("access token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()
		acc, err := a.accounts.ReadAccountByID(ctx, claims.AccountID)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				return
			}
			a.logger.Error("failed to load account by ID", zap.Error(err), zap.Uint("accountID", claims.AccountID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Could not validate account"})
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, acc.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}

		principal := &account.Principal{
			Account: acc,
			OwnsToken: func(token string) bool {
				owns, err := a.tokens.OwnsToken(ctx, acc.ID, token)
				if err != nil {
					a.logger.Error("failed to check token ownership", zap.Uint("accountID", acc.ID), zap.Error(err))
					return false
				}
				return owns
			},
		}
		c.Set(account.ContextPrincipalKey, principal)
		c.Next()
	}
}
