package authentication

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

// RefreshCookieName is the cookie carrying the raw refresh token.
const RefreshCookieName = "refreshToken"

// AuthenticateRequest is the payload for logging in.
type AuthenticateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RevokeRequest may name the token to revoke. The cookie is used otherwise.
type RevokeRequest struct {
	Token string `json:"token"`
}

// AuthenticateResponse is the account details plus a fresh access token.
type AuthenticateResponse struct {
	account.Details
	JwtToken string `json:"jwtToken"`
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	router       *gin.RouterGroup
	service      AuthenticationService
	logger       *zap.Logger
	cookieSecure bool
}

// NewAuthHandler registers auth endpoints on the given router group.
// public is applied to authenticate and refresh-token.
func NewAuthHandler(
	router *gin.RouterGroup,
	service AuthenticationService,
	authorize account.AuthorizeFunc,
	logger *zap.Logger,
	cookieSecure bool,
	public ...gin.HandlerFunc,
) *AuthHandler {
	h := &AuthHandler{router: router, service: service, logger: logger, cookieSecure: cookieSecure}

	open := h.router.Group("/accounts", public...)
	open.POST("/authenticate", h.Authenticate)
	open.POST("/refresh-token", h.Refresh)

	h.router.POST("/accounts/revoke-token", authorize(), h.Revoke)
	return h
}

// Authenticate godoc
// @Summary      Authenticate
// @Description  Verify credentials, issue an access token and set the refresh token cookie
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      AuthenticateRequest  true  "Login credentials"
// @Success      200      {object}  AuthenticateResponse
// @Failure      400      {object}  utils.MessageResponse
// @Failure      429      {object}  utils.MessageResponse
// @Router       /accounts/authenticate [post]
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid authenticate payload", zap.Error(err))
		_ = c.Error(apperror.Bind(err))
		return
	}
	session, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c, session)
}

// Refresh godoc
// @Summary      Refresh token
// @Description  Rotate the refresh token cookie and issue a new access token
// @Tags         accounts
// @Produce      json
// @Success      200      {object}  AuthenticateResponse
// @Failure      401      {object}  utils.MessageResponse
// @Router       /accounts/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(RefreshCookieName)
	session, err := h.service.Refresh(c.Request.Context(), token, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.respond(c, session)
}

// Revoke godoc
// @Summary      Revoke token
// @Description  Revoke a refresh token owned by the caller. Admins may revoke any token.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      RevokeRequest  false  "Token to revoke, defaults to the cookie"
// @Success      200      {object}  utils.MessageResponse
// @Failure      400      {object}  utils.MessageResponse
// @Failure      401      {object}  utils.MessageResponse
// @Router       /accounts/revoke-token [post]
func (h *AuthHandler) Revoke(c *gin.Context) {
	var req RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperror.Bind(err))
		return
	}
	cookie, _ := c.Cookie(RefreshCookieName)
	token := req.Token
	if token == "" {
		token = cookie
	}
	if token == "" {
		_ = c.Error(ErrTokenRequired)
		return
	}

	principal, ok := account.CurrentPrincipal(c)
	if !ok || (!principal.IsAdmin() && !principal.OwnsToken(token)) {
		_ = c.Error(ErrUnauthorized)
		return
	}

	if err := h.service.Revoke(c.Request.Context(), token, c.ClientIP()); err != nil {
		_ = c.Error(err)
		return
	}
	if token == cookie {
		h.clearCookie(c)
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Token revoked"})
}

func (h *AuthHandler) respond(c *gin.Context, session *Session) {
	h.setCookie(c, session.RefreshToken, session.RefreshExpires)
	c.JSON(http.StatusOK, AuthenticateResponse{
		Details:  session.Account.Details(),
		JwtToken: session.JwtToken,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: h.sameSite(),
	})
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: h.sameSite(),
	})
}

// sameSite allows cross-site cookies only over https.
func (h *AuthHandler) sameSite() http.SameSite {
	if h.cookieSecure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
