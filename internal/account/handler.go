package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/utils"
)

var (
	ErrNotAccountOwner     = apperror.Forbidden("You do not have permission to access this account")
	ErrRoleChangeForbidden = apperror.Forbidden("Only admins can change account role")
)

// RegisterRequest represents the payload for self registration.
type RegisterRequest struct {
	Title           string `json:"title" binding:"required"`
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"acceptTerms" binding:"required"`
}

// TokenRequest carries a verification or reset token.
type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

// CreateAccountRequest is the admin payload for creating an account.
type CreateAccountRequest struct {
	Title           string `json:"title" binding:"required"`
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Role            Role   `json:"role" binding:"required,oneof=Admin User"`
	IsActive        *bool  `json:"isActive"`
}

// UpdateAccountRequest ignores empty fields.
type UpdateAccountRequest struct {
	Title           string `json:"title"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password" binding:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"omitempty,eqfield=Password"`
	Role            Role   `json:"role" binding:"omitempty,oneof=Admin User"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// AccountHandler handles HTTP requests for account resources.
type AccountHandler struct {
	router    *gin.RouterGroup
	service   AccountService
	authorize AuthorizeFunc
	logger    *zap.Logger
}

// NewAccountHandler registers account endpoints on the given router group.
// public is applied to the unauthenticated endpoints.
func NewAccountHandler(
	router *gin.RouterGroup,
	service AccountService,
	authorize AuthorizeFunc,
	logger *zap.Logger,
	public ...gin.HandlerFunc,
) *AccountHandler {
	h := &AccountHandler{router: router, service: service, authorize: authorize, logger: logger}

	open := h.router.Group("/accounts", public...)
	open.POST("/register", h.Register)
	open.POST("/verify-email", h.VerifyEmail)
	open.POST("/forgot-password", h.ForgotPassword)
	open.POST("/validate-reset-token", h.ValidateResetToken)
	open.POST("/reset-password", h.ResetPassword)

	accounts := h.router.Group("/accounts")
	accounts.GET("", authorize(Admin), h.ReadAll)
	accounts.GET("/:id", authorize(), h.ReadByID)
	accounts.POST("", authorize(Admin), h.Create)
	accounts.PUT("/:id", authorize(), h.Update)
	accounts.PUT("/:id/status", authorize(Admin), h.UpdateStatus)
	accounts.DELETE("/:id", authorize(), h.Delete)
	return h
}

// Register godoc
// @Summary      Register
// @Description  Register a new account and send a verification email
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      RegisterRequest  true  "Registration payload"
// @Success      200      {object}  utils.MessageResponse
// @Failure      400      {object}  utils.MessageResponse
// @Router       /accounts/register [post]
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register payload", zap.Error(err))
		_ = c.Error(apperror.Bind(err))
		return
	}
	params := RegisterParams{
		Title:           req.Title,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	}
	if err := h.service.Register(c.Request.Context(), params, c.GetHeader("Origin")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{
		Message: "Registration successful, please check your email for verification instructions",
	})
}

// VerifyEmail godoc
// @Summary      Verify email
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      TokenRequest  true  "Verification token"
// @Success      200      {object}  utils.MessageResponse
// @Failure      400      {object}  utils.MessageResponse
// @Router       /accounts/verify-email [post]
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	if err := h.service.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Verification successful, you can now login"})
}

// ForgotPassword godoc
// @Summary      Forgot password
// @Description  Always succeeds, an email is sent only when the account exists
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      ForgotPasswordRequest  true  "Account email"
// @Success      200      {object}  utils.MessageResponse
// @Router       /accounts/forgot-password [post]
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	if err := h.service.ForgotPassword(c.Request.Context(), req.Email, c.GetHeader("Origin")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Please check your email for password reset instructions"})
}

// ValidateResetToken godoc
// @Summary      Validate reset token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      TokenRequest  true  "Reset token"
// @Success      200      {object}  utils.MessageResponse
// @Failure      400      {object}  utils.MessageResponse
// @Router       /accounts/validate-reset-token [post]
func (h *AccountHandler) ValidateResetToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	if err := h.service.ValidateResetToken(c.Request.Context(), req.Token); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Token is valid"})
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Sets a new password and revokes the reset token
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      ResetPasswordRequest  true  "Reset token and new password"
// @Success      200      {object}  utils.MessageResponse
// @Failure      400      {object}  utils.MessageResponse
// @Router       /accounts/reset-password [post]
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Password reset successful, you can now login"})
}

// ReadAll godoc
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {array}   Details
// @Failure      401  {object}  utils.MessageResponse
// @Failure      403  {object}  utils.MessageResponse
// @Router       /accounts [get]
func (h *AccountHandler) ReadAll(c *gin.Context) {
	accounts, err := h.service.ReadAllAccounts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]Details, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].Details())
	}
	c.JSON(http.StatusOK, out)
}

// ReadByID godoc
// @Summary      Get account
// @Description  Admins can read any account, users only their own
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Details
// @Failure      403  {object}  utils.MessageResponse
// @Failure      404  {object}  utils.MessageResponse
// @Router       /accounts/{id} [get]
func (h *AccountHandler) ReadByID(c *gin.Context) {
	id, ok := h.ownedID(c)
	if !ok {
		return
	}
	account, err := h.service.ReadAccountByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account.Details())
}

// Create godoc
// @Summary      Create account
// @Description  Admin only, the account is created already verified
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateAccountRequest  true  "Account"
// @Success      201      {object}  Details
// @Failure      400      {object}  utils.MessageResponse
// @Failure      403      {object}  utils.MessageResponse
// @Router       /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	account, err := h.service.CreateAccount(c.Request.Context(), CreateParams{
		Title:           req.Title,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		IsActive:        req.IsActive,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, account.Details())
}

// Update godoc
// @Summary      Update account
// @Description  Only admins may change the role
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Account ID"
// @Param        payload  body      UpdateAccountRequest  true  "Fields to change"
// @Success      200      {object}  Details
// @Failure      400      {object}  utils.MessageResponse
// @Failure      403      {object}  utils.MessageResponse
// @Router       /accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := h.ownedID(c)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	principal, _ := CurrentPrincipal(c)
	if req.Role != "" && !principal.IsAdmin() {
		_ = c.Error(ErrRoleChangeForbidden)
		return
	}

	account, err := h.service.UpdateAccount(c.Request.Context(), id, UpdateParams{
		Title:           req.Title,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account.Details())
}

// UpdateStatus godoc
// @Summary      Activate or deactivate account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Account ID"
// @Param        payload  body      UpdateStatusRequest  true  "New status"
// @Success      200      {object}  Details
// @Failure      400      {object}  utils.MessageResponse
// @Failure      403      {object}  utils.MessageResponse
// @Failure      404      {object}  utils.MessageResponse
// @Router       /accounts/{id}/status [put]
func (h *AccountHandler) UpdateStatus(c *gin.Context) {
	id, ok := utils.BindID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.Bind(err))
		return
	}
	account, err := h.service.UpdateStatus(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, account.Details())
}

// Delete godoc
// @Summary      Delete account
// @Tags         accounts
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  utils.MessageResponse
// @Failure      403  {object}  utils.MessageResponse
// @Failure      404  {object}  utils.MessageResponse
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := h.ownedID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Account deleted successfully"})
}

// ownedID binds :id and checks that the caller is the account or an admin.
func (h *AccountHandler) ownedID(c *gin.Context) (uint, bool) {
	id, ok := utils.BindID(c)
	if !ok {
		return 0, false
	}
	principal, ok := CurrentPrincipal(c)
	if !ok || !principal.CanAccess(id) {
		_ = c.Error(ErrNotAccountOwner)
		return 0, false
	}
	return id, true
}
