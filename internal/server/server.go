// Package server assembles the HTTP API from the domain packages.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phloxxx/user-management-system/internal/account"
	"github.com/phloxxx/user-management-system/internal/apperror"
	"github.com/phloxxx/user-management-system/internal/authentication"
	"github.com/phloxxx/user-management-system/internal/department"
	"github.com/phloxxx/user-management-system/internal/employee"
	"github.com/phloxxx/user-management-system/internal/request"
	"github.com/phloxxx/user-management-system/internal/utils"
	"github.com/phloxxx/user-management-system/internal/workflow"
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&account.Account{},
		&authentication.RefreshToken{},
		&department.Department{},
		&employee.Employee{},
		&workflow.Workflow{},
		&request.Request{},
		&request.Item{},
	}
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(cfg *utils.Config, db *gorm.DB, notifier account.Notifier, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestLogger(logger),
		gin.Recovery(),
		CORS(cfg.Server.CORSOrigins),
		apperror.Middleware(logger, cfg.IsDevelopment()),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	//
	// ACCOUNTS & TOKENS
	//
	accountService := account.NewAccountService(
		account.NewAccountRepository(db),
		notifier,
		logger,
		cfg.Token.ResetTokenTTL,
	)
	authService := authentication.NewAuthenticationService(
		accountService,
		authentication.NewRefreshTokenRepository(db),
		logger,
		cfg.Token.Secret,
		cfg.Token.AccessTokenTTL,
		cfg.Token.RefreshTokenTTL,
	)
	authorize := authentication.NewAuthorizer(accountService, authService, cfg.Token.Secret, logger).Authorize

	limit := RateLimit(cfg.Server.RateLimitPerSecond)
	api := &router.RouterGroup
	authentication.NewAuthHandler(api, authService, authorize, logger, cfg.Server.CookieSecure, limit)
	account.NewAccountHandler(api, accountService, authorize, logger, limit)

	//
	// HR RESOURCES
	//
	department.NewDepartmentHandler(api,
		department.NewDepartmentService(department.NewDepartmentRepository(db), logger),
		authorize, logger)
	employee.NewEmployeeHandler(api,
		employee.NewEmployeeService(employee.NewEmployeeRepository(db), logger),
		authorize, logger)
	request.NewRequestHandler(api,
		request.NewRequestService(request.NewRequestRepository(db), logger),
		authorize, logger)
	workflow.NewWorkflowHandler(api,
		workflow.NewWorkflowService(workflow.NewWorkflowRepository(db), logger),
		authorize, logger)

	return router
}
