package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/phloxxx/user-management-system/internal/mail"
	"github.com/phloxxx/user-management-system/internal/server"
	"github.com/phloxxx/user-management-system/internal/utils"
)

func main() {
	// load config
	cfg, err := utils.LoadConfig(".env")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// init logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// init database
	db, err := utils.InitDatabase(cfg.Database.DSN())
	if err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}
	if err := utils.Migrate(db, server.Models()...); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// outgoing mail
	var mailer mail.Mailer
	if cfg.Mail.Enabled() {
		mailer = mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From)
	} else {
		logger.Warn("SMTP_HOST not set, emails will only be logged")
		mailer = mail.NewLogMailer(logger)
	}
	dispatcher := mail.NewDispatcher(mailer, logger)

	router := server.NewRouter(cfg, db, dispatcher, logger)

	//
	// START SERVER
	//
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped gracefully")
	}
	if err := dispatcher.Wait(ctx); err != nil {
		logger.Warn("pending emails were not delivered", zap.Error(err))
	}
}
