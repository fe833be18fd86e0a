package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/auth"
	"tipsettle/internal/config"
	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/logger"
	"tipsettle/internal/port"
	"tipsettle/internal/repository/postgres"
	"tipsettle/internal/router"
	"tipsettle/internal/service"
	s3storage "tipsettle/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	store := postgres.NewStore(db)
	auditRepo := postgres.NewAuditRepo(db)

	// Initialize storage
	var artifacts port.ObjectStorage
	if cfg.Export.Storage == "s3" {
		artifacts, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.WithField("storage", cfg.Export.Storage).Warn("export artifacts will not be stored")
	}

	// Initialize services
	auditSvc := service.NewAuditService(auditRepo, log)
	ruleSetSvc := service.NewRuleSetService(store, auditSvc, log)
	batchSvc := service.NewBatchService(store, artifacts, auditSvc, service.BatchServiceConfig{
		DefaultRemainderPolicy: domain.RemainderPolicy(cfg.Allocation.RemainderPolicy),
		ExportFormat:           domain.ExportFormat(cfg.Export.Format),
	}, log)
	adjustmentSvc := service.NewAdjustmentService(store, auditSvc, service.AdjustmentServiceConfig{
		AutoApproveAdmin: cfg.Adjustments.AutoApproveAdmin,
	}, log)
	disputeSvc := service.NewDisputeService(store, adjustmentSvc, auditSvc, log)

	// Setup router
	r := router.Setup(auth.NewJWT(cfg.JWT), router.Handlers{
		Health:     handler.NewHealthHandler(db),
		Batch:      handler.NewBatchHandler(batchSvc),
		Adjustment: handler.NewAdjustmentHandler(adjustmentSvc),
		Dispute:    handler.NewDisputeHandler(disputeSvc),
		RuleSet:    handler.NewRuleSetHandler(ruleSetSvc),
		Audit:      handler.NewAuditHandler(auditSvc),
	}, cfg.CORS.AllowedOrigins, log)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
