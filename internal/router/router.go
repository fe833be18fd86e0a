package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/auth"
	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health     *handler.HealthHandler
	Batch      *handler.BatchHandler
	Adjustment *handler.AdjustmentHandler
	Dispute    *handler.DisputeHandler
	RuleSet    *handler.RuleSetHandler
	Audit      *handler.AuditHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(validator auth.TokenValidator, h Handlers, allowedOrigins []string, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(validator))

	staff := middleware.RequireRole(domain.RoleOwner, domain.RoleAdmin, domain.RoleManager)

	// Creating a batch is open to any authenticated caller; the draft still needs staff to finalise.
	v1.POST("/allocations/execute", h.Batch.Execute)

	batches := v1.Group("/batches", staff)
	batches.GET("", h.Batch.List)
	batches.GET("/:id", h.Batch.Get)
	batches.POST("/:id/submit", h.Batch.Submit)
	batches.POST("/:id/finalise", h.Batch.Finalise)
	batches.PATCH("/:id/lines/:line_id", h.Batch.UpdateLine)

	adjustments := v1.Group("/adjustments", staff)
	adjustments.POST("", h.Adjustment.Create)
	adjustments.POST("/:id/review", h.Adjustment.Review)

	// Refund signals come from the payment sync job with a system token.
	v1.POST("/payments/:id/refund-clawback", h.Adjustment.RefundClawback)
	v1.GET("/employees/:id/balance", h.Adjustment.EmployeeBalance)

	// Employees may raise and read their own disputes.
	disputes := v1.Group("/disputes")
	disputes.POST("", h.Dispute.Raise)
	disputes.GET("", h.Dispute.List)
	disputes.GET("/:id", h.Dispute.Get)
	disputes.POST("/:id/review", staff, h.Dispute.StartReview)
	disputes.POST("/:id/resolve", staff, h.Dispute.Resolve)

	ruleSets := v1.Group("/rule-sets", staff)
	ruleSets.POST("", h.RuleSet.Create)
	ruleSets.GET("", h.RuleSet.List)
	ruleSets.GET("/current", h.RuleSet.Current)

	audit := v1.Group("/audit-events", staff)
	audit.GET("", h.Audit.List)
	audit.GET("/verify", h.Audit.Verify)

	return r
}
