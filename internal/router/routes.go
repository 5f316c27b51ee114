package router

import (
	"fmt"

	"github.com/communitylink/membership-api/internal/auth"
	"github.com/communitylink/membership-api/internal/config"
	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/meta"
	"github.com/communitylink/membership-api/internal/notify"
	"github.com/communitylink/membership-api/internal/payment"
	"github.com/communitylink/membership-api/internal/registration"
	"github.com/communitylink/membership-api/internal/shared/database"
	"github.com/communitylink/membership-api/internal/shared/metrics"
	"github.com/communitylink/membership-api/internal/shared/middleware"
	"github.com/communitylink/membership-api/internal/shared/token"
	"github.com/gin-gonic/gin"
)

// IdentityProvider is the account backend used for both lifecycle toggles and login.
type IdentityProvider interface {
	identity.Provider
	identity.Authenticator
}

// Dependencies are the external systems the routes are wired against
type Dependencies struct {
	Processor payment.Processor
	Identity  IdentityProvider
	Notifier  notify.Notifier
}

// Setup configures all application-specific routes using dependency injection.
// The returned sweeper is not started.
func Setup(router *gin.Engine, cfg *config.Config, db *database.DB, deps Dependencies) (*member.ExpirySweeper, error) {
	// Meta handler (health check, metrics)
	metaHandler := meta.NewHandler(cfg, map[string]meta.Pinger{"database": db})
	router.GET("/health", metaHandler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// repository
	directory := member.NewDirectory()
	intents := payment.NewIntentRepository()

	// shared services
	tokenManager := token.NewJWTManager(cfg)

	// service
	lifecycle := member.NewLifecycle(db.DB, directory, deps.Identity, deps.Notifier)
	orchestrator := payment.NewOrchestrator(db.DB, deps.Processor, intents, cfg.Payment.Currency)
	validator, err := registration.NewValidator(db.DB, directory)
	if err != nil {
		return nil, fmt.Errorf("registration validator: %w", err)
	}
	registrationService := registration.NewRegistrationService(validator, orchestrator, lifecycle)
	authService := auth.NewAuthService(deps.Identity, tokenManager)
	memberService := member.NewMemberService(db.DB, directory)

	// handler
	registrationHandler := registration.NewRegistrationHandler(registrationService)
	authHandler := auth.NewAuthHandler(authService)
	memberHandler := member.NewMemberHandler(memberService, lifecycle)

	// API v1 routes
	registrationV1 := router.Group("/api/v1/registrations")
	{
		registrationV1.POST("", registrationHandler.CreateIntent)
		registrationV1.POST("/complete", registrationHandler.Complete)
	}
	router.POST("/api/v1/payments/webhook", registrationHandler.Webhook)

	authV1 := router.Group("/api/v1/auth")
	{
		authV1.POST("/login", authHandler.Login)
		authV1.POST("/refresh", authHandler.Refresh)
	}

	memberV1 := router.Group("/api/v1/members")
	memberV1.Use(middleware.JWT(cfg))
	{
		memberV1.GET("/me", memberHandler.GetProfile)
	}

	adminV1 := router.Group("/api/v1/admin/members")
	adminV1.Use(middleware.JWT(cfg), middleware.RequireGroup(identity.GroupAdmin))
	{
		adminV1.POST("/expire", memberHandler.ExpireDue)
		adminV1.GET("/:id", memberHandler.Get)
		adminV1.GET("/:id/family", memberHandler.Family)
		adminV1.POST("/:id/approve", memberHandler.Approve)
		adminV1.POST("/:id/reject", memberHandler.Reject)
		adminV1.POST("/:id/suspend", memberHandler.Suspend)
		adminV1.POST("/:id/reactivate", memberHandler.Reactivate)
		adminV1.POST("/:id/renew", memberHandler.Renew)
		adminV1.POST("/:id/installments", memberHandler.RecordInstallment)
		adminV1.POST("/:id/badge", memberHandler.SetBadge)
	}

	return member.NewExpirySweeper(lifecycle, cfg.Membership.ExpirySweepInterval), nil
}
