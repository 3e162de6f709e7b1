package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domainAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	domainWaitlist "github.com/BruksfildServices01/clinic-scheduler/internal/domain/waitlist"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/payment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
	ucWaitlist "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/waitlist"
)

// Infra is everything the routes need that outlives a request. Audit,
// AuditReader, Notify, Metrics and Health may be nil.
type Infra struct {
	AppointmentRepo domainAppointment.Repository
	WaitlistRepo    domainWaitlist.Repository
	Locker          lock.Locker
	Clock           timezone.Clock
	Gateway         payment.Gateway

	Audit       *audit.Dispatcher
	AuditReader handlers.AuditReader
	Notify      *notify.Dispatcher
	Metrics     *metrics.Collector
	Log         *zap.Logger

	// Health reports dependency readiness for /health.
	Health func() error
}

func RegisterRoutes(r *gin.Engine, infra Infra, cfg *config.Config) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	log := infra.Log
	if log == nil {
		log = zap.NewNop()
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Metrics(infra.Metrics),
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins),
	)
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	apDeps := ucAppointment.Deps{
		Repo:    infra.AppointmentRepo,
		Locker:  infra.Locker,
		LockTTL: cfg.LockTTL,
		Clock:   infra.Clock,
		Audit:   infra.Audit,
		Notify:  infra.Notify,
		Metrics: infra.Metrics,
		Log:     log,
	}

	appointmentHandler := handlers.NewAppointmentHandler(
		ucAppointment.NewBookAppointment(apDeps),
		ucAppointment.NewCancelAppointment(apDeps),
		ucAppointment.NewRescheduleAppointment(apDeps),
		ucAppointment.NewCompleteAppointment(apDeps),
		ucAppointment.NewMarkNoShow(apDeps),
		ucAppointment.NewConfirmViaPayment(apDeps, infra.Gateway, cfg.TaxRate),
		ucAppointment.NewListAppointments(infra.AppointmentRepo),
		ucAppointment.NewGetAppointment(infra.AppointmentRepo),
		ucAppointment.NewSummary(infra.AppointmentRepo),
	)
	billingHandler := handlers.NewBillingHandler(ucAppointment.NewBilling(infra.AppointmentRepo))
	therapistHandler := handlers.NewTherapistHandler(ucAppointment.NewGetAvailability(infra.AppointmentRepo, infra.Clock))

	// ======================================================
	// USE CASES: WAITLIST
	// ======================================================
	wlDeps := ucWaitlist.Deps{
		Repo:    infra.WaitlistRepo,
		Catalog: infra.AppointmentRepo,
		Locker:  infra.Locker,
		LockTTL: cfg.LockTTL,
		Clock:   infra.Clock,
		Audit:   infra.Audit,
		Notify:  infra.Notify,
		Metrics: infra.Metrics,
		Log:     log,
	}

	waitlistHandler := handlers.NewWaitlistHandler(
		ucWaitlist.NewEnqueue(wlDeps),
		ucWaitlist.NewCancelEntry(wlDeps),
		ucWaitlist.NewListEntries(infra.WaitlistRepo),
		ucWaitlist.NewGetEntry(infra.WaitlistRepo),
	)

	meHandler := handlers.NewMeHandler(infra.AppointmentRepo)

	// ======================================================
	// INFRA ROUTES
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		if infra.Health != nil {
			if err := infra.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(infra.Metrics.Handler()))

	// ======================================================
	// API (JSON)
	// ======================================================
	secured := r.Group("/api")
	secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		secured.GET("/me", meHandler.GetMe)

		// ------------------------------
		// APPOINTMENTS
		// ------------------------------
		secured.POST("/appointments/book", appointmentHandler.Book)
		secured.GET("/appointments", appointmentHandler.List)
		secured.GET("/appointments/summary", appointmentHandler.Summary)
		secured.GET("/appointments/:id", appointmentHandler.Get)
		secured.POST("/appointments/:id/cancel", appointmentHandler.Cancel)
		secured.POST("/appointments/:id/reschedule", appointmentHandler.Reschedule)
		secured.POST("/appointments/:id/complete", appointmentHandler.Complete)
		secured.POST("/appointments/:id/no-show", appointmentHandler.NoShow)
		secured.POST("/appointments/:id/pay", appointmentHandler.Pay)

		// ------------------------------
		// BILLING
		// ------------------------------
		secured.GET("/payments", billingHandler.ListPayments)
		secured.GET("/invoices", billingHandler.ListInvoices)
		secured.GET("/invoices/:id", billingHandler.GetInvoice)

		// ------------------------------
		// WAITLIST
		// ------------------------------
		secured.POST("/waitlist", waitlistHandler.Enqueue)
		secured.GET("/waitlist", waitlistHandler.List)
		secured.GET("/waitlist/:id", waitlistHandler.Get)
		secured.POST("/waitlist/:id/cancel", waitlistHandler.Cancel)

		// ------------------------------
		// THERAPISTS
		// ------------------------------
		secured.GET("/therapists/:id/availability", therapistHandler.Availability)
	}

	if infra.AuditReader != nil {
		auditLogsHandler := handlers.NewAuditLogsHandler(infra.AuditReader)
		secured.GET("/audit-logs", auditLogsHandler.List)
	}
}
