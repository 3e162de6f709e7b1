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
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/payment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/routes"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("clinic")

	// ======================================================
	// LOCKS
	// ======================================================
	var locker lock.Locker = lock.NewLocalLocker(cfg.LockWait)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.LockWait)
		log.Info("using redis locks", zap.String("addr", opts.Addr))
	}

	// ======================================================
	// NOTIFICATIONS / AUDIT
	// ======================================================
	var pub notify.Publisher = notify.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		pub = notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.NotifyTopic)
		log.Info("publishing notifications to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.NotifyTopic),
		)
	}
	notifier := notify.NewDispatcher(pub, log, 0)
	notifier.OnDrop = collector.NotificationDropped

	auditLog := audit.New(db)
	auditor := audit.NewDispatcher(auditLog, log)
	auditor.OnDrop = collector.AuditEventDropped

	// ======================================================
	// PAYMENTS
	// ======================================================
	gateway := &payment.Router{Default: payment.Offline{}}
	if cfg.MercadoPagoAccessToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MercadoPagoAccessToken, log, func(result string) {
			collector.GatewayCall("mercadopago", result)
		})
		if err != nil {
			return err
		}
		gateway.Methods = map[string]payment.Gateway{
			models.MethodCard:        mp,
			models.MethodMercadoPago: mp,
		}
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Infra{
		AppointmentRepo: repository.NewAppointmentGormRepository(db, collector.TxRetried),
		WaitlistRepo:    repository.NewWaitlistGormRepository(db, collector.TxRetried),
		Locker:          locker,
		Clock:           timezone.SystemClock(),
		Gateway:         gateway,
		Audit:           auditor,
		AuditReader:     auditLog,
		Notify:          notifier,
		Metrics:         collector,
		Log:             log,
		Health:          dbpkg.Ping(db),
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn("closing notification publisher", zap.Error(err))
	}
	auditor.Close(shutdownCtx)

	return nil
}
