package cmd

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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/admin"
	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/config"
	"github.com/abuelmaaref/portfolio/internal/contact"
	"github.com/abuelmaaref/portfolio/internal/session"
	"github.com/abuelmaaref/portfolio/internal/storage"
	"github.com/abuelmaaref/portfolio/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

// service is the assembled server and everything it must release.
type service struct {
	http     *http.Server
	sched    *admin.Scheduler
	sessions *session.Manager
	closers  []func() error
}

func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// newService wires storage, sessions, contact, tracking, admin and the cron
// jobs into an http.Server. Nothing is listening or scheduled yet.
func newService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *service, err error) {
	svc := &service{}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	svc.closers = append(svc.closers, db.Close)

	checks := map[string]web.Check{"sqlite": db.PingContext}

	var store session.Store
	if cfg.Storage.RedisURL != "" {
		rs, err := session.NewRedisStoreFromURL(ctx, cfg.Storage.RedisURL, cfg.Storage.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		svc.closers = append(svc.closers, rs.Close)
		store = rs
		checks["redis"] = rs.Ping
	} else {
		logger.Info("REDIS_URL not set, sessions are kept in memory only")
	}
	svc.sessions = session.NewManager(cat.Records(), store, cfg.Storage.SessionTTL, logger.Named("session"))

	if !cfg.MailerReady() {
		logger.Warn("SMTP credentials not configured, contact messages will be stored but not sent")
	}
	mailer := contact.NewSMTPMailer(contact.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		To:       cfg.SMTP.To,
	})
	repo := contact.NewRepository(db)
	contactSvc := contact.NewService(repo, mailer, logger.Named("contact"))

	tracker := admin.NewTracker(db, cfg.Admin.HashSalt, logger.Named("tracking"))
	var adminHandler *admin.Handler
	if cfg.Admin.Token != "" {
		adminHandler = admin.NewHandler(cfg.Admin.Token, tracker, repo, cfg.Admin.VisitorRetention, logger.Named("admin"))
	} else {
		logger.Info("ADMIN_TOKEN not set, admin API disabled")
	}

	svc.sched = admin.NewScheduler(logger.Named("cron"))
	if err := svc.sched.AddCleanup(cfg.Admin.CleanupSchedule, tracker, cfg.Admin.VisitorRetention); err != nil {
		return nil, err
	}
	sessions := svc.sessions
	if err := svc.sched.Add(cfg.Admin.EvictionSchedule, "session-eviction", func(context.Context) error {
		if n := sessions.Evict(); n > 0 {
			logger.Debug("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", sessions.Len()))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := web.NewRouter(web.Options{
		Catalog:       cat,
		Sessions:      svc.sessions,
		Contact:       contactSvc,
		Tracker:       tracker,
		Admin:         adminHandler,
		Checks:        checks,
		Logger:        logger.Named("http"),
		ServiceName:   "portfolio",
		Version:       cfg.App.Version,
		CORSOrigins:   cfg.Server.CORSOrigins,
		StaticDir:     cfg.Server.StaticDir,
		ImagesDir:     cfg.Server.ImagesDir,
		SessionTTL:    cfg.Storage.SessionTTL,
		SecureCookies: !cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}

	svc.http = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return svc, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer svc.close()

	svc.sched.Start()
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting",
			zap.String("addr", svc.http.Addr),
			zap.String("env", a.cfg.App.Environment),
			zap.String("version", a.cfg.App.Version))
		errCh <- svc.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.http.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown", zap.Error(err))
	}
	svc.sched.Stop(shutdownCtx)
	return nil
}
