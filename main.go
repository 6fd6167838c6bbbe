package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"fundboss/backend/config"
	"fundboss/backend/controllers"
	"fundboss/backend/logging"
	"fundboss/backend/middlewares"
	"fundboss/backend/routes"
	"fundboss/backend/services"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	port := pflag.String("port", "", "listen port (overrides PORT)")
	logLevel := pflag.String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, closer := logging.New(cfg.LogLevel, cfg.LogFile)
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openState(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	leadStore, err := newLeadStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var captcha services.Captcha
	if cfg.CaptchaMode == config.CaptchaModeStored {
		captcha = services.NewStoredCaptcha(st.challenges, cfg.CaptchaTTL)
	} else {
		captcha = services.NewSignedCaptcha(cfg.CaptchaSecret, cfg.CaptchaTTL)
	}

	leads := &services.LeadService{
		Store:       leadStore,
		Pending:     st.pending,
		Submissions: st.submissions,
		Timeout:     cfg.StoreTimeout,
		Logger:      logger,
	}
	janitor := &services.MigrationJanitor{
		Store:       leadStore,
		Pending:     st.pending,
		Interval:    cfg.JanitorInterval,
		MaxAttempts: cfg.JanitorMaxAttempts,
		Timeout:     cfg.StoreTimeout,
		Logger:      logger,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger), middlewares.CORS(cfg.CORSOrigin))
	routes.Register(r, controllers.Deps{
		Captcha:     captcha,
		Identity:    services.NewMockIdentityChecker(cfg.PANCheckDelay),
		Leads:       leads,
		Submissions: st.submissions,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "leadStore", cfg.LeadStore, "captchaMode", cfg.CaptchaMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return janitor.Run(gctx)
	})
	return g.Wait()
}
