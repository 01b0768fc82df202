package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remfix/remfix/internal/api"
	"github.com/remfix/remfix/internal/config"
	"github.com/remfix/remfix/internal/database"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/runner"
	"github.com/remfix/remfix/internal/runner/tasks"
	"github.com/remfix/remfix/internal/service"
	"github.com/remfix/remfix/internal/telegram"
	"github.com/remfix/remfix/internal/telephony"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the CRM server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	logger := log.New(log.Writer(), "[SERVER] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	database.StartPoolStats(ctx, db, 15*time.Second)

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	masterRepo := repository.NewMasterRepository(db)
	callRepo := repository.NewCallRepository(db)
	fraudRepo := repository.NewFraudRepository(db)

	hub := realtime.NewHub()

	var notifier *telegram.Notifier
	ticketOpts := []service.TicketOption{}
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewNotifierFromToken(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		ticketOpts = append(ticketOpts, service.WithAssignmentNotifier(notifier))
	} else {
		logger.Printf("telegram bot token not configured, assignment prompts disabled")
	}

	authSvc := service.NewAuthService(users, sessions, cfg.Auth.SessionMaxAge, cfg.Auth.SessionIdleAge)
	ticketSvc := service.NewTicketService(ticketRepo, historyRepo, masterRepo, hub, ticketOpts...)
	masterSvc := service.NewMasterService(masterRepo, hub)
	statsSvc := service.NewStatsService(ticketRepo, masterRepo, fraudRepo, callRepo)
	telSvc := telephony.NewService(callRepo, hub, cfg.Telephony)

	jobs := runner.New()
	if err := jobs.Register(tasks.NewSessionCleanupTask(sessions, cfg.Auth.SessionMaxAge, cfg.Auth.SessionIdleAge, cfg.Runner.SessionCleanupInterval)); err != nil {
		return err
	}
	if err := jobs.Register(tasks.NewCallSweepTask(callRepo, cfg.Runner.CallSweepInterval)); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	a := api.New(api.Deps{
		Config:         cfg,
		Auth:           authSvc,
		Tickets:        ticketSvc,
		Masters:        masterSvc,
		Stats:          statsSvc,
		Telephony:      telSvc,
		Notifier:       notifier,
		Customers:      repository.NewCustomerRepository(db),
		ServiceCenters: repository.NewServiceCenterRepository(db),
		Fraud:          fraudRepo,
		Hub:            hub,
		Limiter:        middleware.NewLimiterFromConfig(cfg.RateLimit),
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: a.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
