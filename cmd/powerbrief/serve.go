package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/handlers"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/router"
	"github.com/powerbrief-dev/powerbrief/internal/scheduler"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
)

const (
	slackTimeout    = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.CloseDatabase()

	if err := db.MigrateDatabase(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	jobs := scheduler.NewScheduler(log)
	jobs.Start(scheduler.Options{
		Scorecard:        deps.Scorecard,
		ScorecardEvery:   cfg.Scorecard.SyncInterval,
		Automation:       deps.Automation,
		ExecutionTimeout: cfg.N8N.ExecutionTimeout,
		Progress:         deps.Progress,
	})
	defer jobs.Stop()

	deps.SchedulerStatus = jobs.GetStatus
	handlers.Configure(deps)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// launches outlive their request, so drain them before the database closes
	if err := deps.Launcher.Wait(shutdownCtx); err != nil {
		log.Warn("Ad launches still running at shutdown", "error", err)
	}

	return nil
}

// buildDependencies constructs every integration. Unconfigured ones stay nil
// and their endpoints answer 503.
func buildDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) (handlers.Dependencies, error) {
	d := handlers.Dependencies{
		Config:   cfg,
		Log:      log,
		Progress: progress.NewTracker(progress.DefaultTTL),
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return d, err
	}
	d.Store = store

	notifier := &services.Notifier{Slack: services.NewSlackClient(slackTimeout), Log: log}
	if mailer, err := services.NewSendGridMailer(cfg.SendGrid); err == nil {
		notifier.Mailer = mailer
	} else {
		logDisabled(log, "SendGrid", err)
	}
	d.Notifier = notifier

	if meta, err := services.NewGraphClient(cfg.Meta); err == nil {
		d.Meta = meta
	} else {
		logDisabled(log, "Meta", err)
	}

	if ai, err := services.NewGeminiGenerator(ctx, cfg.AI); err == nil {
		d.AI = ai
	} else {
		logDisabled(log, "Gemini", err)
	}

	if voice, err := services.NewElevenLabsClient(cfg.ElevenLabs); err == nil {
		d.Voice = voice
	} else {
		logDisabled(log, "ElevenLabs", err)
	}

	runner := &services.AutomationRunner{CallbackBaseURL: cfg.N8N.CallbackBaseURL, Log: log}
	if n8n, err := services.NewN8NClient(cfg.N8N); err == nil {
		runner.Trigger = n8n
	} else {
		logDisabled(log, "n8n", err)
	}
	d.Automation = runner

	d.Scorecard = &services.ScorecardSyncer{Meta: d.Meta, Log: log}
	d.Launcher = &services.AdLauncher{
		Meta:     d.Meta,
		Store:    d.Store,
		Progress: d.Progress,
		Notifier: d.Notifier,
		Workers:  services.DefaultLaunchWorkers,
		Log:      log,
	}

	return d, nil
}

func logDisabled(log logger.Logger, name string, err error) {
	if errors.Is(err, services.ErrNotConfigured) {
		log.Info(name + " integration disabled: not configured")
		return
	}
	log.Warn(name+" integration disabled", "error", err)
}
