package handlers

import (
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
)

// Dependencies are the integrations handlers reach through package state.
// Optional integrations are nil when not configured.
type Dependencies struct {
	Config     *config.Config
	Log        logger.Logger
	Notifier   *services.Notifier
	Automation *services.AutomationRunner
	Scorecard  *services.ScorecardSyncer
	Launcher   *services.AdLauncher
	Meta       services.MetaAPI
	AI         services.Generator
	Voice      services.Synthesizer
	Store      storage.Store
	Progress   *progress.Tracker

	// SchedulerStatus reports background jobs on the health endpoint.
	SchedulerStatus func() map[string]interface{}
}

var deps Dependencies

func init() {
	Configure(Dependencies{})
}

// Configure replaces the handler dependencies. Call it before serving.
func Configure(d Dependencies) {
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Notifier == nil {
		d.Notifier = &services.Notifier{Log: d.Log}
	}
	if d.Automation == nil {
		d.Automation = &services.AutomationRunner{Log: d.Log}
	}
	if d.Scorecard == nil {
		d.Scorecard = &services.ScorecardSyncer{Meta: d.Meta, Log: d.Log}
	}
	if d.Progress == nil {
		d.Progress = progress.NewTracker(progress.DefaultTTL)
	}
	if d.Launcher == nil {
		d.Launcher = &services.AdLauncher{
			Meta:     d.Meta,
			Store:    d.Store,
			Progress: d.Progress,
			Notifier: d.Notifier,
			Log:      d.Log,
		}
	}
	deps = d
}
