// Package app wires the application together.
package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/narennaik/convey/internal/audio"
	"github.com/narennaik/convey/internal/config"
	"github.com/narennaik/convey/internal/dialog"
	"github.com/narennaik/convey/internal/history"
	"github.com/narennaik/convey/internal/inject"
	"github.com/narennaik/convey/internal/keymon"
	"github.com/narennaik/convey/internal/notify"
	"github.com/narennaik/convey/internal/transcribe"
	"github.com/narennaik/convey/internal/tray"
	"github.com/narennaik/convey/internal/workflow"
)

// App is the assembled application.
type App struct {
	cfg      *config.Config
	recorder *audio.Recorder
	injector *inject.Injector
	store    *history.Store
	keys     *keymon.Source
	orch     *workflow.Orchestrator
	notifier *notify.Notifier
	tray     *tray.Tray

	cancel context.CancelFunc

	permissionDialog sync.Once
	engineDialog     sync.Once

	closeOnce sync.Once
}

// New assembles the application.
func New() (*App, error) {
	cfg := config.New()

	recorder, err := audio.New()
	if err != nil {
		return nil, err
	}

	injector, err := inject.New()
	if err != nil {
		recorder.Close()
		return nil, err
	}

	store, err := history.Open(historyPath())
	if err != nil {
		recorder.Close()
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		recorder: recorder,
		injector: injector,
		store:    store,
		keys:     keymon.New(),
		notifier: notify.New(cfg.NotificationsEnabled()),
	}

	a.orch = workflow.New(workflow.Deps{
		Keys:        a.keys.Events(),
		Recorder:    recorder,
		Transcriber: transcriberFromConfig{cfg: cfg},
		Injector:    injector,
		History:     historyWithLanguage{store: store, cfg: cfg},
		Settings:    cfg,
		Sink:        a,
	}, workflow.Options{})

	a.tray = tray.New(tray.Callbacks{
		OnToggleRecording:     a.toggleRecording,
		OnAutoPasteToggle:     cfg.ToggleAutoPaste,
		OnEnterDetectToggle:   cfg.ToggleEnterDetection,
		OnNotificationsToggle: a.toggleNotifications,
		OnHotkeyClick:         a.changeHotkey,
		OnQuit:                a.Close,
	}, cfg.AutoPaste(), cfg.EnterDetection(), cfg.NotificationsEnabled())

	return a, nil
}

// Run starts the tray loop and blocks until quit.
func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.orch.Run(ctx)

	a.tray.Run(func() {
		if err := a.keys.Register(a.cfg.Hotkey()); err != nil {
			// The Unavailable event reaches the orchestrator through the
			// key channel; nothing more to do here.
			log.Error().Err(err).Msg("push-to-talk registration failed")
			return
		}
		log.Info().Str("hotkey", a.cfg.Hotkey().String()).Msg("ready, hold the hotkey to dictate")
	})
}

// Publish reacts to workflow transitions. Called from the workflow's run
// loop, so anything slow goes to its own goroutine.
func (a *App) Publish(snap workflow.Snapshot) {
	switch snap.State {
	case workflow.StateIdle:
		a.tray.SetState(tray.StateIdle, "")
	case workflow.StateRecording:
		a.tray.SetState(tray.StateRecording, "")
		a.notifier.Recording()
	case workflow.StateTranscribing:
		a.tray.SetState(tray.StateProcessing, "")
		a.notifier.Processing()
	case workflow.StateInjecting:
		a.tray.SetState(tray.StateProcessing, "")
		a.notifier.Success(snap.Text)
	case workflow.StateFailed:
		a.tray.SetState(tray.StateError, snap.Reason)
		a.notifier.Error(snap.Reason)

		switch snap.Failure {
		case workflow.FailurePermission:
			a.permissionDialog.Do(func() { go dialog.ShowPermissionHelp() })
		case workflow.FailureEngineNotFound:
			a.engineDialog.Do(func() { go dialog.ShowEngineMissing() })
		}
	}
}

// toggleRecording gives the tray menu item push-to-talk semantics: first
// click starts a dictation, second click finishes it.
func (a *App) toggleRecording() {
	if a.orch.Snapshot().State == workflow.StateRecording {
		a.orch.Trigger(keymon.KeyUp)
	} else {
		a.orch.Trigger(keymon.KeyDown)
	}
}

func (a *App) toggleNotifications() bool {
	enabled := a.cfg.ToggleNotifications()
	a.notifier.SetEnabled(enabled)
	return enabled
}

func (a *App) changeHotkey() {
	hk, err := dialog.SelectHotkey(a.cfg.Hotkey())
	if err != nil {
		return // cancelled
	}
	a.cfg.SetHotkey(hk)
	if err := a.keys.Register(hk); err != nil {
		log.Error().Err(err).Str("hotkey", hk.String()).Msg("rebind failed")
		dialog.ShowError("Convey", "Could not register "+hk.String())
		return
	}
	log.Info().Str("hotkey", hk.String()).Msg("hotkey changed")
}

// Close shuts everything down. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.keys.Close()
		a.recorder.Close()
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("history close failed")
		}
	})
}

func historyPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "convey", "transcriptions.db")
}

// transcriberFromConfig builds a runner per call so language, paths and
// timeout changes take effect without restarting.
type transcriberFromConfig struct {
	cfg *config.Config
}

func (t transcriberFromConfig) Transcribe(ctx context.Context, samples []float32) (string, error) {
	runner := transcribe.NewRunner(transcribe.Config{
		CLIPath:   t.cfg.WhisperCLIPath(),
		ModelPath: t.cfg.ModelPath(),
		Language:  t.cfg.Language(),
		Timeout:   t.cfg.TranscribeTimeout(),
	})
	return runner.Transcribe(ctx, samples)
}

// historyWithLanguage stamps entries with the configured language.
type historyWithLanguage struct {
	store *history.Store
	cfg   *config.Config
}

func (h historyWithLanguage) Append(text string, completedAt time.Time, duration time.Duration) error {
	return h.store.Append(text, h.cfg.Language(), completedAt, duration)
}
