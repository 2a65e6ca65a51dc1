// Package indicator handles audible feedback cues and optional desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/giak/dictee/internal/config"
)

// Controller is the session-facing feedback contract.
type Controller interface {
	CueStart(context.Context)
	CueStop(context.Context)
	CueError(context.Context)
	NotifyRunning(context.Context)
	NotifyPaused(context.Context)
	NotifyStopped(context.Context)
}

// Feedback is the concrete feedback implementation used by runtime sessions.
// Cues play through feedback.player_cmd with a synthesized Pulse fallback;
// state notifications go through the desktop notification server.
type Feedback struct {
	cfg      config.FeedbackConfig
	logger   *slog.Logger
	messages messages

	soundMu sync.Mutex
}

// NewFeedback creates a feedback controller from config.
func NewFeedback(cfg config.FeedbackConfig, logger *slog.Logger) *Feedback {
	return &Feedback{
		cfg:      cfg,
		logger:   logger,
		messages: feedbackMessagesFromEnv(),
	}
}

// CueStart signals that dictation started or resumed.
func (f *Feedback) CueStart(ctx context.Context) {
	f.playCue(ctx, cueStart)
}

// CueStop signals that dictation paused or stopped.
func (f *Feedback) CueStop(ctx context.Context) {
	f.playCue(ctx, cueStop)
}

// CueError signals a pipeline failure.
func (f *Feedback) CueError(ctx context.Context) {
	f.playCue(ctx, cueError)
}

// NotifyRunning announces the running state on the desktop.
func (f *Feedback) NotifyRunning(ctx context.Context) {
	f.notify(ctx, f.messages.running)
}

// NotifyPaused announces the paused state on the desktop.
func (f *Feedback) NotifyPaused(ctx context.Context) {
	f.notify(ctx, f.messages.paused)
}

// NotifyStopped announces the stopped state on the desktop.
func (f *Feedback) NotifyStopped(ctx context.Context) {
	f.notify(ctx, f.messages.stopped)
}

// playCue serializes cue playback and emits audio asynchronously.
func (f *Feedback) playCue(ctx context.Context, kind cueKind) {
	if !f.cfg.SoundEnable {
		return
	}
	go func() {
		f.soundMu.Lock()
		defer f.soundMu.Unlock()
		if err := emitCue(ctx, kind, f.cfg); err != nil {
			f.log("feedback audio cue failed", err)
		}
	}()
}

// notify dispatches a desktop notification when feedback.notify_enable is set.
func (f *Feedback) notify(_ context.Context, text string) {
	if !f.cfg.NotifyEnable || text == "" {
		return
	}
	if err := beeep.Notify("dictee", text, ""); err != nil {
		f.log("feedback desktop notify failed", err)
	}
}

// log emits debug-only feedback failures to the runtime logger.
func (f *Feedback) log(message string, err error) {
	if f.logger == nil || err == nil {
		return
	}
	f.logger.Debug(message, "error", err.Error())
}
