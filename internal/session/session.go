// Package session coordinates dictation lifecycle state, voice commands, and
// keystroke side effects.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/giak/dictee/internal/command"
	"github.com/giak/dictee/internal/config"
	"github.com/giak/dictee/internal/fsm"
	"github.com/giak/dictee/internal/ipc"
	"github.com/giak/dictee/internal/output"
	"github.com/giak/dictee/internal/speech"
	"github.com/giak/dictee/internal/transcript"
)

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State         fsm.State
	Err           error
	AudioDevice   string
	BytesCaptured int64
	Fragments     int
	TypedRunes    int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Indicator is the session-facing subset of feedback behavior.
type Indicator interface {
	CueStart(context.Context)
	CueStop(context.Context)
	CueError(context.Context)
	NotifyRunning(context.Context)
	NotifyPaused(context.Context)
	NotifyStopped(context.Context)
}

// noopIndicator preserves session flow when no feedback is wired.
type noopIndicator struct{}

func (noopIndicator) CueStart(context.Context)      {}
func (noopIndicator) CueStop(context.Context)       {}
func (noopIndicator) CueError(context.Context)      {}
func (noopIndicator) NotifyRunning(context.Context) {}
func (noopIndicator) NotifyPaused(context.Context)  {}
func (noopIndicator) NotifyStopped(context.Context) {}

// noopTyper preserves session flow when no actuator is wired.
type noopTyper struct{}

func (noopTyper) Type(context.Context, string) error      { return nil }
func (noopTyper) Press(context.Context, output.Key) error { return nil }

// Controller orchestrates session state transitions and side effects. Voice
// commands and IPC requests funnel into the same FSM; keystrokes are only
// injected while the session is running.
type Controller struct {
	logger     *slog.Logger
	transcript config.TranscriptConfig
	interp     *command.Interpreter
	source     Source
	typer      output.Typer
	indicator  Indicator

	mu    sync.RWMutex
	state fsm.State

	events chan fsm.Event
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	transcriptCfg config.TranscriptConfig,
	interp *command.Interpreter,
	source Source,
	typer output.Typer,
	ind Indicator,
) *Controller {
	if interp == nil {
		interp = command.NewInterpreter(nil, 0)
	}
	if typer == nil {
		typer = noopTyper{}
	}
	if ind == nil {
		ind = noopIndicator{}
	}

	return &Controller{
		logger:     logger,
		transcript: transcriptCfg,
		interp:     interp,
		source:     source,
		typer:      typer,
		indicator:  ind,
		state:      fsm.StateRunning,
		events:     make(chan fsm.Event, 4),
	}
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one lifecycle event, rejecting moves the state machine
// does not allow.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err == nil {
		c.state = next
	}
	return err
}

// Run executes one dictation lifecycle until a stop command, context
// cancellation, or pipeline failure ends it.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	if c.source == nil {
		result.State = c.setStopped()
		result.Err = ErrPipelineUnavailable
		result.FinishedAt = time.Now()
		return result
	}

	if err := c.source.Start(ctx); err != nil {
		c.indicator.CueError(ctx)
		result.State = c.setStopped()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}
	defer c.source.Close()

	c.indicator.CueStart(ctx)
	c.indicator.NotifyRunning(ctx)

	results := c.source.Results()

	for {
		select {
		case <-ctx.Done():
			_ = c.transition(fsm.EventStop)
			c.indicator.CueStop(context.Background())
			c.indicator.NotifyStopped(context.Background())
			result.Err = ctx.Err()
			c.finish(context.Background(), &result)
			return result

		case event := <-c.events:
			if done := c.applyControl(ctx, event); done {
				c.finish(ctx, &result)
				return result
			}

		case res, ok := <-results:
			if !ok {
				// The stream ended without a stop command; treat it as
				// an implicit stop so callers still get a summary.
				_ = c.transition(fsm.EventStop)
				c.indicator.CueStop(ctx)
				c.indicator.NotifyStopped(ctx)
				c.finish(ctx, &result)
				return result
			}
			result.Fragments++
			if done := c.handleResult(ctx, res, &result); done {
				c.finish(ctx, &result)
				return result
			}
		}
	}
}

// applyControl performs one pause/resume/stop transition plus its feedback.
// Repeated pause or resume requests are no-ops. The return reports session end.
func (c *Controller) applyControl(ctx context.Context, event fsm.Event) bool {
	state := c.State()
	if err := c.transition(event); err != nil {
		if isRedundant(state, event) {
			return false
		}
		c.logDebug("ignored control event", "event", string(event), "state", string(state))
		return false
	}

	switch event {
	case fsm.EventPause:
		c.indicator.CueStop(ctx)
		c.indicator.NotifyPaused(ctx)
		c.logInfo("dictation paused")
	case fsm.EventResume:
		c.indicator.CueStart(ctx)
		c.indicator.NotifyRunning(ctx)
		c.logInfo("dictation resumed")
	case fsm.EventStop:
		c.indicator.CueStop(ctx)
		c.indicator.NotifyStopped(ctx)
		c.logInfo("dictation stopped")
		return true
	}
	return false
}

// isRedundant reports pause-while-paused and resume-while-running requests.
func isRedundant(state fsm.State, event fsm.Event) bool {
	return (state == fsm.StatePaused && event == fsm.EventPause) ||
		(state == fsm.StateRunning && event == fsm.EventResume)
}

// handleResult interprets one recognized fragment and applies its actions.
// Command phrases always fire; plain text is injected only while running.
func (c *Controller) handleResult(ctx context.Context, res speech.Result, result *Result) bool {
	actions, ok := c.interp.Interpret(res.Text, res.Confidence)
	if !ok {
		c.logDebug("fragment discarded", "text", res.Text, "confidence", res.Confidence)
		return false
	}

	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		text := c.formatRun(run)
		run = nil
		if text == "" {
			return
		}
		if err := c.typer.Type(ctx, text); err != nil {
			c.logWarn(fmt.Sprintf("keystroke injection failed: %v", err))
			c.indicator.CueError(ctx)
			return
		}
		result.TypedRunes += len([]rune(text))
	}

	typing := c.State() == fsm.StateRunning

	for _, action := range actions {
		switch action.Kind {
		case command.KindText, command.KindLiteral:
			if typing {
				run = append(run, action.Text)
			}
		case command.KindNewline:
			if typing {
				flush()
				c.pressOrLog(ctx, result, "\n")
			}
		case command.KindBackspace:
			if typing {
				flush()
				c.pressKey(ctx, output.KeyBackspace)
			}
		case command.KindPause:
			flush()
			c.applyControl(ctx, fsm.EventPause)
			typing = false
		case command.KindResume:
			c.applyControl(ctx, fsm.EventResume)
			typing = c.State() == fsm.StateRunning
		case command.KindStop:
			flush()
			if done := c.applyControl(ctx, fsm.EventStop); done {
				return true
			}
		case command.KindDeleteLine:
			if typing {
				flush()
				c.pressKey(ctx, output.KeyDeleteLine)
			}
		}
	}
	flush()
	return false
}

// pressOrLog types a raw sequence, logging failures without ending the session.
func (c *Controller) pressOrLog(ctx context.Context, result *Result, text string) {
	if err := c.typer.Type(ctx, text); err != nil {
		c.logWarn(fmt.Sprintf("keystroke injection failed: %v", err))
		c.indicator.CueError(ctx)
		return
	}
	result.TypedRunes += len([]rune(text))
}

// pressKey dispatches a non-text keystroke, logging failures.
func (c *Controller) pressKey(ctx context.Context, key output.Key) {
	if err := c.typer.Press(ctx, key); err != nil {
		c.logWarn(fmt.Sprintf("keypress %s failed: %v", key, err))
		c.indicator.CueError(ctx)
	}
}

// formatRun joins coalesced text/literal parts and applies transcript passes.
// Literal punctuation joins with a space so the spacing pass can normalize
// "bonjour ," into "bonjour,".
func (c *Controller) formatRun(parts []string) string {
	joined := strings.Join(parts, " ")
	formatted := transcript.Format(joined, transcript.Options{
		RemoveHesitations:   c.transcript.RemoveHesitations,
		FormatNumbers:       c.transcript.FormatNumbers,
		SpacePunctuation:    c.transcript.SpacePunctuation,
		CapitalizeSentences: c.transcript.CapitalizeSentences,
	})
	if formatted == "" {
		return ""
	}
	if c.transcript.TrailingSpace {
		formatted += " "
	}
	return formatted
}

// finish stops the pipeline, drains residual results, and stamps totals.
func (c *Controller) finish(ctx context.Context, result *Result) {
	summary, err := c.source.Stop(ctx)
	if err != nil && result.Err == nil {
		result.Err = err
	}
	result.AudioDevice = summary.AudioDevice
	result.BytesCaptured = summary.BytesCaptured

	if results := c.source.Results(); results != nil {
		for range results {
		}
	}

	result.State = c.State()
	result.FinishedAt = time.Now()
}

// setStopped forces the terminal state on unrecoverable startup failures.
func (c *Controller) setStopped() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fsm.StateStopped
	return c.state
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Message: "status"}
	case ipc.CommandPause:
		return c.request(fsm.EventPause)
	case ipc.CommandResume:
		return c.request(fsm.EventResume)
	case ipc.CommandStop:
		return c.request(fsm.EventStop)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// request validates and enqueues one control event for the run loop.
func (c *Controller) request(event fsm.Event) ipc.Response {
	state := c.State()

	if isRedundant(state, event) {
		return ipc.Response{OK: true, State: string(state), Message: fmt.Sprintf("already %s", state)}
	}
	if _, err := fsm.Transition(state, event); err != nil {
		return ipc.Response{OK: false, State: string(state), Error: err.Error()}
	}

	select {
	case c.events <- event:
		return ipc.Response{OK: true, State: string(state), Message: fmt.Sprintf("%s requested", event)}
	default:
		return ipc.Response{OK: true, State: string(state), Message: fmt.Sprintf("%s already requested", event)}
	}
}

// logInfo emits info-level logs when logger is configured.
func (c *Controller) logInfo(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, args...)
}

// logWarn emits warning-level logs when logger is configured.
func (c *Controller) logWarn(message string) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message)
}

// logDebug emits debug-level logs when logger is configured.
func (c *Controller) logDebug(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
