// Package app wires config, logging, IPC, and the session runtime behind the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/giak/dictee/internal/audio"
	"github.com/giak/dictee/internal/cli"
	"github.com/giak/dictee/internal/command"
	"github.com/giak/dictee/internal/config"
	"github.com/giak/dictee/internal/doctor"
	"github.com/giak/dictee/internal/indicator"
	"github.com/giak/dictee/internal/ipc"
	"github.com/giak/dictee/internal/logging"
	"github.com/giak/dictee/internal/output"
	"github.com/giak/dictee/internal/pipeline"
	"github.com/giak/dictee/internal/session"
	"github.com/giak/dictee/internal/version"
)

// forwardTimeout bounds one IPC round trip to a live session.
const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n%s", err, cli.HelpText("dictee"))
		return 2
	}

	switch {
	case parsed.ShowHelp:
		fmt.Fprint(r.Stdout, cli.HelpText("dictee"))
		return 0
	case parsed.Command == cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		return r.fail(1, "setup logging: %v", err)
	}
	defer func() { _ = logRuntime.Close() }()

	logger := logRuntime.Logger
	if r.Logger != nil {
		logger = r.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		logger.Error("load config failed", "error", err.Error())
		return r.fail(1, "%v", err)
	}
	r.printWarnings(logger, cfgLoaded.Warnings)

	logger.Info("command start",
		"command", string(parsed.Command),
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPause:
		return r.forwardOrFail(ctx, ipc.CommandPause)
	case cli.CommandResume:
		return r.forwardOrFail(ctx, ipc.CommandResume)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		return r.fail(2, "unsupported command %q", parsed.Command)
	}
}

// fail writes a formatted error line to stderr and returns the exit code.
func (r Runner) fail(code int, format string, args ...any) int {
	fmt.Fprintf(r.Stderr, "error: "+format+"\n", args...)
	return code
}

func (r Runner) printWarnings(logger *slog.Logger, warnings []config.Warning) {
	for _, w := range warnings {
		if w.Line > 0 {
			fmt.Fprintf(r.Stderr, "warning: line %d: %s\n", w.Line, w.Message)
		} else {
			fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		return r.fail(1, "%v", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio input devices found")
		return 1
	}

	yesNo := func(v bool) string {
		if v {
			return "yes"
		}
		return "no"
	}
	for _, device := range devices {
		mark := " "
		if device.Default {
			mark = "*"
		}
		fmt.Fprintf(r.Stdout, "%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			mark, device.ID, device.Description, device.State,
			yesNo(device.Available), yesNo(device.Muted))
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		// Without a runtime dir there is no socket, so no session either.
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	switch {
	case err != nil:
		return r.fail(1, "%v", err)
	case !handled, resp.State == "":
		fmt.Fprintln(r.Stdout, "stopped")
	default:
		fmt.Fprintln(r.Stdout, resp.State)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, cmd string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err == nil {
		var resp ipc.Response
		var handled bool
		resp, handled, err = tryForward(ctx, socketPath, cmd)
		switch {
		case err != nil:
		case !handled:
			err = errors.New("no active dictee session")
		default:
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
	}
	return r.fail(1, "%v", err)
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return r.fail(1, "%v", err)
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		return r.fail(1, "%v", err)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	table := command.NewTable(cfg.Commands.Extra, cfg.Commands.Disabled)
	interp := command.NewInterpreter(table, cfg.Recognizer.ScoreCutoff)
	stream := pipeline.NewStream(cfg, logger, table.Phrases())
	defer stream.Close()
	feedback := indicator.NewFeedback(cfg.Feedback, logger)

	typer, err := output.NewTyper(cfg)
	if err != nil {
		return r.fail(1, "%v", err)
	}

	controller := session.NewController(logger, cfg.Transcript, interp, stream, typer, feedback)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverDone := make(chan error, 1)
	go func() { serverDone <- ipc.Serve(serverCtx, listener, controller) }()

	result := controller.Run(ctx)
	serverCancel()
	if serveErr := <-serverDone; serveErr != nil {
		return r.fail(1, "ipc server failed: %v", serveErr)
	}

	logSessionResult(logger, result)

	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		return r.fail(1, "%v", result.Err)
	}

	fmt.Fprintln(r.Stdout, string(result.State))
	return 0
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	attrs := []any{
		"state", result.State,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"fragments", result.Fragments,
		"typed_runes", result.TypedRunes,
	}

	level, msg := slog.LevelInfo, "session complete"
	if result.Err != nil {
		level, msg = slog.LevelError, "session failed"
		attrs = append(attrs, "error", result.Err.Error())
	}
	logger.Log(context.Background(), level, msg, attrs...)
}

func tryForward(ctx context.Context, socketPath string, cmd string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: cmd}, forwardTimeout)
	switch {
	case err == nil && resp.OK:
		return resp, true, nil
	case err == nil:
		return resp, true, errors.New(resp.Error)
	case sessionUnreachable(err):
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", cmd, err)
}

// sessionUnreachable reports whether the send failure means no session is
// listening, as opposed to a live session misbehaving.
func sessionUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "no such file or directory")
}
