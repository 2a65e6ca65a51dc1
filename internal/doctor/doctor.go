// Package doctor runs runtime readiness diagnostics for config, model, tools, and audio.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/giak/dictee/internal/audio"
	"github.com/giak/dictee/internal/config"
	"github.com/giak/dictee/internal/output"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

func pass(name, format string, args ...any) Check {
	return Check{Name: name, Pass: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Check {
	return Check{Name: name, Pass: false, Message: fmt.Sprintf(format, args...)}
}

func (c Check) label() string {
	if c.Pass {
		return "OK"
	}
	return "FAIL"
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", check.label(), check.Name, check.Message))
	}
	return strings.Join(lines, "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{pass("config", "loaded %q", cfg.Path)}
	checks = append(checks,
		checkModelDir(cfg.Config),
		checkTypingTool(cfg.Config),
	)
	if cfg.Config.Feedback.SoundEnable {
		checks = append(checks, checkCommand(cfg.Config.Feedback.PlayerCmd.Argv, "feedback.player_cmd"))
		checks = append(checks, checkSoundFiles(cfg.Config.Feedback)...)
	}
	checks = append(checks, checkAudioSelection(cfg.Config))
	return Report{Checks: checks}
}

// checkModelDir validates the recognition model directory exists.
func checkModelDir(cfg config.Config) Check {
	path := config.ExpandUserPath(cfg.Model.Path)
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return fail("model.path", "model directory not found: %s", path)
	case !info.IsDir():
		return fail("model.path", "model path is not a directory: %s", path)
	}
	return pass("model.path", "found %s", path)
}

// checkTypingTool validates the keystroke backend is runnable.
func checkTypingTool(cfg config.Config) Check {
	if argv := cfg.Typing.TypeCmd.Argv; len(argv) > 0 {
		return checkCommand(argv, "typing.type_cmd")
	}
	tool, err := output.ResolveTool(cfg.Typing.Tool)
	if err != nil {
		return fail("typing.tool", "%s", err.Error())
	}
	return checkBinary(tool, "keystroke injection tool")
}

// checkSoundFiles validates configured cue files are readable.
func checkSoundFiles(cfg config.FeedbackConfig) []Check {
	cues := map[string]string{
		"feedback.sound_start": cfg.SoundStartFile,
		"feedback.sound_stop":  cfg.SoundStopFile,
		"feedback.sound_error": cfg.SoundErrorFile,
	}
	order := []string{"feedback.sound_start", "feedback.sound_stop", "feedback.sound_error"}

	checks := make([]Check, 0, len(order))
	for _, name := range order {
		path := config.ExpandUserPath(cues[name])
		switch {
		case path == "":
			checks = append(checks, pass(name, "not configured; synthesized cue will play"))
		case !statOK(path):
			checks = append(checks, fail(name, "cue file not readable: %s", path))
		default:
			checks = append(checks, pass(name, "found %s", path))
		}
	}
	return checks
}

func statOK(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return fail(name, "command is empty")
	}
	return checkBinary(argv[0], name+" command is available")
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fail(bin, "binary not found in PATH: %s", bin)
	}
	return pass(bin, "found at %s (%s)", path, okMsg)
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return fail("audio.device", "%s", err.Error())
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message += " (" + selection.Warning + ")"
	}
	return pass("audio.device", "%s", message)
}
