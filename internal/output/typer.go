// Package output injects recognized text into the focused window as synthetic keystrokes.
package output

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/giak/dictee/internal/config"
)

// Key names a non-text keystroke the actuator can press.
type Key string

const (
	// KeyBackspace erases the character left of the caret.
	KeyBackspace Key = "backspace"
	// KeyDeleteLine erases the current line (ctrl+u semantics).
	KeyDeleteLine Key = "delete-line"
)

const commandTimeout = 2 * time.Second

// Typer sends synthesized keystrokes to the focused window.
type Typer interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key Key) error
}

// NewTyper builds the keystroke backend from runtime config: a custom
// typing.type_cmd when configured, otherwise xdotool or wtype resolved
// from typing.tool.
func NewTyper(cfg config.Config) (Typer, error) {
	tool, err := ResolveTool(cfg.Typing.Tool)
	if err != nil {
		return nil, err
	}

	base := &toolTyper{tool: tool}
	if len(cfg.Typing.TypeCmd.Argv) > 0 {
		return &commandTyper{argv: cfg.Typing.TypeCmd.Argv, keys: base}, nil
	}
	return base, nil
}

// ResolveTool maps typing.tool to a concrete binary. "auto" picks wtype on
// Wayland sessions and xdotool everywhere else.
func ResolveTool(tool string) (string, error) {
	tool = strings.TrimSpace(strings.ToLower(tool))
	switch tool {
	case "", "auto":
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			return "wtype", nil
		}
		return "xdotool", nil
	case "xdotool", "wtype":
		return tool, nil
	default:
		return "", fmt.Errorf("unknown typing tool %q (want auto, xdotool, or wtype)", tool)
	}
}

// toolTyper drives xdotool or wtype directly.
type toolTyper struct {
	tool string
}

func (t *toolTyper) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := runCommand(ctx, typeArgv(t.tool, text)); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

func (t *toolTyper) Press(ctx context.Context, key Key) error {
	argv, err := keyArgv(t.tool, key)
	if err != nil {
		return err
	}
	if err := runCommand(ctx, argv); err != nil {
		return fmt.Errorf("press %s: %w", key, err)
	}
	return nil
}

// typeArgv builds the text injection command line for a tool.
func typeArgv(tool string, text string) []string {
	if tool == "wtype" {
		return []string{"wtype", text}
	}
	return []string{"xdotool", "type", "--clearmodifiers", "--", text}
}

// keyArgv builds the keypress command line for a tool.
func keyArgv(tool string, key Key) ([]string, error) {
	switch key {
	case KeyBackspace:
		if tool == "wtype" {
			return []string{"wtype", "-k", "BackSpace"}, nil
		}
		return []string{"xdotool", "key", "--clearmodifiers", "BackSpace"}, nil
	case KeyDeleteLine:
		if tool == "wtype" {
			return []string{"wtype", "-M", "ctrl", "-k", "u", "-m", "ctrl"}, nil
		}
		return []string{"xdotool", "key", "--clearmodifiers", "ctrl+u"}, nil
	default:
		return nil, fmt.Errorf("unknown key %q", key)
	}
}

// commandTyper sends text to a user-supplied typing.type_cmd via stdin and
// delegates keypresses to the resolved tool backend.
type commandTyper struct {
	argv []string
	keys Typer
}

func (t *commandTyper) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	if err := runCommandWithInput(cmdCtx, t.argv, text); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

func (t *commandTyper) Press(ctx context.Context, key Key) error {
	return t.keys.Press(ctx, key)
}

// runCommand executes argv without stdin and waits for completion.
func runCommand(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
