// Package cli parses the dictee command line surface.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandStop    Command = "stop"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

func isCommand(arg string) bool {
	switch Command(arg) {
	case CommandRun, CommandPause, CommandResume, CommandStop, CommandStatus,
		CommandDevices, CommandDoctor, CommandVersion, CommandHelp:
		return true
	}
	return false
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

// Parse reads flags and at most one command from args. No args means help.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") {
			switch arg {
			case "-h", "--help":
				parsed.Command = CommandHelp
				parsed.ShowHelp = true
			case "--version":
				parsed.Command = CommandVersion
				parsed.ShowHelp = false
			case "--config":
				i++
				if i >= len(args) {
					return Parsed{}, errors.New("--config requires a path")
				}
				parsed.ConfigPath = args[i]
			default:
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			continue
		}

		if !isCommand(arg) {
			return Parsed{}, fmt.Errorf("unknown command: %s", arg)
		}
		if i != len(args)-1 {
			return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
		}
		parsed.Command = Command(arg)
		parsed.ShowHelp = parsed.Command == CommandHelp
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  run       Start a dictation session (microphone -> keystrokes)
  pause     Pause keystroke injection in the active session
  resume    Resume keystroke injection in the active session
  stop      Stop the active dictation session
  status    Print current session state
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/dictee/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
