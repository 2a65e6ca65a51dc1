package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/dictee.conf", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/dictee.conf", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseAcceptsEveryCommand(t *testing.T) {
	wantByArg := map[string]Command{
		"run":     CommandRun,
		"pause":   CommandPause,
		"resume":  CommandResume,
		"stop":    CommandStop,
		"status":  CommandStatus,
		"devices": CommandDevices,
		"doctor":  CommandDoctor,
		"version": CommandVersion,
	}

	for arg, want := range wantByArg {
		parsed, err := Parse([]string{arg})
		require.NoError(t, err, arg)
		require.Equal(t, want, parsed.Command)
		require.False(t, parsed.ShowHelp, arg)
	}
}

func TestParseFlagForms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Parsed
	}{
		{"short help", []string{"-h"}, Parsed{Command: CommandHelp, ShowHelp: true}},
		{"long help", []string{"--help"}, Parsed{Command: CommandHelp, ShowHelp: true}},
		{"version flag", []string{"--version"}, Parsed{Command: CommandVersion}},
		{"config before command", []string{"--config", "/tmp/cfg", "run"}, Parsed{Command: CommandRun, ConfigPath: "/tmp/cfg"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			require.NoError(t, err)
			require.Equal(t, tc.want, parsed)
		})
	}
}

func TestParseRejectsMalformedInvocations(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"config after command", []string{"status", "--config", "/tmp/cfg"}, "unexpected arguments after command"},
		{"missing config path", []string{"--config"}, "requires a path"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"unknown command", []string{"bogus"}, "unknown command"},
		{"extra args after command", []string{"doctor", "extra"}, "unexpected arguments"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.args)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("dictee")
	for _, want := range []string{"run", "pause", "resume", "stop", "doctor", "--config PATH"} {
		require.Contains(t, text, want)
	}
}
