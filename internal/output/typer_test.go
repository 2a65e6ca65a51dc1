package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/giak/dictee/internal/config"
	"github.com/stretchr/testify/require"
)

func TestResolveToolAutoPrefersWaylandWhenPresent(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")
	tool, err := ResolveTool("auto")
	require.NoError(t, err)
	require.Equal(t, "wtype", tool)
}

func TestResolveToolAutoFallsBackToXdotool(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "")
	tool, err := ResolveTool("")
	require.NoError(t, err)
	require.Equal(t, "xdotool", tool)
}

func TestResolveToolExplicitAndUnknown(t *testing.T) {
	tool, err := ResolveTool("XdoTool")
	require.NoError(t, err)
	require.Equal(t, "xdotool", tool)

	_, err = ResolveTool("ydotool")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown typing tool")
}

func TestTypeArgvPerTool(t *testing.T) {
	require.Equal(t,
		[]string{"xdotool", "type", "--clearmodifiers", "--", "bonjour"},
		typeArgv("xdotool", "bonjour"))
	require.Equal(t,
		[]string{"wtype", "bonjour"},
		typeArgv("wtype", "bonjour"))
}

func TestKeyArgvPerTool(t *testing.T) {
	argv, err := keyArgv("xdotool", KeyBackspace)
	require.NoError(t, err)
	require.Equal(t, []string{"xdotool", "key", "--clearmodifiers", "BackSpace"}, argv)

	argv, err = keyArgv("xdotool", KeyDeleteLine)
	require.NoError(t, err)
	require.Equal(t, []string{"xdotool", "key", "--clearmodifiers", "ctrl+u"}, argv)

	argv, err = keyArgv("wtype", KeyBackspace)
	require.NoError(t, err)
	require.Equal(t, []string{"wtype", "-k", "BackSpace"}, argv)

	argv, err = keyArgv("wtype", KeyDeleteLine)
	require.NoError(t, err)
	require.Equal(t, []string{"wtype", "-M", "ctrl", "-k", "u", "-m", "ctrl"}, argv)

	_, err = keyArgv("xdotool", Key("escape"))
	require.Error(t, err)
}

func TestNewTyperUsesCustomCommandWhenConfigured(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "typed.txt")

	cfg := config.Default()
	cfg.Typing.Tool = "xdotool"
	cfg.Typing.TypeCmd = config.CommandConfig{Argv: []string{scriptPath, outputPath}}

	typer, err := NewTyper(cfg)
	require.NoError(t, err)

	require.NoError(t, typer.Type(context.Background(), "bonjour tout le monde"))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "bonjour tout le monde", string(data))
}

func TestNewTyperRejectsUnknownTool(t *testing.T) {
	cfg := config.Default()
	cfg.Typing.Tool = "sendkeys"

	_, err := NewTyper(cfg)
	require.Error(t, err)
}

func TestCommandTyperSkipsEmptyText(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "typed.txt")

	typer := &commandTyper{argv: []string{scriptPath, outputPath}, keys: &toolTyper{tool: "xdotool"}}
	require.NoError(t, typer.Type(context.Background(), ""))

	_, statErr := os.Stat(outputPath)
	require.Error(t, statErr)
	require.True(t, os.IsNotExist(statErr))
}

func TestCommandTyperReportsFailure(t *testing.T) {
	failScript := writeFailScript(t, "injection failed")

	typer := &commandTyper{argv: []string{failScript}, keys: &toolTyper{tool: "xdotool"}}
	err := typer.Type(context.Background(), "bonjour")
	require.Error(t, err)
	require.Contains(t, err.Error(), "type text")
}

func TestToolTyperSkipsEmptyText(t *testing.T) {
	typer := &toolTyper{tool: "xdotool"}
	require.NoError(t, typer.Type(context.Background(), ""))
}

func TestToolTyperPressViaStub(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.log")
	installArgCaptureStub(t, "xdotool", argsFile)

	typer := &toolTyper{tool: "xdotool"}
	require.NoError(t, typer.Press(context.Background(), KeyDeleteLine))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "key --clearmodifiers ctrl+u\n", string(data))
}

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from dictee")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from dictee", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")

	err = runCommand(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func installArgCaptureStub(t *testing.T, name string, argsFile string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := `#!/usr/bin/env bash
set -euo pipefail
printf '%s\n' "$*" >> "` + argsFile + `"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
