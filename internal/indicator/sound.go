package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/giak/dictee/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueError
)

const cueSampleRate = 16000

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

// cuePCM holds the synthesized fallback tones: a rising two-note chirp for
// start, a single low note for stop, and a falling pair for errors.
var cuePCM = map[cueKind][]int16{
	cueStart: synthesizeCue([]toneSpec{
		{frequencyHz: 880, duration: 70 * time.Millisecond, volume: 0.18},
		{frequencyHz: 1175, duration: 70 * time.Millisecond, volume: 0.18},
	}),
	cueStop: synthesizeCue([]toneSpec{
		{frequencyHz: 620, duration: 120 * time.Millisecond, volume: 0.18},
	}),
	cueError: synthesizeCue([]toneSpec{
		{frequencyHz: 480, duration: 75 * time.Millisecond, volume: 0.18},
		{frequencyHz: 360, duration: 90 * time.Millisecond, volume: 0.18},
	}),
}

// emitCue plays the configured cue file through feedback.player_cmd, falling
// back to a synthesized tone on the Pulse server when the file is missing or
// the player fails.
func emitCue(ctx context.Context, kind cueKind, cfg config.FeedbackConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if path := cuePath(kind, cfg); path != "" {
		if err := playCueFile(ctx, cfg.PlayerCmd.Argv, path); err == nil {
			return nil
		}
	}

	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}

	return playSynthCue(samples)
}

func cuePath(kind cueKind, cfg config.FeedbackConfig) string {
	var raw string
	switch kind {
	case cueStart:
		raw = cfg.SoundStartFile
	case cueStop:
		raw = cfg.SoundStopFile
	case cueError:
		raw = cfg.SoundErrorFile
	default:
		return ""
	}
	return config.ExpandUserPath(raw)
}

func playCueFile(ctx context.Context, playerArgv []string, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	if len(playerArgv) == 0 {
		playerArgv = []string{"paplay"}
	}
	argv := append(append([]string(nil), playerArgv...), path)

	runCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSynthCue(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dictee"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("dictee feedback cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}

	return nil
}

func cueSamples(kind cueKind) []int16 {
	return cuePCM[kind]
}

// synthesizeCue concatenates the tones of one cue with short silent gaps.
func synthesizeCue(parts []toneSpec) []int16 {
	if len(parts) == 0 {
		return nil
	}

	gap := make([]int16, samplesForDuration(22*time.Millisecond))
	var pcm []int16
	for i, part := range parts {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(part)...)
	}
	return pcm
}

// synthesizeTone renders one sine tone with a short linear attack/release
// ramp so the cue does not click.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := n / 10
	if limit := cueSampleRate / 200; ramp > limit { // cap ramp at 5ms
		ramp = limit
	}
	if ramp < 1 {
		ramp = 1
	}
	envelope := func(i int) float64 {
		gain := 1.0
		if attack := float64(i) / float64(ramp); attack < gain {
			gain = attack
		}
		if release := float64(n-i-1) / float64(ramp); release < gain {
			gain = release
		}
		return gain
	}

	step := 2 * math.Pi * spec.frequencyHz / cueSampleRate
	pcm := make([]int16, n)
	for i := range pcm {
		sample := math.Sin(step*float64(i)) * spec.volume * envelope(i)
		pcm[i] = int16(math.Round(sample * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
