// Package pipeline owns one end-to-end capture -> recognizer stream instance.
package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/giak/dictee/internal/audio"
	"github.com/giak/dictee/internal/config"
	"github.com/giak/dictee/internal/session"
	"github.com/giak/dictee/internal/speech"
)

// stallTimeout bounds how long the feed loop waits for audio before logging.
// A stalled source is never fatal; capture resumes whenever Pulse delivers.
const stallTimeout = 5 * time.Second

// Stream wires audio capture into the offline recognizer and emits decoded
// fragments on Results until stopped.
type Stream struct {
	cfg            config.Config
	logger         *slog.Logger
	commandPhrases []string

	mu      sync.Mutex
	started bool

	selection  audio.Selection
	capture    *audio.Capture
	recognizer *speech.Recognizer

	results  chan speech.Result
	feedDone chan struct{}
}

// NewStream constructs a pipeline stream from runtime config. commandPhrases
// are merged into the recognizer grammar when grammar restriction is enabled.
func NewStream(cfg config.Config, logger *slog.Logger, commandPhrases []string) *Stream {
	return &Stream{cfg: cfg, logger: logger, commandPhrases: commandPhrases}
}

// Start resolves the capture device, loads the recognizer, and begins feeding
// PCM blocks to it.
func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("pipeline already started")
	}

	selection, err := audio.SelectDevice(ctx, s.cfg.Audio.Input, s.cfg.Audio.Fallback)
	if err != nil {
		return err
	}
	s.selection = selection
	if selection.Warning != "" {
		s.logWarn(selection.Warning)
	}

	grammar, err := s.buildGrammar()
	if err != nil {
		return err
	}

	recognizer, err := speech.NewRecognizer(config.ExpandUserPath(s.cfg.Model.Path), speech.Options{
		SampleRate:      s.cfg.Audio.SampleRate,
		Words:           s.cfg.Recognizer.Words,
		MaxAlternatives: s.cfg.Recognizer.MaxAlternatives,
		PartialResults:  s.cfg.Recognizer.PartialResults,
		Grammar:         grammar,
	})
	if err != nil {
		return err
	}
	s.recognizer = recognizer

	capture, err := audio.StartCapture(ctx, selection.Device, s.cfg.Audio.SampleRate, s.cfg.Audio.BlockSamples)
	if err != nil {
		recognizer.Close()
		s.recognizer = nil
		return err
	}
	s.capture = capture

	s.results = make(chan speech.Result, 16)
	s.feedDone = make(chan struct{})
	go s.feedLoop()

	s.started = true
	return nil
}

// Results returns decoded final fragments. The channel closes once the
// residual utterance has been flushed after Stop.
func (s *Stream) Results() <-chan speech.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Stop halts capture, waits for the recognizer flush, and reports stream
// totals. Safe to call more than once.
func (s *Stream) Stop(ctx context.Context) (session.StopResult, error) {
	s.mu.Lock()
	started := s.started
	capture := s.capture
	feedDone := s.feedDone
	results := s.results
	selection := s.selection
	s.mu.Unlock()

	if !started || capture == nil {
		return session.StopResult{}, session.ErrPipelineUnavailable
	}

	_ = capture.Stop()

	if err := awaitFeedDone(ctx, feedDone, results); err != nil {
		return session.StopResult{}, err
	}

	s.writeDebugAudio(capture.RawPCM())

	return session.StopResult{
		AudioDevice:   describeDevice(selection.Device),
		BytesCaptured: capture.BytesCaptured(),
	}, nil
}

// Close releases the recognizer and capture resources.
func (s *Stream) Close() {
	s.mu.Lock()
	capture := s.capture
	recognizer := s.recognizer
	s.recognizer = nil
	s.mu.Unlock()

	if capture != nil {
		capture.Close()
	}
	if recognizer != nil {
		recognizer.Close()
	}
}

// awaitFeedDone waits for the feed loop to exit, consuming leftover results
// meanwhile. The session stops reading Results before it calls Stop, so a
// backlog of finals larger than the channel buffer must not wedge the feed
// loop mid-flush.
func awaitFeedDone(ctx context.Context, feedDone <-chan struct{}, results <-chan speech.Result) error {
	for {
		select {
		case <-feedDone:
			return nil
		case _, ok := <-results:
			if !ok {
				results = nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// feedLoop forwards capture blocks to the recognizer and publishes finals.
// Partial results are logged only. The loop flushes the residual utterance
// and closes the results channel once the capture channel closes.
func (s *Stream) feedLoop() {
	s.mu.Lock()
	capture := s.capture
	recognizer := s.recognizer
	results := s.results
	feedDone := s.feedDone
	s.mu.Unlock()

	defer close(feedDone)
	defer close(results)

	stall := time.NewTimer(stallTimeout)
	defer stall.Stop()

	for {
		stall.Reset(stallTimeout)
		select {
		case chunk, ok := <-capture.Chunks():
			if !ok {
				s.flushFinal(recognizer, results)
				return
			}
			if len(chunk) == 0 {
				continue
			}
			result, got, err := recognizer.Accept(chunk)
			if err != nil {
				s.logWarn(fmt.Sprintf("recognizer rejected audio block: %v", err))
				continue
			}
			if !got {
				continue
			}
			if result.Partial {
				s.logDebug("partial fragment", "text", result.Text)
				continue
			}
			results <- result
		case <-stall.C:
			s.logDebug("no audio received", "timeout", stallTimeout.String())
		}
	}
}

// flushFinal drains the residual utterance at end of stream.
func (s *Stream) flushFinal(recognizer *speech.Recognizer, results chan speech.Result) {
	result, got, err := recognizer.Final()
	if err != nil {
		s.logWarn(fmt.Sprintf("flush final utterance: %v", err))
		return
	}
	if got && !result.Partial {
		results <- result
	}
}

// buildGrammar merges vocabulary sets and spoken command phrases when
// recognizer.restrict_grammar is enabled.
func (s *Stream) buildGrammar() ([]string, error) {
	if !s.cfg.Recognizer.RestrictGrammar {
		return nil, nil
	}

	vocab, warnings, err := config.BuildGrammarWords(s.cfg)
	if err != nil {
		return nil, fmt.Errorf("build recognizer grammar: %w", err)
	}
	for _, warning := range warnings {
		s.logWarn(warning.Message)
	}

	return mergeGrammar(vocab, s.commandPhrases), nil
}

// mergeGrammar deduplicates and sorts vocabulary plus command phrases.
func mergeGrammar(vocab []string, commandPhrases []string) []string {
	seen := make(map[string]struct{}, len(vocab)+len(commandPhrases))
	merged := make([]string, 0, len(vocab)+len(commandPhrases))
	for _, phrase := range append(append([]string(nil), vocab...), commandPhrases...) {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase == "" {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		seen[phrase] = struct{}{}
		merged = append(merged, phrase)
	}
	sort.Strings(merged)
	return merged
}

// describeDevice formats device metadata for logs/session results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// writeDebugAudio writes raw PCM to WAV when debug.audio_dump is enabled.
func (s *Stream) writeDebugAudio(rawPCM []byte) {
	if !s.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		s.logWarn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}
	defer file.Close()

	if err := writePCM16WAV(file, rawPCM, s.cfg.Audio.SampleRate, 1); err != nil {
		s.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}

// createDebugFile creates timestamped debug artifacts under state/dictee/debug.
func createDebugFile(prefix string, extension string) (*os.File, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	debugDir := filepath.Join(stateDir, "dictee", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

// writePCM16WAV writes raw little-endian PCM bytes with a minimal WAV header.
func writePCM16WAV(file *os.File, pcm []byte, sampleRate int, channels int) error {
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	chunkSize := uint32(36 + len(pcm))
	subChunk2Size := uint32(len(pcm))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], chunkSize)
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], subChunk2Size)

	if _, err := file.Write(header); err != nil {
		return err
	}
	_, err := file.Write(pcm)
	return err
}

// logWarn emits warning-level logs when logger is configured.
func (s *Stream) logWarn(message string) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(message)
}

// logDebug emits debug-level logs when logger is configured.
func (s *Stream) logDebug(message string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(message, args...)
}
