package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/giak/dictee/internal/command"
	"github.com/giak/dictee/internal/config"
	"github.com/giak/dictee/internal/fsm"
	"github.com/giak/dictee/internal/output"
	"github.com/giak/dictee/internal/speech"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	results  chan speech.Result
	startErr error
	stopErr  error
	summary  StopResult

	closeOnce sync.Once
	stops     int
	mu        sync.Mutex
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		results: make(chan speech.Result, 16),
		summary: StopResult{AudioDevice: "Test Mic (test-mic)", BytesCaptured: 4096},
	}
}

func (f *fakeSource) Start(context.Context) error {
	return f.startErr
}

func (f *fakeSource) Results() <-chan speech.Result {
	return f.results
}

func (f *fakeSource) Stop(context.Context) (StopResult, error) {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.results) })
	if f.stopErr != nil {
		return StopResult{}, f.stopErr
	}
	return f.summary, nil
}

func (f *fakeSource) Close() {}

func (f *fakeSource) stopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

type fakeTyper struct {
	mu    sync.Mutex
	typed []string
	keys  []output.Key
	err   error
}

func (f *fakeTyper) Type(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeTyper) Press(_ context.Context, key output.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeTyper) typedText() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.typed...)
}

func (f *fakeTyper) pressedKeys() []output.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]output.Key(nil), f.keys...)
}

type fakeIndicator struct {
	mu                          sync.Mutex
	starts, stops, errors       int
	running, paused, stoppedMsg int
}

func (f *fakeIndicator) CueStart(context.Context) { f.mu.Lock(); f.starts++; f.mu.Unlock() }
func (f *fakeIndicator) CueStop(context.Context)  { f.mu.Lock(); f.stops++; f.mu.Unlock() }
func (f *fakeIndicator) CueError(context.Context) { f.mu.Lock(); f.errors++; f.mu.Unlock() }
func (f *fakeIndicator) NotifyRunning(context.Context) {
	f.mu.Lock()
	f.running++
	f.mu.Unlock()
}
func (f *fakeIndicator) NotifyPaused(context.Context) {
	f.mu.Lock()
	f.paused++
	f.mu.Unlock()
}
func (f *fakeIndicator) NotifyStopped(context.Context) {
	f.mu.Lock()
	f.stoppedMsg++
	f.mu.Unlock()
}

func (f *fakeIndicator) snapshot() (starts, stops, errors, paused int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops, f.errors, f.paused
}

func newTestController(source Source, typer output.Typer, ind Indicator) *Controller {
	cfg := config.Default()
	interp := command.NewInterpreter(command.DefaultTable(), cfg.Recognizer.ScoreCutoff)
	return NewController(nil, cfg.Transcript, interp, source, typer, ind)
}

func final(text string, confidence float64) speech.Result {
	return speech.Result{Text: text, Confidence: confidence}
}

func TestRunTypesFormattedDictationWithEmbeddedPunctuation(t *testing.T) {
	source := newFakeSource()
	typer := &fakeTyper{}
	controller := newTestController(source, typer, &fakeIndicator{})

	source.results <- final("bonjour virgule comment ça va point", 0.92)
	source.results <- final("arrêter dictée", 0.95)

	result := controller.Run(context.Background())

	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateStopped, result.State)
	require.Equal(t, []string{"Bonjour, comment ça va. "}, typer.typedText())
	require.Equal(t, 2, result.Fragments)
	require.Equal(t, len([]rune("Bonjour, comment ça va. ")), result.TypedRunes)
	require.Equal(t, "Test Mic (test-mic)", result.AudioDevice)
	require.Equal(t, int64(4096), result.BytesCaptured)
}

func TestRunSuppressesTextWhilePaused(t *testing.T) {
	source := newFakeSource()
	typer := &fakeTyper{}
	ind := &fakeIndicator{}
	controller := newTestController(source, typer, ind)

	source.results <- final("pause dictée", 0.95)
	source.results <- final("bonjour tout le monde", 0.95)
	source.results <- final("reprendre dictée", 0.95)
	source.results <- final("encore là", 0.95)
	source.results <- final("arrêter dictée", 0.95)

	result := controller.Run(context.Background())

	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateStopped, result.State)
	require.Equal(t, []string{"Encore là "}, typer.typedText())

	starts, stops, _, paused := ind.snapshot()
	require.Equal(t, 2, starts) // session start + resume
	require.Equal(t, 2, stops)  // pause + final stop
	require.Equal(t, 1, paused)
}

func TestRunDiscardsLowConfidenceFragments(t *testing.T) {
	source := newFakeSource()
	typer := &fakeTyper{}
	controller := newTestController(source, typer, &fakeIndicator{})

	source.results <- final("bonjour", 0.40)
	source.results <- final("arrêter dictée", 0.95)

	result := controller.Run(context.Background())

	require.NoError(t, result.Err)
	require.Empty(t, typer.typedText())
	require.Equal(t, 2, result.Fragments)
}

func TestRunAppliesEraseCommands(t *testing.T) {
	source := newFakeSource()
	typer := &fakeTyper{}
	controller := newTestController(source, typer, &fakeIndicator{})

	source.results <- final("effacer", 0.95)
	source.results <- final("supprimer ligne", 0.95)
	source.results <- final("arrêter dictée", 0.95)

	result := controller.Run(context.Background())

	require.NoError(t, result.Err)
	require.Equal(t, []output.Key{output.KeyBackspace, output.KeyDeleteLine}, typer.pressedKeys())
}

func TestRunStartFailureStopsImmediately(t *testing.T) {
	source := newFakeSource()
	source.startErr = context.DeadlineExceeded
	ind := &fakeIndicator{}
	controller := newTestController(source, &fakeTyper{}, ind)

	result := controller.Run(context.Background())

	require.ErrorIs(t, result.Err, context.DeadlineExceeded)
	require.Equal(t, fsm.StateStopped, result.State)
	_, _, errors, _ := ind.snapshot()
	require.Equal(t, 1, errors)
	require.Equal(t, 0, source.stopCalls())
}

func TestRunContextCancellationStopsSession(t *testing.T) {
	source := newFakeSource()
	controller := newTestController(source, &fakeTyper{}, &fakeIndicator{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- controller.Run(ctx) }()

	cancel()

	select {
	case result := <-done:
		require.ErrorIs(t, result.Err, context.Canceled)
		require.Equal(t, fsm.StateStopped, result.State)
		require.Equal(t, 1, source.stopCalls())
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunEndsWhenResultChannelCloses(t *testing.T) {
	source := newFakeSource()
	controller := newTestController(source, &fakeTyper{}, &fakeIndicator{})

	close(source.results)
	source.closeOnce.Do(func() {})

	result := controller.Run(context.Background())
	require.Equal(t, fsm.StateStopped, result.State)
}

func TestRunWithoutSourceFails(t *testing.T) {
	controller := newTestController(nil, &fakeTyper{}, &fakeIndicator{})
	result := controller.Run(context.Background())
	require.ErrorIs(t, result.Err, ErrPipelineUnavailable)
	require.Equal(t, fsm.StateStopped, result.State)
}

func TestTypingFailureKeepsSessionAlive(t *testing.T) {
	source := newFakeSource()
	typer := &fakeTyper{err: context.DeadlineExceeded}
	ind := &fakeIndicator{}
	controller := newTestController(source, typer, ind)

	source.results <- final("bonjour", 0.95)
	source.results <- final("arrêter dictée", 0.95)

	result := controller.Run(context.Background())

	require.NoError(t, result.Err)
	require.Equal(t, fsm.StateStopped, result.State)
	_, _, errors, _ := ind.snapshot()
	require.Equal(t, 1, errors)
}
