package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// ErrModelNotFound indicates the model directory is missing. Fatal at startup.
var ErrModelNotFound = errors.New("recognition model directory not found")

// Options holds the tuning knobs forwarded to the recognizer engine.
type Options struct {
	SampleRate      int
	Words           bool
	MaxAlternatives int
	PartialResults  bool
	// Grammar restricts recognition to the listed phrases when non-empty.
	// The unknown-word sentinel is appended automatically.
	Grammar []string
}

// Recognizer wraps one Vosk model/recognizer pair for streaming PCM input.
type Recognizer struct {
	mu          sync.Mutex
	model       *vosk.VoskModel
	rec         *vosk.VoskRecognizer
	partials    bool
	lastPartial string
}

// NewRecognizer loads the model directory and configures a recognizer.
func NewRecognizer(modelPath string, opts Options) (*Recognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("stat model path %q: %w", modelPath, err)
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", modelPath, err)
	}

	sampleRate := float64(opts.SampleRate)
	var rec *vosk.VoskRecognizer
	if len(opts.Grammar) > 0 {
		grammar := append([]string{"[unk]"}, opts.Grammar...)
		grammarJSON, merr := json.Marshal(grammar)
		if merr != nil {
			model.Free()
			return nil, fmt.Errorf("encode grammar: %w", merr)
		}
		rec, err = vosk.NewRecognizerGrm(model, sampleRate, string(grammarJSON))
	} else {
		rec, err = vosk.NewRecognizer(model, sampleRate)
	}
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create recognizer: %w", err)
	}

	if opts.Words {
		rec.SetWords(1)
	}
	if opts.MaxAlternatives > 1 {
		rec.SetMaxAlternatives(opts.MaxAlternatives)
	}

	return &Recognizer{
		model:    model,
		rec:      rec,
		partials: opts.PartialResults,
	}, nil
}

// Accept feeds one PCM block. A Result is returned at utterance boundaries,
// or as a deduplicated partial when partial results are enabled.
func (r *Recognizer) Accept(chunk []byte) (Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return Result{}, false, errors.New("recognizer is closed")
	}

	if r.rec.AcceptWaveform(chunk) != 0 {
		r.lastPartial = ""
		return parseResult(r.rec.Result())
	}

	if !r.partials {
		return Result{}, false, nil
	}

	result, ok, err := parsePartial(r.rec.PartialResult())
	if err != nil || !ok {
		return Result{}, false, err
	}
	if result.Text == r.lastPartial {
		return Result{}, false, nil
	}
	r.lastPartial = result.Text
	return result, true, nil
}

// Final flushes and returns any residual utterance.
func (r *Recognizer) Final() (Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec == nil {
		return Result{}, false, errors.New("recognizer is closed")
	}
	return parseResult(r.rec.FinalResult())
}

// Close frees the recognizer and model. Safe to call more than once.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec != nil {
		r.rec.Free()
		r.rec = nil
	}
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
}
