package session

import (
	"context"
	"errors"

	"github.com/giak/dictee/internal/speech"
)

// ErrPipelineUnavailable indicates runtime capture/recognizer wiring is missing.
var ErrPipelineUnavailable = errors.New("audio capture and recognition pipeline not available")

// StopResult is the pipeline output consumed by the session controller.
type StopResult struct {
	AudioDevice   string
	BytesCaptured int64
}

// Source abstracts the capture/recognition stream needed by session orchestration.
type Source interface {
	Start(context.Context) error
	Results() <-chan speech.Result
	Stop(context.Context) (StopResult, error)
	Close()
}
