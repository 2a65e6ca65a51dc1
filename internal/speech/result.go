// Package speech adapts the offline Vosk recognizer to the dictation pipeline.
package speech

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is one decoded fragment with its reported confidence.
// Confidence is 1.0 when the engine reports no per-word scores.
type Result struct {
	Text       string
	Confidence float64
	Partial    bool
}

type voskWord struct {
	Conf float64 `json:"conf"`
	Word string  `json:"word"`
}

type voskAlternative struct {
	Confidence float64    `json:"confidence"`
	Text       string     `json:"text"`
	Result     []voskWord `json:"result"`
}

type voskPayload struct {
	Text         string            `json:"text"`
	Partial      string            `json:"partial"`
	Result       []voskWord        `json:"result"`
	Alternatives []voskAlternative `json:"alternatives"`
}

// parseResult decodes one recognizer JSON payload into a Result.
// The boolean is false when the payload carries no usable text.
func parseResult(raw string) (Result, bool, error) {
	var payload voskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Result{}, false, fmt.Errorf("decode recognizer result: %w", err)
	}

	if len(payload.Alternatives) > 0 {
		best := payload.Alternatives[0]
		text := strings.TrimSpace(best.Text)
		if text == "" {
			return Result{}, false, nil
		}
		return Result{Text: text, Confidence: wordConfidence(best.Result, best.Confidence)}, true, nil
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return Result{}, false, nil
	}
	return Result{Text: text, Confidence: wordConfidence(payload.Result, 1.0)}, true, nil
}

// parsePartial decodes a partial payload; partial results are surfaced for
// logging only and never injected.
func parsePartial(raw string) (Result, bool, error) {
	var payload voskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Result{}, false, fmt.Errorf("decode recognizer partial: %w", err)
	}
	text := strings.TrimSpace(payload.Partial)
	if text == "" {
		return Result{}, false, nil
	}
	return Result{Text: text, Confidence: 1.0, Partial: true}, true, nil
}

// wordConfidence averages per-word scores, falling back to the payload score.
func wordConfidence(words []voskWord, fallback float64) float64 {
	if len(words) == 0 {
		return fallback
	}
	total := 0.0
	for _, word := range words {
		total += word.Conf
	}
	return total / float64(len(words))
}
