package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Model      *jsoncModel      `json:"model"`
	Audio      *jsoncAudio      `json:"audio"`
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Commands   *jsoncCommands   `json:"commands"`
	Transcript *jsoncTranscript `json:"transcript"`
	Typing     *jsoncTyping     `json:"typing"`
	Feedback   *jsoncFeedback   `json:"feedback"`
	Debug      *jsoncDebug      `json:"debug"`
}

type jsoncModel struct {
	Path *string `json:"path"`
}

type jsoncAudio struct {
	Input        *string `json:"input"`
	Fallback     *string `json:"fallback"`
	SampleRate   *int    `json:"sample_rate"`
	BlockSamples *int    `json:"block_samples"`
}

type jsoncRecognizer struct {
	ScoreCutoff     *float64    `json:"score_cutoff"`
	Words           *bool       `json:"words"`
	MaxAlternatives *int        `json:"max_alternatives"`
	PartialResults  *bool       `json:"partial_results"`
	RestrictGrammar *bool       `json:"restrict_grammar"`
	Vocab           *jsoncVocab `json:"vocab"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Phrases []string `json:"phrases"`
}

type jsoncCommands struct {
	Extra    map[string]string `json:"extra"`
	Disabled *jsoncStringList  `json:"disabled"`
}

type jsoncTranscript struct {
	RemoveHesitations   *bool `json:"remove_hesitations"`
	FormatNumbers       *bool `json:"format_numbers"`
	SpacePunctuation    *bool `json:"space_punctuation"`
	CapitalizeSentences *bool `json:"capitalize_sentences"`
	TrailingSpace       *bool `json:"trailing_space"`
}

type jsoncTyping struct {
	Tool    *string `json:"tool"`
	TypeCmd *string `json:"type_cmd"`
}

type jsoncFeedback struct {
	SoundEnable  *bool   `json:"sound_enable"`
	SoundStart   *string `json:"sound_start"`
	SoundStop    *string `json:"sound_stop"`
	SoundError   *string `json:"sound_error"`
	PlayerCmd    *string `json:"player_cmd"`
	NotifyEnable *bool   `json:"notify_enable"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

type jsoncStringList []string

// UnmarshalJSON accepts either a JSON array of strings or a single
// comma-delimited string.
func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if json.Unmarshal(data, &list) == nil {
		*l = list
		return nil
	}

	var single string
	if json.Unmarshal(data, &single) != nil {
		return fmt.Errorf("expected string array or comma-delimited string")
	}
	*l = splitCommaList(single)
	return nil
}

func splitCommaList(s string) []string {
	out := make([]string, 0, 4)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	payload, err := decodeJSONCPayload(normalized)
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

func decodeJSONCPayload(normalized string) (jsoncConfig, error) {
	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return jsoncConfig{}, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return jsoncConfig{}, wrapJSONDecodeError(normalized, err)
	}
	return payload, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Model != nil && payload.Model.Path != nil {
		cfg.Model.Path = strings.TrimSpace(*payload.Model.Path)
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
		if payload.Audio.SampleRate != nil {
			cfg.Audio.SampleRate = *payload.Audio.SampleRate
		}
		if payload.Audio.BlockSamples != nil {
			cfg.Audio.BlockSamples = *payload.Audio.BlockSamples
		}
	}

	if payload.Recognizer != nil {
		if payload.Recognizer.ScoreCutoff != nil {
			cfg.Recognizer.ScoreCutoff = *payload.Recognizer.ScoreCutoff
		}
		if payload.Recognizer.Words != nil {
			cfg.Recognizer.Words = *payload.Recognizer.Words
		}
		if payload.Recognizer.MaxAlternatives != nil {
			cfg.Recognizer.MaxAlternatives = *payload.Recognizer.MaxAlternatives
		}
		if payload.Recognizer.PartialResults != nil {
			cfg.Recognizer.PartialResults = *payload.Recognizer.PartialResults
		}
		if payload.Recognizer.RestrictGrammar != nil {
			cfg.Recognizer.RestrictGrammar = *payload.Recognizer.RestrictGrammar
		}
		if payload.Recognizer.Vocab != nil {
			if err := payload.Recognizer.Vocab.applyTo(&cfg.Recognizer.Vocab); err != nil {
				return nil, err
			}
		}
	}

	if payload.Commands != nil {
		if payload.Commands.Extra != nil {
			if cfg.Commands.Extra == nil {
				cfg.Commands.Extra = make(map[string]string, len(payload.Commands.Extra))
			}
			for phrase, text := range payload.Commands.Extra {
				cfg.Commands.Extra[strings.ToLower(strings.TrimSpace(phrase))] = text
			}
		}
		if payload.Commands.Disabled != nil {
			cfg.Commands.Disabled = append([]string(nil), *payload.Commands.Disabled...)
		}
	}

	if payload.Transcript != nil {
		if payload.Transcript.RemoveHesitations != nil {
			cfg.Transcript.RemoveHesitations = *payload.Transcript.RemoveHesitations
		}
		if payload.Transcript.FormatNumbers != nil {
			cfg.Transcript.FormatNumbers = *payload.Transcript.FormatNumbers
		}
		if payload.Transcript.SpacePunctuation != nil {
			cfg.Transcript.SpacePunctuation = *payload.Transcript.SpacePunctuation
		}
		if payload.Transcript.CapitalizeSentences != nil {
			cfg.Transcript.CapitalizeSentences = *payload.Transcript.CapitalizeSentences
		}
		if payload.Transcript.TrailingSpace != nil {
			cfg.Transcript.TrailingSpace = *payload.Transcript.TrailingSpace
		}
	}

	if payload.Typing != nil {
		if payload.Typing.Tool != nil {
			cfg.Typing.Tool = strings.TrimSpace(*payload.Typing.Tool)
		}
		if payload.Typing.TypeCmd != nil {
			argv, err := parseArgv(*payload.Typing.TypeCmd)
			if err != nil {
				return nil, fmt.Errorf("typing.type_cmd: %w", err)
			}
			cfg.Typing.TypeCmd = CommandConfig{Raw: *payload.Typing.TypeCmd, Argv: argv}
		}
	}

	if payload.Feedback != nil {
		if payload.Feedback.SoundEnable != nil {
			cfg.Feedback.SoundEnable = *payload.Feedback.SoundEnable
		}
		if payload.Feedback.SoundStart != nil {
			cfg.Feedback.SoundStartFile = *payload.Feedback.SoundStart
		}
		if payload.Feedback.SoundStop != nil {
			cfg.Feedback.SoundStopFile = *payload.Feedback.SoundStop
		}
		if payload.Feedback.SoundError != nil {
			cfg.Feedback.SoundErrorFile = *payload.Feedback.SoundError
		}
		if payload.Feedback.PlayerCmd != nil {
			argv, err := parseArgv(*payload.Feedback.PlayerCmd)
			if err != nil {
				return nil, fmt.Errorf("feedback.player_cmd: %w", err)
			}
			cfg.Feedback.PlayerCmd = CommandConfig{Raw: *payload.Feedback.PlayerCmd, Argv: argv}
		}
		if payload.Feedback.NotifyEnable != nil {
			cfg.Feedback.NotifyEnable = *payload.Feedback.NotifyEnable
		}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return warnings, nil
}

func (payload jsoncVocab) applyTo(vocab *VocabConfig) error {
	if payload.Global != nil {
		vocab.GlobalSets = nil
		for _, name := range *payload.Global {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			vocab.GlobalSets = append(vocab.GlobalSets, name)
		}
	}
	if payload.MaxPhrases != nil {
		vocab.MaxPhrases = *payload.MaxPhrases
	}
	if payload.Sets != nil {
		if vocab.Sets == nil {
			vocab.Sets = make(map[string]VocabSet)
		}
		for name, set := range payload.Sets {
			trimmedName := strings.TrimSpace(name)
			if trimmedName == "" {
				return fmt.Errorf("recognizer.vocab.sets contains an empty set name")
			}
			phrases := make([]string, 0, len(set.Phrases))
			phrases = append(phrases, set.Phrases...)
			vocab.Sets[trimmedName] = VocabSet{Name: trimmedName, Phrases: phrases}
		}
	}
	return nil
}

// jsoncMode tracks the scanner position class while normalizing JSONC.
type jsoncMode int

const (
	jsoncCode jsoncMode = iota
	jsoncString
	jsoncLineComment
	jsoncBlockComment
)

// normalizeJSONC converts JSONC to strict JSON: comments become spaces
// (newlines preserved so decode errors keep their line numbers) and
// trailing commas before } or ] are dropped.
func normalizeJSONC(content string) (string, error) {
	stripped, err := blankJSONCComments(content)
	if err != nil {
		return "", err
	}
	return dropTrailingCommas(stripped), nil
}

func blankJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	mode := jsoncCode
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch mode {
		case jsoncLineComment:
			if ch == '\n' || ch == '\r' {
				mode = jsoncCode
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}

		case jsoncBlockComment:
			switch {
			case ch == '*' && i+1 < len(content) && content[i+1] == '/':
				mode = jsoncCode
				out.WriteString("  ")
				i++
			case ch == '\n' || ch == '\r' || ch == '\t':
				out.WriteByte(ch)
			default:
				out.WriteByte(' ')
			}

		case jsoncString:
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				mode = jsoncCode
			}

		default:
			if ch == '/' && i+1 < len(content) {
				if next := content[i+1]; next == '/' || next == '*' {
					if next == '/' {
						mode = jsoncLineComment
					} else {
						mode = jsoncBlockComment
					}
					out.WriteString("  ")
					i++
					continue
				}
			}
			if ch == '"' {
				mode = jsoncString
			}
			out.WriteByte(ch)
		}
	}

	if mode == jsoncBlockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}
	return out.String(), nil
}

// dropTrailingCommas holds each comma (and the whitespace after it) until the
// next significant byte decides whether it was a trailing comma.
func dropTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	var held strings.Builder
	holding := false
	mode := jsoncCode
	escaped := false

	flush := func(keepComma bool) {
		if keepComma {
			out.WriteByte(',')
		}
		out.WriteString(held.String())
		held.Reset()
		holding = false
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if mode == jsoncString {
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				mode = jsoncCode
			}
			continue
		}

		if holding {
			switch {
			case ch == ' ' || ch == '\n' || ch == '\r' || ch == '\t':
				held.WriteByte(ch)
				continue
			case ch == '}' || ch == ']':
				flush(false)
			default:
				flush(true)
			}
		}

		if ch == ',' {
			holding = true
			continue
		}
		if ch == '"' {
			mode = jsoncString
		}
		out.WriteByte(ch)
	}

	if holding {
		flush(true)
	}
	return out.String()
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return fmt.Errorf("multiple JSON values are not allowed")
	default:
		return err
	}
}

// wrapJSONDecodeError annotates decode failures with the line/column of the
// offending byte in the original content.
func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Truncated input carries no offset; point at the end of the content.
		offset = int64(len(content))
	default:
		return err
	}

	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}
	prefix := content[:limit-1]

	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) + 1
	if idx := strings.LastIndexByte(prefix, '\n'); idx >= 0 {
		col = len(prefix) - idx
	}
	return line, col
}
