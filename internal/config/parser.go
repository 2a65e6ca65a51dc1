package config

import (
	"fmt"
	"strconv"
	"strings"
)

const legacyFormatWarning = "legacy key=value config format is deprecated; migrate to JSONC"

// Parse reads configuration content as JSONC (preferred) or legacy key/value
// format. JSONC is selected when the first non-whitespace character is `{`.
func Parse(content string, base Config) (Config, []Warning, error) {
	switch trimmed := strings.TrimSpace(content); {
	case trimmed == "":
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	case strings.HasPrefix(trimmed, "{"):
		return parseJSONC(content, base)
	}

	cfg, warnings, err := parseLegacy(content, base)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append([]Warning{{Message: legacyFormatWarning}}, warnings...), nil
}

// parseLegacy reads flat key=value lines using the historical key names.
func parseLegacy(content string, base Config) (Config, []Warning, error) {
	cfg := base
	warnings := make([]Warning, 0)

	for lineNo, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, nil, fmt.Errorf("line %d: expected key=value, got %q", lineNo+1, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := applyLegacyKey(&cfg, key, value, lineNo+1, &warnings); err != nil {
			return Config{}, nil, err
		}
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func applyLegacyKey(cfg *Config, key string, value string, line int, warnings *[]Warning) error {
	setBool := func(target *bool) error {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("line %d: key %q expects a boolean, got %q", line, key, value)
		}
		*target = parsed
		return nil
	}
	setInt := func(target *int) error {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("line %d: key %q expects an integer, got %q", line, key, value)
		}
		*target = parsed
		return nil
	}
	setCommand := func(target *CommandConfig) error {
		argv, err := parseArgv(value)
		if err != nil {
			return fmt.Errorf("line %d: key %q: %v", line, key, err)
		}
		*target = CommandConfig{Raw: value, Argv: argv}
		return nil
	}

	switch key {
	case "model_path":
		cfg.Model.Path = value
	case "samplerate":
		return setInt(&cfg.Audio.SampleRate)
	case "blocksize":
		return setInt(&cfg.Audio.BlockSamples)
	case "audio_input":
		cfg.Audio.Input = value
	case "audio_fallback":
		cfg.Audio.Fallback = value
	case "score_cutoff":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("line %d: key %q expects a number, got %q", line, key, value)
		}
		cfg.Recognizer.ScoreCutoff = parsed
	case "words":
		return setBool(&cfg.Recognizer.Words)
	case "max_alternatives":
		return setInt(&cfg.Recognizer.MaxAlternatives)
	case "partial_results":
		return setBool(&cfg.Recognizer.PartialResults)
	case "restrict_grammar":
		return setBool(&cfg.Recognizer.RestrictGrammar)
	case "typing_tool":
		cfg.Typing.Tool = value
	case "type_cmd":
		return setCommand(&cfg.Typing.TypeCmd)
	case "sound_enable":
		return setBool(&cfg.Feedback.SoundEnable)
	case "sound_start":
		cfg.Feedback.SoundStartFile = value
	case "sound_stop":
		cfg.Feedback.SoundStopFile = value
	case "sound_error":
		cfg.Feedback.SoundErrorFile = value
	case "player_cmd":
		return setCommand(&cfg.Feedback.PlayerCmd)
	case "notify_enable":
		return setBool(&cfg.Feedback.NotifyEnable)
	case "remove_hesitations":
		return setBool(&cfg.Transcript.RemoveHesitations)
	case "format_numbers":
		return setBool(&cfg.Transcript.FormatNumbers)
	case "space_punctuation":
		return setBool(&cfg.Transcript.SpacePunctuation)
	case "capitalize_sentences":
		return setBool(&cfg.Transcript.CapitalizeSentences)
	case "trailing_space":
		return setBool(&cfg.Transcript.TrailingSpace)
	case "audio_dump":
		return setBool(&cfg.Debug.EnableAudioDump)
	default:
		*warnings = append(*warnings, Warning{Line: line, Message: fmt.Sprintf("unknown key %q ignored", key)})
	}
	return nil
}
