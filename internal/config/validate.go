package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Model.Path) == "" {
		return nil, fmt.Errorf("model.path must not be empty")
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be > 0")
	}
	if cfg.Audio.BlockSamples <= 0 {
		return nil, fmt.Errorf("audio.block_samples must be > 0")
	}
	if cfg.Recognizer.ScoreCutoff < 0 || cfg.Recognizer.ScoreCutoff > 1 {
		return nil, fmt.Errorf("recognizer.score_cutoff must be within [0, 1]")
	}
	if cfg.Recognizer.MaxAlternatives < 0 {
		return nil, fmt.Errorf("recognizer.max_alternatives must be >= 0")
	}
	if cfg.Recognizer.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("recognizer.vocab.max_phrases must be > 0")
	}

	tool := strings.ToLower(strings.TrimSpace(cfg.Typing.Tool))
	if tool == "" {
		return nil, fmt.Errorf("typing.tool must not be empty")
	}
	if tool != "auto" && tool != "xdotool" && tool != "wtype" {
		return nil, fmt.Errorf("typing.tool must be one of: auto, xdotool, wtype")
	}
	if cfg.Typing.TypeCmd.Raw != "" && len(cfg.Typing.TypeCmd.Argv) == 0 {
		return nil, fmt.Errorf("typing.type_cmd is configured but empty")
	}

	if cfg.Feedback.SoundEnable && len(cfg.Feedback.PlayerCmd.Argv) == 0 {
		return nil, fmt.Errorf("feedback.player_cmd must not be empty when feedback.sound_enable=true")
	}

	for phrase, text := range cfg.Commands.Extra {
		if strings.TrimSpace(phrase) == "" {
			return nil, fmt.Errorf("commands.extra contains an empty phrase")
		}
		if text == "" {
			return nil, fmt.Errorf("commands.extra phrase %q maps to empty text", phrase)
		}
	}
	for _, phrase := range cfg.Commands.Disabled {
		if strings.TrimSpace(phrase) == "" {
			return nil, fmt.Errorf("commands.disabled contains an empty phrase")
		}
	}

	_, vocabWarnings, err := BuildGrammarWords(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildGrammarWords merges enabled vocab sets into a deterministic phrase list
// for recognizer grammar restriction.
func BuildGrammarWords(cfg Config) ([]string, []Warning, error) {
	enabledSets := cfg.Recognizer.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]string)

	for _, name := range enabledSets {
		set, ok := cfg.Recognizer.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("recognizer.vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase == "" {
				continue
			}
			if from, exists := selected[phrase]; exists && from != name {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; keeping one copy", phrase, from, name)})
				continue
			}
			selected[phrase] = name
		}
	}

	if len(selected) > cfg.Recognizer.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds recognizer.vocab.max_phrases=%d", len(selected), cfg.Recognizer.Vocab.MaxPhrases)
	}

	phrases := make([]string, 0, len(selected))
	for phrase := range selected {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	return phrases, warnings, nil
}
