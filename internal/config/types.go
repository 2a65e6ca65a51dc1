// Package config resolves, parses, validates, and defaults dictee configuration.
package config

// Config is the fully materialized runtime configuration used by dictee.
type Config struct {
	Model      ModelConfig
	Audio      AudioConfig
	Recognizer RecognizerConfig
	Commands   CommandsConfig
	Transcript TranscriptConfig
	Typing     TypingConfig
	Feedback   FeedbackConfig
	Debug      DebugConfig
}

// ModelConfig locates the offline recognition model directory.
type ModelConfig struct {
	Path string
}

// AudioConfig controls capture source selection and PCM framing.
type AudioConfig struct {
	Input        string
	Fallback     string
	SampleRate   int
	BlockSamples int
}

// RecognizerConfig holds opaque tuning knobs forwarded to the recognizer.
type RecognizerConfig struct {
	ScoreCutoff     float64
	Words           bool
	MaxAlternatives int
	PartialResults  bool
	RestrictGrammar bool
	Vocab           VocabConfig
}

// VocabConfig controls enabled grammar phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group merged into the recognizer grammar.
type VocabSet struct {
	Name    string
	Phrases []string
}

// CommandsConfig tunes the built-in spoken command table.
type CommandsConfig struct {
	Extra    map[string]string
	Disabled []string
}

// TranscriptConfig controls literal-text formatting before injection.
type TranscriptConfig struct {
	RemoveHesitations   bool
	FormatNumbers       bool
	SpacePunctuation    bool
	CapitalizeSentences bool
	TrailingSpace       bool
}

// TypingConfig controls the keystroke injection backend.
type TypingConfig struct {
	Tool    string
	TypeCmd CommandConfig
}

// FeedbackConfig controls audio cues and optional desktop notifications.
type FeedbackConfig struct {
	SoundEnable    bool
	SoundStartFile string
	SoundStopFile  string
	SoundErrorFile string
	PlayerCmd      CommandConfig
	NotifyEnable   bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
