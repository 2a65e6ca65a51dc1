package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	player := "paplay"

	return Config{
		Model: ModelConfig{
			Path: "~/vosk-model-fr-0.6-linto-2.2.0",
		},
		Audio: AudioConfig{
			Input:        "default",
			Fallback:     "default",
			SampleRate:   16000,
			BlockSamples: 8000,
		},
		Recognizer: RecognizerConfig{
			ScoreCutoff:     0.75,
			Words:           true,
			MaxAlternatives: 1,
			PartialResults:  false,
			RestrictGrammar: false,
			Vocab: VocabConfig{
				GlobalSets: nil,
				Sets:       map[string]VocabSet{},
				MaxPhrases: 1024,
			},
		},
		Commands: CommandsConfig{},
		Transcript: TranscriptConfig{
			RemoveHesitations:   true,
			FormatNumbers:       true,
			SpacePunctuation:    true,
			CapitalizeSentences: true,
			TrailingSpace:       true,
		},
		Typing: TypingConfig{Tool: "auto"},
		Feedback: FeedbackConfig{
			SoundEnable:    true,
			SoundStartFile: "/usr/share/sounds/freedesktop/stereo/service-login.oga",
			SoundStopFile:  "/usr/share/sounds/freedesktop/stereo/service-logout.oga",
			SoundErrorFile: "/usr/share/sounds/freedesktop/stereo/dialog-error.oga",
			PlayerCmd:      CommandConfig{Raw: player, Argv: mustParseArgv(player)},
			NotifyEnable:   false,
		},
		Debug: DebugConfig{},
	}
}
