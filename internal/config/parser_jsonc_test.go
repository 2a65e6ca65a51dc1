package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONCFullDocument(t *testing.T) {
	content := `{
  // offline model
  "model": {"path": "/opt/models/vosk-fr"},
  "audio": {
    "input": "usb mic",
    "sample_rate": 16000,
    "block_samples": 4000,
  },
  "recognizer": {
    "score_cutoff": 0.6,
    "max_alternatives": 3,
    "restrict_grammar": true,
    "vocab": {
      "global": ["dev"],
      "sets": {"dev": {"phrases": ["virgule", "nouvelle ligne"]}},
    },
  },
  "commands": {
    "extra": {"Tiret": "-"},
    "disabled": ["espace"],
  },
  "transcript": {"capitalize_sentences": false},
  "typing": {"tool": "wtype"},
  "feedback": {
    "sound_enable": true,
    "sound_error": "/tmp/err.oga",
    "player_cmd": "pw-play",
    "notify_enable": true,
  },
  "debug": {"audio_dump": true},
}`

	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "/opt/models/vosk-fr", cfg.Model.Path)
	require.Equal(t, "usb mic", cfg.Audio.Input)
	require.Equal(t, 4000, cfg.Audio.BlockSamples)
	require.Equal(t, 0.6, cfg.Recognizer.ScoreCutoff)
	require.Equal(t, 3, cfg.Recognizer.MaxAlternatives)
	require.True(t, cfg.Recognizer.RestrictGrammar)
	require.Equal(t, []string{"dev"}, cfg.Recognizer.Vocab.GlobalSets)
	require.Equal(t, []string{"virgule", "nouvelle ligne"}, cfg.Recognizer.Vocab.Sets["dev"].Phrases)
	require.Equal(t, "-", cfg.Commands.Extra["tiret"])
	require.Equal(t, []string{"espace"}, cfg.Commands.Disabled)
	require.False(t, cfg.Transcript.CapitalizeSentences)
	require.Equal(t, "wtype", cfg.Typing.Tool)
	require.Equal(t, "/tmp/err.oga", cfg.Feedback.SoundErrorFile)
	require.Equal(t, []string{"pw-play"}, cfg.Feedback.PlayerCmd.Argv)
	require.True(t, cfg.Feedback.NotifyEnable)
	require.True(t, cfg.Debug.EnableAudioDump)
}

func TestParseJSONCCommentsAndTrailingCommas(t *testing.T) {
	content := `{
  /* block
     comment */
  "audio": {
    "input": "default", // line comment
  },
}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "default", cfg.Audio.Input)
}

func TestParseJSONCCommaInsideStringPreserved(t *testing.T) {
	content := `{"feedback": {"player_cmd": "mycmd --label 'a,}'"}}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"mycmd", "--label", "a,}"}, cfg.Feedback.PlayerCmd.Argv)
}

func TestParseJSONCGlobalAcceptsCommaDelimitedString(t *testing.T) {
	content := `{
  "recognizer": {
    "vocab": {
      "global": "dev, ops",
      "sets": {
        "dev": {"phrases": ["alpha"]},
        "ops": {"phrases": ["beta"]}
      }
    }
  }
}`

	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "ops"}, cfg.Recognizer.Vocab.GlobalSets)
}

func TestParseJSONCErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown field", content: `{"modle": {}}`, wantErr: "unknown field"},
		{name: "syntax error reports position", content: "{\n  \"audio\": {\n}", wantErr: "line"},
		{name: "truncated input reports end position", content: "{\n  \"audio\": {", wantErr: "line 2"},
		{name: "multiple documents", content: `{}{}`, wantErr: "multiple JSON values"},
		{name: "unterminated block comment", content: `{ /* nope }`, wantErr: "unterminated block comment"},
		{name: "wrong type", content: `{"audio": {"sample_rate": "fast"}}`, wantErr: "line"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.content, Default())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
