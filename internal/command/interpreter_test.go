package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyEveryTablePhrase(t *testing.T) {
	table := DefaultTable()
	interp := NewInterpreter(table, 0.75)

	for phrase, want := range table {
		action, ok := interp.Classify(phrase, 0.9)
		require.True(t, ok, "phrase %q should classify", phrase)
		require.Equal(t, want, action, "phrase %q", phrase)
	}
}

func TestClassifyNormalizesUnknownFragments(t *testing.T) {
	interp := NewInterpreter(DefaultTable(), 0.75)

	action, ok := interp.Classify("  Bonjour Tout Le Monde  ", 0.8)
	require.True(t, ok)
	require.Equal(t, Text("bonjour tout le monde"), action)
}

func TestClassifyConfidenceCutoff(t *testing.T) {
	interp := NewInterpreter(DefaultTable(), 0.75)

	_, ok := interp.Classify("virgule", 0.74)
	require.False(t, ok)

	action, ok := interp.Classify("virgule", 0.75)
	require.True(t, ok)
	require.Equal(t, Literal(","), action)
}

func TestClassifyEmptyFragment(t *testing.T) {
	interp := NewInterpreter(DefaultTable(), 0)

	_, ok := interp.Classify("   ", 1)
	require.False(t, ok)
}

func TestInterpretEmbeddedCommands(t *testing.T) {
	interp := NewInterpreter(DefaultTable(), 0.5)

	tests := []struct {
		name     string
		fragment string
		want     []Action
	}{
		{
			name:     "single punctuation",
			fragment: "virgule",
			want:     []Action{Literal(",")},
		},
		{
			name:     "two word punctuation",
			fragment: "point d'interrogation",
			want:     []Action{Literal("?")},
		},
		{
			name:     "four word line break",
			fragment: "retour à la ligne",
			want:     []Action{{Kind: KindNewline}},
		},
		{
			name:     "text with embedded punctuation",
			fragment: "bonjour virgule comment ça va point",
			want: []Action{
				Text("bonjour"),
				Literal(","),
				Text("comment ça va"),
				Literal("."),
			},
		},
		{
			name:     "longest match wins over prefix",
			fragment: "le point d'exclamation final",
			want: []Action{
				Text("le"),
				Literal("!"),
				Text("final"),
			},
		},
		{
			name:     "control command inside utterance",
			fragment: "voilà pause dictée",
			want: []Action{
				Text("voilà"),
				{Kind: KindPause},
			},
		},
		{
			name:     "plain text only",
			fragment: "il fait beau aujourd'hui",
			want:     []Action{Text("il fait beau aujourd'hui")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actions, ok := interp.Interpret(tc.fragment, 0.9)
			require.True(t, ok)
			require.Equal(t, tc.want, actions)
		})
	}
}

func TestInterpretBelowCutoffProducesNothing(t *testing.T) {
	interp := NewInterpreter(DefaultTable(), 0.75)

	actions, ok := interp.Interpret("bonjour virgule", 0.2)
	require.False(t, ok)
	require.Nil(t, actions)
}

func TestNewTableExtraAndDisabled(t *testing.T) {
	table := NewTable(
		map[string]string{"Tiret": "-", "saut de ligne": "\n"},
		[]string{"espace", "guillemets"},
	)

	require.Equal(t, Literal("-"), table["tiret"])
	require.Equal(t, Action{Kind: KindNewline}, table["saut de ligne"])
	_, hasSpace := table["espace"]
	require.False(t, hasSpace)
	_, hasQuotes := table["guillemets"]
	require.False(t, hasQuotes)

	// untouched defaults survive
	require.Equal(t, Literal(","), table["virgule"])
}

func TestTablePhrasesSorted(t *testing.T) {
	phrases := DefaultTable().Phrases()
	require.Contains(t, phrases, "virgule")
	require.Contains(t, phrases, "arrêter dictée")
	for i := 1; i < len(phrases); i++ {
		require.Less(t, phrases[i-1], phrases[i])
	}
}
