package command

import (
	"sort"
	"strings"
)

// Table maps a normalized spoken phrase to its action. Immutable after build.
type Table map[string]Action

// DefaultTable returns the built-in French dictation vocabulary.
func DefaultTable() Table {
	return Table{
		// punctuation
		"virgule":               Literal(","),
		"point":                 Literal("."),
		"point d'interrogation": Literal("?"),
		"point d'exclamation":   Literal("!"),
		"point-virgule":         Literal(";"),
		"deux points":           Literal(":"),
		"ouvrir parenthèse":     Literal("("),
		"fermer parenthèse":     Literal(")"),
		"guillemets":            Literal("\""),
		"espace":                Literal(" "),

		// line control
		"nouvelle ligne":    {Kind: KindNewline},
		"retour à la ligne": {Kind: KindNewline},
		"à la ligne":        {Kind: KindNewline},

		// session control
		"pause dictée":     {Kind: KindPause},
		"reprendre dictée": {Kind: KindResume},
		"arrêter dictée":   {Kind: KindStop},
		"effacer":          {Kind: KindBackspace},
		"supprimer ligne":  {Kind: KindDeleteLine},
	}
}

// NewTable builds the runtime table from the defaults plus user tuning.
// Extra entries map a spoken phrase to emitted text; disabled phrases are
// removed after extras apply.
func NewTable(extra map[string]string, disabled []string) Table {
	table := DefaultTable()
	for phrase, text := range extra {
		phrase = Normalize(phrase)
		if phrase == "" || text == "" {
			continue
		}
		if text == "\n" {
			table[phrase] = Action{Kind: KindNewline}
			continue
		}
		table[phrase] = Literal(text)
	}
	for _, phrase := range disabled {
		delete(table, Normalize(phrase))
	}
	return table
}

// Phrases returns every spoken phrase in deterministic order.
func (t Table) Phrases() []string {
	phrases := make([]string, 0, len(t))
	for phrase := range t {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)
	return phrases
}

// maxPhraseWords reports the longest phrase length in words.
func (t Table) maxPhraseWords() int {
	max := 1
	for phrase := range t {
		if n := len(strings.Fields(phrase)); n > max {
			max = n
		}
	}
	return max
}

// Normalize lowercases and trims a spoken phrase for table lookup.
func Normalize(fragment string) string {
	return strings.ToLower(strings.TrimSpace(fragment))
}
