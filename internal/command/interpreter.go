package command

import "strings"

// Interpreter performs pure classification of recognized fragments.
// It never mutates session state; the caller applies the actions.
type Interpreter struct {
	table    Table
	cutoff   float64
	maxWords int
}

// NewInterpreter builds an interpreter over a table with a confidence cutoff.
func NewInterpreter(table Table, cutoff float64) *Interpreter {
	if table == nil {
		table = DefaultTable()
	}
	return &Interpreter{
		table:    table,
		cutoff:   cutoff,
		maxWords: table.maxPhraseWords(),
	}
}

// Classify maps one whole fragment to a single action. Fragments below the
// confidence cutoff are discarded; unknown fragments become literal text
// carrying the normalized fragment.
func (i *Interpreter) Classify(fragment string, confidence float64) (Action, bool) {
	normalized := Normalize(fragment)
	if normalized == "" || confidence < i.cutoff {
		return Action{}, false
	}
	if action, ok := i.table[normalized]; ok {
		return action, true
	}
	return Text(normalized), true
}

// Interpret expands one fragment into an action sequence, honoring commands
// embedded inside a longer utterance. Command phrases match longest-first so
// "retour à la ligne" wins over the bare word "retour"; runs of plain words
// coalesce into a single literal-text action.
func (i *Interpreter) Interpret(fragment string, confidence float64) ([]Action, bool) {
	normalized := Normalize(fragment)
	if normalized == "" || confidence < i.cutoff {
		return nil, false
	}

	words := strings.Fields(normalized)
	actions := make([]Action, 0, 1)
	var pending []string

	flush := func() {
		if len(pending) == 0 {
			return
		}
		actions = append(actions, Text(strings.Join(pending, " ")))
		pending = nil
	}

	for idx := 0; idx < len(words); {
		matched := false
		maxSpan := i.maxWords
		if remaining := len(words) - idx; maxSpan > remaining {
			maxSpan = remaining
		}
		for span := maxSpan; span >= 1; span-- {
			phrase := strings.Join(words[idx:idx+span], " ")
			action, ok := i.table[phrase]
			if !ok {
				continue
			}
			flush()
			actions = append(actions, action)
			idx += span
			matched = true
			break
		}
		if !matched {
			pending = append(pending, words[idx])
			idx++
		}
	}
	flush()

	return actions, true
}

// Cutoff reports the configured confidence cutoff.
func (i *Interpreter) Cutoff() float64 {
	return i.cutoff
}
