// Package command classifies recognized speech fragments into dictation actions.
package command

// Kind discriminates the action produced for one recognized phrase.
type Kind int

const (
	// KindText injects a literal dictated fragment verbatim.
	KindText Kind = iota + 1
	// KindLiteral injects a fixed character sequence (punctuation names).
	KindLiteral
	// KindNewline inserts a line break.
	KindNewline
	// KindPause suspends keystroke injection while recognition continues.
	KindPause
	// KindResume restores keystroke injection.
	KindResume
	// KindStop terminates the dictation session.
	KindStop
	// KindBackspace deletes the last injected character.
	KindBackspace
	// KindDeleteLine deletes the current line at the input focus.
	KindDeleteLine
)

// Action is one classified unit of work for the output actuator.
type Action struct {
	Kind Kind
	Text string
}

// Text builds a literal dictated-text action.
func Text(s string) Action { return Action{Kind: KindText, Text: s} }

// Literal builds a fixed character emission action.
func Literal(s string) Action { return Action{Kind: KindLiteral, Text: s} }

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLiteral:
		return "literal"
	case KindNewline:
		return "newline"
	case KindPause:
		return "pause"
	case KindResume:
		return "resume"
	case KindStop:
		return "stop"
	case KindBackspace:
		return "backspace"
	case KindDeleteLine:
		return "delete-line"
	default:
		return "unknown"
	}
}
