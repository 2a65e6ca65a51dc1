package config

import (
	"fmt"
	"strings"
	"unicode"
)

// argvScanner splits a shell-style command string into an argv slice.
// Supports single and double quotes plus backslash escapes; no variable
// expansion or globbing.
type argvScanner struct {
	word  strings.Builder
	argv  []string
	quote rune
}

func (s *argvScanner) endWord() {
	if s.word.Len() > 0 {
		s.argv = append(s.argv, s.word.String())
		s.word.Reset()
	}
}

// parseArgv turns a user-configured command string (typing.type_cmd,
// feedback.player_cmd) into an exec argv. Blank input and comment lines
// yield a nil argv, which callers treat as "not configured".
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var s argvScanner
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' {
			i++
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
			}
			s.word.WriteRune(runes[i])
			continue
		}

		if s.quote != 0 {
			if r == s.quote {
				s.quote = 0
			} else {
				s.word.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '\'' || r == '"':
			s.quote = r
		case unicode.IsSpace(r):
			s.endWord()
		default:
			s.word.WriteRune(r)
		}
	}

	if s.quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	s.endWord()
	return s.argv, nil
}

// mustParseArgv is for built-in defaults that are known valid.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
