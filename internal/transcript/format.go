// Package transcript normalizes literal dictated text before keystroke injection.
package transcript

import (
	"strings"
	"unicode"
)

// Options controls which normalization passes run on dictated text.
type Options struct {
	RemoveHesitations   bool
	FormatNumbers       bool
	SpacePunctuation    bool
	CapitalizeSentences bool
}

// hesitations are filler words dropped from dictated French speech.
var hesitations = map[string]struct{}{
	"euh":  {},
	"euhm": {},
	"hum":  {},
	"ben":  {},
	"bah":  {},
}

// spelledDigits maps spoken French numbers zero through ten to digits.
var spelledDigits = map[string]string{
	"zéro":   "0",
	"un":     "1",
	"deux":   "2",
	"trois":  "3",
	"quatre": "4",
	"cinq":   "5",
	"six":    "6",
	"sept":   "7",
	"huit":   "8",
	"neuf":   "9",
	"dix":    "10",
}

// Format applies the configured normalization passes to one utterance.
// The input is a single line; newline handling belongs to the caller.
func Format(text string, opts Options) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	if opts.RemoveHesitations {
		text = removeHesitations(text)
	}
	if opts.FormatNumbers {
		text = formatNumbers(text)
	}
	if opts.SpacePunctuation {
		text = spacePunctuation(text)
	}
	if opts.CapitalizeSentences {
		text = capitalizeSentences(text)
	}
	return text
}

func removeHesitations(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, word := range words {
		if _, noise := hesitations[strings.ToLower(word)]; noise {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

func formatNumbers(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if digit, ok := spelledDigits[strings.ToLower(word)]; ok {
			words[i] = digit
		}
	}
	return strings.Join(words, " ")
}

// spacePunctuation removes the space a spoken punctuation token leaves
// before `,.!?`. Colon and semicolon keep their preceding space, matching
// common French typography.
func spacePunctuation(text string) string {
	replacer := strings.NewReplacer(
		" ,", ",",
		" .", ".",
		" !", "!",
		" ?", "?",
	)
	return replacer.Replace(text)
}

// properNouns are words always written with a leading capital wherever they
// fall in the utterance: French day and month names plus common place names.
var properNouns = map[string]struct{}{
	"france": {}, "paris": {},
	"lundi": {}, "mardi": {}, "mercredi": {}, "jeudi": {},
	"vendredi": {}, "samedi": {}, "dimanche": {},
	"janvier": {}, "février": {}, "mars": {}, "avril": {},
	"mai": {}, "juin": {}, "juillet": {}, "août": {},
	"septembre": {}, "octobre": {}, "novembre": {}, "décembre": {},
}

// capitalizeSentences uppercases the first letter of the utterance, of every
// sentence following a terminal punctuation mark, and of known proper nouns.
func capitalizeSentences(text string) string {
	runes := []rune(text)
	capitalizeNext := true
	for i, r := range runes {
		if unicode.IsLetter(r) {
			if capitalizeNext {
				runes[i] = unicode.ToUpper(r)
			}
			capitalizeNext = false
			continue
		}
		switch r {
		case '.', '!', '?':
			capitalizeNext = true
		}
	}

	words := strings.Split(string(runes), " ")
	for i, word := range words {
		if _, proper := properNouns[strings.ToLower(word)]; proper {
			words[i] = capitalizeWord(word)
		}
	}
	return strings.Join(words, " ")
}

// capitalizeWord uppercases the first rune and lowercases the rest.
func capitalizeWord(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
