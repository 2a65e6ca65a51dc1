package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeFrench  locale = "fr"
	localeEnglish locale = "en"
)

type messages struct {
	running string
	paused  string
	stopped string
}

func feedbackMessagesFromEnv() messages {
	return feedbackMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeFrench
}

func feedbackMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		return messages{
			running: "Dictation running",
			paused:  "Dictation paused",
			stopped: "Dictation stopped",
		}
	default:
		return messages{
			running: "Dictée en cours",
			paused:  "Dictée en pause",
			stopped: "Dictée arrêtée",
		}
	}
}
