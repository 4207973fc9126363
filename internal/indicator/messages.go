package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeHindi   locale = "hi"
)

type messages struct {
	recording  string
	diagnosing string
	ready      string
	errorText  string
}

var catalog = map[locale]messages{
	localeEnglish: {
		recording:  "Recording…",
		diagnosing: "Diagnosing…",
		ready:      "Diagnosis ready",
		errorText:  "Diagnosis error",
	},
	localeHindi: {
		recording:  "रिकॉर्डिंग…",
		diagnosing: "निदान हो रहा है…",
		ready:      "निदान तैयार है",
		errorText:  "निदान में त्रुटि",
	},
}

// indicatorMessagesFromEnv follows the usual LC_ALL > LC_MESSAGES > LANG order.
func indicatorMessagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return indicatorMessages(resolveLocale(raw))
		}
	}
	return indicatorMessages(localeEnglish)
}

// resolveLocale maps a POSIX locale such as "hi_IN.UTF-8" to a catalog entry.
func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	lang, _, _ := strings.Cut(raw, "_")
	lang, _, _ = strings.Cut(lang, ".")
	if _, ok := catalog[locale(lang)]; ok {
		return locale(lang)
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	if m, ok := catalog[tag]; ok {
		return m
	}
	return catalog[localeEnglish]
}
