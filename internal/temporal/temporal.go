// Package temporal converts Spanish relative and absolute date/time phrases
// into the canonical YYYY-MM-DD / HH:MM tokens the executor understands.
//
// Both resolvers are ordered rule tables: each rule is a named pattern plus
// an extractor, evaluated in priority order, first match wins. Absence of a
// match is reported to the caller, never guessed around.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Reference is the fixed civil-time zone (UTC-5, no daylight saving) that
// "hoy" and "mañana" resolve against.
var Reference = time.FixedZone("UTC-5", -5*60*60)

// Now returns the current reference instant.
func Now() time.Time { return time.Now().In(Reference) }

var months = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, // regional alias
	"octubre": 10, "noviembre": 11, "diciembre": 12,
}

type dateRule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string, ref time.Time) (string, bool)
}

// An explicit numeric date outranks the hoy/mañana keywords, so the keyword
// rule sits last in the table.
var dateRules = []dateRule{
	{
		name: "iso",
		re:   regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		extract: func(m []string, _ time.Time) (string, bool) {
			return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		name: "slash",
		re:   regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`),
		extract: func(m []string, ref time.Time) (string, bool) {
			year := ref.Year()
			if m[3] != "" {
				year = atoi(m[3])
			}
			return buildDate(year, atoi(m[2]), atoi(m[1]))
		},
	},
	{
		name: "day-of-month",
		re:   regexp.MustCompile(`\b(\d{1,2})\s+de\s+([a-záéíóúñ]+)`),
		extract: func(m []string, ref time.Time) (string, bool) {
			month, ok := months[m[2]]
			if !ok {
				return "", false
			}
			return buildDate(ref.Year(), month, atoi(m[1]))
		},
	},
	{
		name: "keyword",
		re:   regexp.MustCompile(`\b(hoy|mañana|manana)\b`),
		extract: func(m []string, ref time.Time) (string, bool) {
			if m[1] == "hoy" {
				return ref.Format("2006-01-02"), true
			}
			return ref.AddDate(0, 0, 1).Format("2006-01-02"), true
		},
	},
}

// "de la mañana" / "por la mañana" are time-of-day phrases, not the
// tomorrow keyword; they are blanked before the keyword rule can see them.
var morningPhrase = regexp.MustCompile(`(de|por)\s+la\s+(mañana|manana)`)

// ResolveDate extracts the first date mentioned in text, resolved against
// ref. Returns false when no pattern matches; callers must ask the user
// rather than guess.
func ResolveDate(text string, ref time.Time) (string, bool) {
	t := strings.ToLower(text)
	for _, r := range dateRules {
		probe := t
		if r.name == "keyword" {
			probe = morningPhrase.ReplaceAllString(probe, " ")
		}
		// A rule may hit non-date text first ("3 de la tarde" under
		// day-of-month), so every occurrence is tried in order.
		for _, m := range r.re.FindAllStringSubmatch(probe, -1) {
			if d, ok := r.extract(m, ref); ok {
				return d, true
			}
		}
	}
	return "", false
}

type timeRule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (string, bool)
}

var timeRules = []timeRule{
	{
		name: "noon-midnight",
		re:   regexp.MustCompile(`\b(mediodía|mediodia|medianoche)\b`),
		extract: func(m []string) (string, bool) {
			if m[1] == "medianoche" {
				return "00:00", true
			}
			return "12:00", true
		},
	},
	{
		name: "hh-mm",
		re:   regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`),
		extract: func(m []string) (string, bool) {
			return buildTime(meridiem(atoi(m[1]), m[3]), atoi(m[2]))
		},
	},
	{
		name: "hour-meridiem",
		re:   regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`),
		extract: func(m []string) (string, bool) {
			return buildTime(meridiem(atoi(m[1]), m[2]), 0)
		},
	},
	{
		name: "hour-of-day-block",
		re: regexp.MustCompile(
			`\b(\d{1,2})(?:\s+y\s+(\d{1,2}))?\s+de\s+la\s+(mañana|manana|tarde|noche)\b`),
		extract: func(m []string) (string, bool) {
			h := atoi(m[1])
			min := 0
			if m[2] != "" {
				min = atoi(m[2])
			}
			switch m[3] {
			case "tarde", "noche":
				if h != 12 {
					h += 12
				}
			default: // mañana
				if h == 12 {
					h = 0
				}
			}
			return buildTime(h, min)
		},
	},
}

// ResolveTime extracts the first time-of-day mentioned in text as 24-hour
// HH:MM. Returns false when no pattern matches.
func ResolveTime(text string) (string, bool) {
	t := strings.ToLower(text)
	for _, r := range timeRules {
		if m := r.re.FindStringSubmatch(t); m != nil {
			if hm, ok := r.extract(m); ok {
				return hm, true
			}
		}
	}
	return "", false
}

func meridiem(h int, suffix string) int {
	switch suffix {
	case "am":
		if h == 12 {
			return 0
		}
	case "pm":
		if h != 12 {
			return h + 12
		}
	}
	return h
}

func buildDate(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func buildTime(h, m int) (string, bool) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
