// Package refresolve disambiguates phrases like "borra esa" or "la segunda"
// into a concrete item of the chat's last agenda listing.
package refresolve

import (
	"fmt"
	"regexp"
	"strings"

	"telegram-agenda-bridge/internal/models"
)

var (
	quotedRx  = regexp.MustCompile(`"([^"]+)"|'([^']+)'|«([^»]+)»`)
	clockRx   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	ordinalRx = regexp.MustCompile(`\b(\d{1,2})[.)]`)
)

var ordinalWords = map[string]int{
	"primera": 1, "primero": 1, "primer": 1,
	"segunda": 2, "segundo": 2,
	"tercera": 3, "tercero": 3, "tercer": 3,
	"cuarta": 4, "cuarto": 4,
	"quinta": 5, "quinto": 5,
	"sexta": 6, "sexto": 6,
	"séptima": 7, "septima": 7, "séptimo": 7, "septimo": 7,
	"octava": 8, "octavo": 8,
	"novena": 9, "noveno": 9,
}

// SelectItem picks the snapshot item the utterance refers to. The chain runs
// from most to least specific: a quoted description substring, an explicit
// HH:MM matching an item's time, an ordinal (1-based), and finally the first
// item. Only an empty snapshot yields no answer.
func SelectItem(snapshot []models.AgendaItem, text string) (models.AgendaItem, bool) {
	if len(snapshot) == 0 {
		return models.AgendaItem{}, false
	}
	lower := strings.ToLower(text)

	if m := quotedRx.FindStringSubmatch(text); m != nil {
		needle := strings.ToLower(firstGroup(m))
		for _, it := range snapshot {
			if strings.Contains(strings.ToLower(it.Text), needle) {
				return it, true
			}
		}
	}

	if m := clockRx.FindStringSubmatch(lower); m != nil {
		h := 0
		fmt.Sscanf(m[1], "%d", &h)
		hm := fmt.Sprintf("%02d:%s", h, m[2])
		for _, it := range snapshot {
			if it.Time == hm {
				return it, true
			}
		}
	}

	if idx, ok := ordinal(lower); ok && idx >= 1 && idx <= len(snapshot) {
		return snapshot[idx-1], true
	}

	return snapshot[0], true
}

func ordinal(lower string) (int, bool) {
	if m := ordinalRx.FindStringSubmatch(lower); m != nil {
		n := 0
		fmt.Sscanf(m[1], "%d", &n)
		return n, true
	}
	for _, tok := range strings.Fields(lower) {
		if n, ok := ordinalWords[strings.Trim(tok, ".,;:!?")]; ok {
			return n, true
		}
	}
	return 0, false
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
