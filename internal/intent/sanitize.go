package intent

import (
	"regexp"
	"strings"

	"telegram-agenda-bridge/internal/models"
)

// Sanitize normalizes a command string before dispatch: surrounding quotes,
// backticks and whitespace are stripped, internal whitespace runs collapse
// to one space, and the accidental "/." prefix artifact becomes "/".
func Sanitize(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	cmd = strings.Trim(cmd, "`\"'“”‘’")
	cmd = strings.Join(strings.Fields(cmd), " ")
	if strings.HasPrefix(cmd, "/.") {
		cmd = "/" + strings.TrimPrefix(cmd, "/.")
	}
	return cmd
}

var embeddedCmdRx = regexp.MustCompile(`/[a-záéíóúñ_.]+[^\n]*`)

var (
	noAccessRx = regexp.MustCompile(`(?i)no tengo acceso`)
	apologyRx  = regexp.MustCompile(`(?i)^\s*[¡!]*\s*(lo siento|perd[oó]n|perdona|disculpa)`)
)

// PostProcess interprets raw oracle output for the given utterance. A slash
// command (verbatim or embedded in prose) dispatches; disclaimer and
// false-ambiguity replies are rewritten so the assistant stays in character.
func PostProcess(raw, utterance string) Result {
	if m := embeddedCmdRx.FindString(raw); m != "" {
		if cmd, ok := models.ParseCommand(Sanitize(m)); ok {
			return Result{Rule: "oracle-command", Kind: KindCommand, Command: cmd}
		}
	}

	if noAccessRx.MatchString(raw) {
		return Result{Rule: "oracle-reply", Kind: KindReply,
			Reply: "Claro, puedo consultarlo por ti. ¿Quieres que revise tu agenda?"}
	}

	// An apology opener on small talk is a false ambiguity flag; keep it
	// only when the utterance really carries a destructive or modification
	// verb.
	if apologyRx.MatchString(raw) &&
		!deleteVerbRx.MatchString(utterance) && !modifyVerbRx.MatchString(utterance) {
		return Result{Rule: "oracle-reply", Kind: KindReply,
			Reply: "¡Hola! ¿En qué te ayudo con tu agenda?"}
	}

	return Result{Rule: "oracle-reply", Kind: KindReply, Reply: raw}
}

// Scrub patterns for pulling a clean description out of a register
// utterance once the verb, date and time phrases are removed.
var (
	timeScrubRx = regexp.MustCompile(`(?i)(\ba\s+las?\s+\d{1,2}(:\d{2})?(\s*(am|pm))?(\s+y\s+\d{1,2})?(\s+de\s+la\s+(mañana|manana|tarde|noche))?|\d{1,2}:\d{2}\s*(am|pm)?|\d{1,2}\s*(am|pm)\b|\d{1,2}(\s+y\s+\d{1,2})?\s+de\s+la\s+(mañana|manana|tarde|noche)|mediod[ií]a|medianoche)`)
	dateScrubRx = regexp.MustCompile(`(?i)\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}(/\d{4})?|\d{1,2}\s+de\s+[a-záéíóúñ]+|hoy|mañana|manana)\b`)
)

var edgeStopwords = map[string]bool{
	"para": true, "el": true, "la": true, "los": true, "las": true,
	"un": true, "una": true, "de": true, "del": true, "en": true,
	"que": true, "mi": true, "a": true, "al": true,
}

func describe(text string) string {
	s := registerRx.ReplaceAllString(text, " ")
	s = timeScrubRx.ReplaceAllString(s, " ")
	s = dateScrubRx.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for len(words) > 0 && edgeStopwords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	for len(words) > 0 && edgeStopwords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Trim(strings.Join(words, " "), ".,;:!?¿¡")
}
