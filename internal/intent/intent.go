// Package intent resolves a free-text utterance into a canonical executor
// command, a pending confirmation, or a conversational reply. Deterministic
// fast paths run first, in a fixed priority order; the language-model oracle
// is consulted only when no fast path fires.
package intent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/refresolve"
	"telegram-agenda-bridge/internal/temporal"
)

// Kind says what the classifier decided.
type Kind int

const (
	KindNone    Kind = iota // no fast path fired, ask the oracle
	KindCommand             // dispatch Command directly
	KindConfirm             // arm Pending and ask the yes/no question
	KindReply               // send Reply, touch nothing
	KindWeek                // aggregate Days into one grouped report
)

// Result of classification. Rule names the fast path that fired.
type Result struct {
	Rule    string
	Kind    Kind
	Command models.ResolvedCommand
	Pending models.PendingAction
	Reply   string
	Days    []string
}

var (
	deleteVerbRx = regexp.MustCompile(`(?i)\b(borra|bórrame|borrame|borrar|elimina|elimíname|eliminame|eliminar|quita|quítame|quitame|quitar|limpia|limpiar|suprime)\b`)
	modifyVerbRx = regexp.MustCompile(`(?i)\b(reprograma|reprogramar|reprográmame|reprogramame|cambia|cambiar|mueve|mover|pasa|pasar|modifica|modificar|pospón|pospon|posponer|adelanta|adelantar)\b`)
	registerRx   = regexp.MustCompile(`(?i)\b(regístrame|registrame|registra|registrar|agéndame|agendame|agenda|agendar|anota|anótame|anotame|apunta|apúntame|apuntame|recuérdame|recuerdame)\b`)

	listAllRx = regexp.MustCompile(`(?i)(toda la agenda|agenda completa|todas (mis|las) citas|mu[eé]strame todo|ens[eé]ñame todo|qu[eé] tengo agendado)`)
	verifyRx  = regexp.MustCompile(`(?i)(ya (lo |la |las )?borraste|borraste todo|qu[eé] queda en la agenda|queda algo( en la agenda)?|qu[eé] hay en la agenda)`)

	allWordRx  = regexp.MustCompile(`(?i)\b(todo|todas|toda)\b`)
	dayOfRx    = regexp.MustCompile(`(?i)\b(?:del|el)\s+d[ií]a\s+(\d{1,2})\b`)
	weekRx     = regexp.MustCompile(`(?i)((la\s+)?(pr[oó]xima|otra)\s+semana|semana\s+que\s+viene|siguiente\s+semana)`)
	inNRx      = regexp.MustCompile(`(?i)\ben\s+(\d+)\s+(minutos?|horas?)(?:\s+para\s+(.+))?`)
	tomorrowRx = regexp.MustCompile(`(?i)\b(mañana|manana)\b`)
	agendaKwRx = regexp.MustCompile(`(?i)\b(agenda|citas?|pendientes?|reuniones)\b`)
)

// Classify runs the fast paths against the utterance. ok is false when no
// rule fired and the caller must fall back to the oracle. ref is the
// reference instant for relative dates; snapshot is the chat's last listing.
func Classify(text string, snapshot []models.AgendaItem, ref time.Time) (Result, bool) {
	// Already-canonical input passes through verbatim (after sanitization,
	// which also unwraps quotes and backticks around the command).
	if clean := Sanitize(text); strings.HasPrefix(clean, "/") {
		if cmd, ok := models.ParseCommand(clean); ok {
			return Result{Rule: "passthrough", Kind: KindCommand, Command: cmd}, true
		}
	}

	hasDelete := deleteVerbRx.MatchString(text)
	hasModify := modifyVerbRx.MatchString(text)

	if listAllRx.MatchString(text) && !hasDelete {
		return Result{Rule: "list-all", Kind: KindCommand,
			Command: models.NewCommand(models.CmdAgenda)}, true
	}

	if hasDelete {
		return classifyDelete(text, snapshot, ref), true
	}

	if verifyRx.MatchString(text) {
		return Result{Rule: "verify", Kind: KindCommand,
			Command: models.NewCommand(models.CmdAgenda)}, true
	}

	if hasModify {
		return classifyModify(text, snapshot, ref), true
	}

	if r, ok := classifyRegister(text, ref); ok {
		return r, true
	}

	// Direct query, no confirmation: asking about tomorrow's agenda is not
	// destructive.
	if tomorrowRx.MatchString(stripMorning(text)) && agendaKwRx.MatchString(text) {
		date := ref.In(temporal.Reference).AddDate(0, 0, 1).Format("2006-01-02")
		return Result{Rule: "tomorrow-search", Kind: KindCommand,
			Command: models.NewCommand(models.CmdBuscarFecha, date)}, true
	}

	if weekRx.MatchString(text) {
		return Result{Rule: "next-week", Kind: KindWeek, Days: nextWeek(ref)}, true
	}

	if m := inNRx.FindStringSubmatch(text); m != nil {
		return classifyRelativeReminder(m, ref), true
	}

	return Result{}, false
}

func classifyDelete(text string, snapshot []models.AgendaItem, ref time.Time) Result {
	if date, ok := temporal.ResolveDate(text, ref); ok {
		return Result{Rule: "delete-by-date", Kind: KindCommand,
			Command: models.NewCommand(models.CmdBorrarFecha, date)}
	}

	if m := dayOfRx.FindStringSubmatch(text); m != nil {
		day := atoi(m[1])
		return Result{Rule: "delete-day-of-month", Kind: KindConfirm,
			Pending: models.PendingAction{
				Kind: models.ConfirmDeleteByDate,
				Date: inferDate(snapshot, day, ref),
			}}
	}

	if allWordRx.MatchString(text) || strings.Contains(strings.ToLower(text), "agenda") {
		return Result{Rule: "delete-all", Kind: KindConfirm,
			Pending: models.PendingAction{Kind: models.ConfirmDeleteAll}}
	}

	item, ok := refresolve.SelectItem(snapshot, text)
	if !ok {
		return Result{Rule: "delete-by-reference", Kind: KindReply,
			Reply: "No tengo citas recientes a la vista. ¿Cuál quieres borrar? Dime la fecha y la hora."}
	}
	return Result{Rule: "delete-by-reference", Kind: KindCommand,
		Command: models.NewCommand(models.CmdBorrar, item.Date, item.Time)}
}

func classifyModify(text string, snapshot []models.AgendaItem, ref time.Time) Result {
	item, ok := refresolve.SelectItem(snapshot, text)
	if !ok {
		return Result{Rule: "reschedule", Kind: KindReply,
			Reply: "¿Qué cita quieres mover? Dime cuál es y la nueva fecha u hora."}
	}

	// The utterance may name the item's own date/time as the reference
	// ("mueve la de las 10:00 a las 15:00"); drop the first occurrence so
	// the new values are parsed from what remains.
	rest := strings.Replace(text, item.Time, "", 1)
	rest = strings.Replace(rest, item.Date, "", 1)

	newDate, okD := temporal.ResolveDate(rest, ref)
	newTime, okT := temporal.ResolveTime(rest)
	if !okD && !okT {
		return Result{Rule: "reschedule", Kind: KindReply,
			Reply: fmt.Sprintf("¿Para cuándo muevo \"%s\"? Dime la nueva fecha u hora.", item.Text)}
	}
	if !okD {
		newDate = item.Date
	}
	if !okT {
		newTime = item.Time
	}
	return Result{Rule: "reschedule", Kind: KindCommand,
		Command: models.NewCommand(models.CmdReprogramar, item.Date, item.Time, newDate, newTime)}
}

func classifyRegister(text string, ref time.Time) (Result, bool) {
	if !registerRx.MatchString(text) {
		return Result{}, false
	}
	date, okD := temporal.ResolveDate(text, ref)
	hm, okT := temporal.ResolveTime(text)
	if !okD || !okT {
		return Result{}, false
	}
	desc := describe(text)
	if desc == "" {
		desc = "Recordatorio"
	}
	return Result{Rule: "register", Kind: KindCommand,
		Command: models.NewCommand(models.CmdRegistrar, date, hm, desc)}, true
}

func classifyRelativeReminder(m []string, ref time.Time) Result {
	n := atoi(m[1])
	unit := time.Minute
	if strings.HasPrefix(strings.ToLower(m[2]), "hora") {
		unit = time.Hour
	}
	at := ref.In(temporal.Reference).Add(time.Duration(n) * unit)

	desc := strings.TrimSpace(m[3])
	desc = strings.Trim(desc, ".,;:!?")
	if desc == "" {
		desc = "Recordatorio"
	}
	return Result{Rule: "relative-reminder", Kind: KindCommand,
		Command: models.NewCommand(models.CmdRegistrar,
			at.Format("2006-01-02"), at.Format("15:04"), desc)}
}

// inferDate maps a bare day-of-month to a full date: a snapshot item on that
// day supplies year and month, otherwise the reference month is assumed.
func inferDate(snapshot []models.AgendaItem, day int, ref time.Time) string {
	suffix := fmt.Sprintf("-%02d", day)
	for _, it := range snapshot {
		if strings.HasSuffix(it.Date, suffix) {
			return it.Date
		}
	}
	r := ref.In(temporal.Reference)
	return fmt.Sprintf("%04d-%02d-%02d", r.Year(), r.Month(), day)
}

// nextWeek returns the seven dates of the following Monday through Sunday.
func nextWeek(ref time.Time) []string {
	r := ref.In(temporal.Reference)
	offset := (int(time.Monday) - int(r.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	monday := r.AddDate(0, 0, offset)
	days := make([]string, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return days
}

var morningBlockRx = regexp.MustCompile(`(?i)(de|por)\s+la\s+(mañana|manana)`)

func stripMorning(text string) string {
	return morningBlockRx.ReplaceAllString(text, " ")
}

func atoi(s string) int {
	n := 0
	fmt.Sscanf(s, "%d", &n)
	return n
}
