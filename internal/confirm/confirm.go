// Package confirm implements the per-chat confirmation state machine that
// gates destructive or ambiguous operations behind an explicit yes/no turn.
package confirm

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/temporal"
)

// Verdict is the outcome of running an utterance against the pending state.
type Verdict int

const (
	NoPending  Verdict = iota // chat is idle, nothing intercepted
	Confirmed                 // affirmative reply, action must be dispatched
	Declined                  // negative reply, action cancelled
	Unanswered                // pending kept, utterance continues as normal
)

// Affirmative/negative detection is token-set membership, not substring
// search: "buscó el número" must not read as a "no". An utterance counts
// only when every token belongs to the set (plus neutral fillers) and at
// least one is a core answer token.
var (
	affirmTokens = tokenSet("sí", "si", "sip", "claro", "ok", "okay", "vale",
		"dale", "listo", "bueno", "confirmo", "confirmar", "afirmativo",
		"hazlo", "adelante", "seguro", "correcto", "exacto", "yes")
	negativeTokens = tokenSet("no", "nop", "nope", "negativo", "cancela",
		"cancelar", "cancélalo", "cancelalo", "olvídalo", "olvidalo", "nunca")
	fillerTokens = tokenSet("por", "favor", "gracias", "ya", "pues", "que",
		"mejor", "ahora", "entonces")
)

func IsAffirmative(text string) bool { return matches(text, affirmTokens) }
func IsNegative(text string) bool    { return matches(text, negativeTokens) }

func matches(text string, core map[string]struct{}) bool {
	hit := false
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		tok = strings.Trim(tok, "¿?¡!.,;:()\"'")
		if tok == "" {
			continue
		}
		if _, ok := core[tok]; ok {
			hit = true
			continue
		}
		if _, ok := fillerTokens[tok]; ok {
			continue
		}
		return false
	}
	return hit
}

// Machine tracks one PendingAction per chat through the ConversationStore.
type Machine struct {
	store memory.ConversationStore
	log   *zap.Logger
}

func New(store memory.ConversationStore, log *zap.Logger) *Machine {
	return &Machine{store: store, log: log}
}

// Arm records the pending action and returns the yes/no question to send.
// No backend call happens until the user confirms.
func (m *Machine) Arm(chatID int64, p models.PendingAction) string {
	if err := m.store.SetPending(chatID, p); err != nil {
		m.log.Warn("store pending", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return question(p)
}

// Intercept runs before intent classification on every turn. When the chat
// awaits confirmation and the utterance is an unambiguous yes or no, the
// pending action is cleared first (at-most-once execution even if dispatch
// is slow) and the verdict tells the caller what to do. Anything else keeps
// the pending action and the utterance flows on to normal classification.
func (m *Machine) Intercept(chatID int64, text string) (models.PendingAction, Verdict) {
	p, ok, err := m.store.Pending(chatID)
	if err != nil {
		m.log.Warn("read pending", zap.Int64("chat_id", chatID), zap.Error(err))
		return models.PendingAction{}, NoPending
	}
	if !ok {
		return models.PendingAction{}, NoPending
	}
	switch {
	case IsAffirmative(text):
		m.clear(chatID)
		return p, Confirmed
	case IsNegative(text):
		m.clear(chatID)
		return p, Declined
	default:
		return p, Unanswered
	}
}

func (m *Machine) clear(chatID int64) {
	if err := m.store.ClearPending(chatID); err != nil {
		m.log.Warn("clear pending", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Materialize turns a confirmed pending action into its canonical command.
// FetchDate resolves at confirmation time, against the reference instant.
func Materialize(p models.PendingAction, ref time.Time) (models.ResolvedCommand, bool) {
	switch p.Kind {
	case models.ConfirmDeleteAll:
		return models.NewCommand(models.CmdBorrarTodo, "confirmar"), true
	case models.ConfirmDeleteByDate:
		return models.NewCommand(models.CmdBorrarFecha, p.Date), true
	case models.ConfirmFetchDate:
		day := ref.In(temporal.Reference)
		if p.Which == "mañana" {
			day = day.AddDate(0, 0, 1)
		}
		return models.NewCommand(models.CmdBuscarFecha, day.Format("2006-01-02")), true
	case models.ConfirmGenericCommand:
		return models.ParseCommand(p.Command)
	default:
		return models.ResolvedCommand{}, false
	}
}

func question(p models.PendingAction) string {
	switch p.Kind {
	case models.ConfirmDeleteAll:
		return "¿Seguro que quieres borrar toda la agenda? Responde sí o no."
	case models.ConfirmDeleteByDate:
		return "¿Borro todas las citas del " + p.Date + "? Responde sí o no."
	case models.ConfirmFetchDate:
		return "¿Quieres que revise las citas de " + p.Which + "?"
	default:
		return "¿Confirmas la operación? Responde sí o no."
	}
}

func tokenSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}
