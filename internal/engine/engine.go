// Package engine runs one conversation turn end to end: confirmation
// intercept, fast-path classification, oracle fallback, dispatch.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/confirm"
	"telegram-agenda-bridge/internal/dispatch"
	"telegram-agenda-bridge/internal/intent"
	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/temporal"
)

// Oracle is the language-model fallback classifier.
type Oracle interface {
	Classify(ctx context.Context, utterance string) (string, error)
}

const oracleDownReply = "Disculpa, ahora mismo no puedo procesar eso. ¿Me lo repites en un momento?"

type Engine struct {
	store   memory.ConversationStore
	machine *confirm.Machine
	disp    *dispatch.Dispatcher
	oracle  Oracle
	log     *zap.Logger
	now     func() time.Time
}

func New(store memory.ConversationStore, disp *dispatch.Dispatcher, oracle Oracle, log *zap.Logger) *Engine {
	return &Engine{
		store:   store,
		machine: confirm.New(store, log),
		disp:    disp,
		oracle:  oracle,
		log:     log,
		now:     temporal.Now,
	}
}

// WithClock overrides the reference clock (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// HandleTurn resolves one utterance into a reply. Nothing in here is ever
// fatal: the worst outcome is an apologetic answer for this turn.
func (e *Engine) HandleTurn(ctx context.Context, turn models.Turn) models.Reply {
	turnID := uuid.NewString()[:8]
	log := e.log.With(zap.Int64("chat_id", turn.ChatID), zap.String("turn_id", turnID))

	if err := e.store.Touch(turn.ChatID); err != nil {
		log.Warn("register chat", zap.Error(err))
	}

	audio := preferAudio(turn)
	reply := func(text string) models.Reply {
		return models.Reply{Text: text, Audio: audio}
	}

	// A pending confirmation intercepts unambiguous yes/no answers first.
	// Anything else keeps the pending action and flows on as a normal turn.
	if action, verdict := e.machine.Intercept(turn.ChatID, turn.Text); verdict != confirm.NoPending {
		switch verdict {
		case confirm.Confirmed:
			cmd, ok := confirm.Materialize(action, e.now())
			if !ok {
				log.Warn("unmaterializable pending action", zap.Int("kind", int(action.Kind)))
				return reply("Algo se cruzó con la confirmación, mejor pídemelo de nuevo.")
			}
			log.Info("confirmed", zap.String("command", cmd.Name))
			return reply(e.disp.Dispatch(ctx, turn.ChatID, cmd))
		case confirm.Declined:
			log.Info("declined")
			return reply("De acuerdo, no toco nada.")
		}
	}

	snapshot, err := e.store.Snapshot(turn.ChatID)
	if err != nil {
		log.Warn("read snapshot", zap.Error(err))
	}

	if res, ok := intent.Classify(turn.Text, snapshot, e.now()); ok {
		log.Info("fast path", zap.String("rule", res.Rule))
		return reply(e.apply(ctx, turn.ChatID, res))
	}

	if e.oracle == nil {
		return reply("No estoy seguro de qué necesitas. Puedes pedirme la agenda, registrar o borrar citas.")
	}
	raw, err := e.oracle.Classify(ctx, turn.Text)
	if err != nil {
		log.Warn("oracle failed", zap.Error(err))
		return reply(oracleDownReply)
	}
	res := intent.PostProcess(raw, turn.Text)
	log.Info("oracle path", zap.String("rule", res.Rule))
	return reply(e.apply(ctx, turn.ChatID, res))
}

func (e *Engine) apply(ctx context.Context, chatID int64, res intent.Result) string {
	switch res.Kind {
	case intent.KindCommand:
		return e.disp.Dispatch(ctx, chatID, res.Command)
	case intent.KindConfirm:
		return e.machine.Arm(chatID, res.Pending)
	case intent.KindWeek:
		return e.disp.DispatchWeek(ctx, chatID, res.Days)
	default:
		return res.Reply
	}
}

// preferAudio applies the literal output-channel toggles; "en texto" wins
// over the audio phrases when both appear.
func preferAudio(turn models.Turn) bool {
	t := strings.ToLower(turn.Text)
	if strings.Contains(t, "en texto") {
		return false
	}
	if strings.Contains(t, "en audio") || strings.Contains(t, "nota de voz") {
		return true
	}
	return turn.PreferAudio
}
