// Package dispatch executes canonical commands against the Orbis executor,
// keeps the per-chat agenda snapshot in sync with the structured results,
// and renders the Spanish summary handed back to the user.
package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/orbis"
)

// Executor is the external scheduling backend.
type Executor interface {
	Execute(ctx context.Context, chatID int64, command string) (*orbis.Result, error)
}

// Stylist optionally rephrases a summary. It only ever sees the already
// rendered structured data, so it cannot invent facts.
type Stylist interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const transientReply = "No pude contactar con el servicio de agenda ahora mismo. Inténtalo de nuevo en un momento."

const stylePrompt = `Reformula el siguiente resumen de agenda en español natural y breve. No inventes datos, no agregues citas ni cambies fechas u horas.`

type Dispatcher struct {
	exec    Executor
	store   memory.ConversationStore
	stylist Stylist
	log     *zap.Logger
}

func New(exec Executor, store memory.ConversationStore, log *zap.Logger) *Dispatcher {
	return &Dispatcher{exec: exec, store: store, log: log}
}

// WithStylist wires the optional oracle-backed rephraser.
func (d *Dispatcher) WithStylist(s Stylist) *Dispatcher {
	d.stylist = s
	return d
}

// Dispatch performs one executor call for the resolved command and returns
// the user-facing reply. Transient failures never raise; the snapshot is
// left untouched on anything but a successful structured result.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID int64, cmd models.ResolvedCommand) string {
	res, err := d.exec.Execute(ctx, chatID, cmd.String())
	if err != nil {
		d.log.Warn("executor unavailable",
			zap.Int64("chat_id", chatID),
			zap.String("command", cmd.Name),
			zap.Error(err))
		return transientReply
	}

	if res.Legacy() {
		return d.handleLegacy(chatID, res.Respuesta)
	}
	if !res.OK {
		return failureReply(cmd.Name, res.ErrorCode)
	}

	op := res.Op
	if op == "" {
		op = cmd.Name
	}
	return d.restyle(ctx, d.applyResult(chatID, op, res))
}

func (d *Dispatcher) applyResult(chatID int64, op string, res *orbis.Result) string {
	switch op {
	case models.CmdAgenda, models.CmdBuscar, models.CmdBuscarFecha, models.CmdProximos:
		d.setSnapshot(chatID, res.Items)
		return listingReply(op, res.Items)

	case models.CmdBorrarTodo:
		d.clearSnapshot(chatID)
		if res.Count > 0 {
			return fmt.Sprintf("Listo, borré todas tus citas (%d en total).", res.Count)
		}
		return "Listo, tu agenda quedó vacía."

	case models.CmdBorrarFecha:
		d.clearSnapshot(chatID)
		if res.Count > 0 {
			return fmt.Sprintf("Borré %d cita(s) de esa fecha.", res.Count)
		}
		return "No había citas en esa fecha, no borré nada."

	case models.CmdBorrar:
		// The snapshot is not pruned locally; the next listing refreshes it.
		if res.Deleted != nil {
			return fmt.Sprintf("Borré la cita \"%s\" del %s a las %s.",
				res.Deleted.Text, res.Deleted.Date, res.Deleted.Time)
		}
		return "Cita eliminada."

	case models.CmdRegistrar:
		if res.Item != nil {
			return fmt.Sprintf("Anotado: \"%s\" el %s a las %s.",
				res.Item.Text, res.Item.Date, res.Item.Time)
		}
		return "Cita registrada."

	case models.CmdReprogramar:
		if res.Item != nil {
			return fmt.Sprintf("Listo, moví la cita a %s a las %s.",
				res.Item.Date, res.Item.Time)
		}
		return "Cita reprogramada."

	case models.CmdModificar:
		return "Listo, actualicé la cita."

	case models.CmdCuando:
		if res.Item != nil {
			return fmt.Sprintf("\"%s\" es el %s a las %s.",
				res.Item.Text, res.Item.Date, res.Item.Time)
		}
		if len(res.Items) > 0 {
			return listingReply(models.CmdBuscar, res.Items)
		}
		return "No encontré esa cita."

	default:
		return "Hecho."
	}
}

// DispatchWeek runs one search per day of the following week and merges the
// results client-side into a single grouped report.
func (d *Dispatcher) DispatchWeek(ctx context.Context, chatID int64, days []string) string {
	var (
		merged   []models.AgendaItem
		sections []string
		failures int
	)
	for _, day := range days {
		cmd := models.NewCommand(models.CmdBuscarFecha, day)
		res, err := d.exec.Execute(ctx, chatID, cmd.String())
		if err != nil || (!res.OK && !res.Legacy()) {
			failures++
			continue
		}
		if len(res.Items) == 0 {
			continue
		}
		merged = append(merged, res.Items...)
		var lines []string
		for _, it := range res.Items {
			lines = append(lines, fmt.Sprintf("  %s — %s", it.Time, it.Text))
		}
		sections = append(sections, day+"\n"+strings.Join(lines, "\n"))
	}

	if failures == len(days) {
		return transientReply
	}
	if len(merged) == 0 {
		return "No tienes citas la próxima semana."
	}
	d.setSnapshot(chatID, merged)
	return fmt.Sprintf("Tu próxima semana (%d cita(s)):\n%s",
		len(merged), strings.Join(sections, "\n"))
}

// Legacy executors answer with a formatted free-text report. Lines shaped
// like "YYYY-MM-DD HH:MM → description" feed a best-effort snapshot update.
var legacyLineRx = regexp.MustCompile(`(?m)^\s*(\d{4}-\d{2}-\d{2})\s+(\d{1,2}:\d{2})\s*(?:→|->)\s*(.+?)\s*$`)

func (d *Dispatcher) handleLegacy(chatID int64, report string) string {
	var items []models.AgendaItem
	for _, m := range legacyLineRx.FindAllStringSubmatch(report, -1) {
		hm := m[2]
		if len(hm) == 4 {
			hm = "0" + hm
		}
		items = append(items, models.AgendaItem{Date: m[1], Time: hm, Text: m[3]})
	}
	if len(items) > 0 {
		d.setSnapshot(chatID, items)
	}
	return report
}

func listingReply(op string, items []models.AgendaItem) string {
	if len(items) == 0 {
		if op == models.CmdBuscarFecha {
			return "No tienes citas para esa fecha."
		}
		return "No encontré citas."
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("Tienes %d cita(s):", len(items)))
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("%d. %s %s — %s", i+1, it.Date, it.Time, it.Text))
	}
	return strings.Join(lines, "\n")
}

// Logical executor failures get a per-operation explanation, never the raw
// error code.
func failureReply(op, code string) string {
	switch op {
	case models.CmdBorrar:
		return "No encontré esa cita para borrarla. Pídeme la agenda para ver qué hay."
	case models.CmdReprogramar:
		return "No encontré la cita que quieres mover."
	case models.CmdModificar:
		return "No encontré la cita que quieres cambiar."
	case models.CmdBorrarFecha, models.CmdBorrarTodo:
		return "No había nada que borrar."
	default:
		if code != "" {
			return "No pude completar la operación (" + humanize(code) + ")."
		}
		return "No pude completar la operación."
	}
}

func humanize(code string) string {
	switch strings.ToLower(code) {
	case "not_found", "no_encontrado":
		return "no encontré la cita"
	case "unauthorized":
		return "el servicio rechazó la petición"
	case "faltan datos", "missing_fields":
		return "faltan datos"
	default:
		return strings.ReplaceAll(strings.ToLower(code), "_", " ")
	}
}

func (d *Dispatcher) restyle(ctx context.Context, summary string) string {
	if d.stylist == nil {
		return summary
	}
	out, err := d.stylist.Complete(ctx, stylePrompt, summary)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			d.log.Debug("stylist unavailable", zap.Error(err))
		}
		return summary
	}
	return out
}

func (d *Dispatcher) setSnapshot(chatID int64, items []models.AgendaItem) {
	if err := d.store.SetSnapshot(chatID, items); err != nil {
		d.log.Warn("update snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) clearSnapshot(chatID int64) {
	if err := d.store.ClearSnapshot(chatID); err != nil {
		d.log.Warn("clear snapshot", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
