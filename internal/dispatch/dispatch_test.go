package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/orbis"
)

type fakeExec struct {
	calls []string
	fn    func(command string) (*orbis.Result, error)
}

func (f *fakeExec) Execute(_ context.Context, _ int64, command string) (*orbis.Result, error) {
	f.calls = append(f.calls, command)
	return f.fn(command)
}

func fixed(res *orbis.Result, err error) *fakeExec {
	return &fakeExec{fn: func(string) (*orbis.Result, error) { return res, err }}
}

const chat = int64(42)

func TestListingOverwritesSnapshot(t *testing.T) {
	items := []models.AgendaItem{
		{Date: "2025-09-10", Time: "10:00", Text: "Reunión"},
		{Date: "2025-09-10", Time: "14:00", Text: "Almuerzo"},
	}
	store := memory.NewStore()
	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdAgenda, Items: items}, nil), store, zap.NewNop())

	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdAgenda))
	assert.Contains(t, reply, "2 cita(s)")
	assert.Contains(t, reply, "Almuerzo")

	got, err := store.Snapshot(chat)
	require.NoError(t, err)
	assert.Equal(t, items, got, "server order preserved")
}

func TestDeleteAllClearsSnapshot(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.SetSnapshot(chat, []models.AgendaItem{{Date: "2025-09-10", Time: "10:00", Text: "x"}}))

	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdBorrarTodo, Count: 3}, nil), store, zap.NewNop())
	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdBorrarTodo, "confirmar"))
	assert.Contains(t, reply, "3")

	got, err := store.Snapshot(chat)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPointDeleteKeepsSnapshot(t *testing.T) {
	seed := []models.AgendaItem{{Date: "2025-09-10", Time: "10:00", Text: "x"}}
	store := memory.NewStore()
	require.NoError(t, store.SetSnapshot(chat, seed))

	deleted := &models.AgendaItem{Date: "2025-09-10", Time: "10:00", Text: "x"}
	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdBorrar, Deleted: deleted}, nil), store, zap.NewNop())
	d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdBorrar, "2025-09-10", "10:00"))

	// The next listing refreshes it; nothing is pruned locally.
	got, _ := store.Snapshot(chat)
	assert.Equal(t, seed, got)
}

func TestTransientFailureLeavesSnapshotAlone(t *testing.T) {
	seed := []models.AgendaItem{{Date: "2025-09-10", Time: "10:00", Text: "x"}}
	store := memory.NewStore()
	require.NoError(t, store.SetSnapshot(chat, seed))

	d := New(fixed(nil, orbis.ErrUnavailable), store, zap.NewNop())
	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdAgenda))
	assert.Equal(t, transientReply, reply)

	got, _ := store.Snapshot(chat)
	assert.Equal(t, seed, got)
}

func TestLogicalFailurePhrasing(t *testing.T) {
	store := memory.NewStore()
	fail := &orbis.Result{OK: false, Op: models.CmdBorrar, ErrorCode: "not_found"}
	d := New(fixed(fail, nil), store, zap.NewNop())

	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdBorrar, "2025-09-10", "10:00"))
	assert.NotContains(t, reply, "not_found", "raw codes never reach the user")
	assert.Contains(t, reply, "borrar")

	reply = d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdReprogramar))
	assert.Contains(t, reply, "mover")

	reply = d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdModificar))
	assert.Contains(t, reply, "cambiar")
}

func TestLegacyReportParsesSnapshot(t *testing.T) {
	report := "Tu agenda:\n2025-09-10 10:00 → Reunión con Juan\n2025-09-11 9:30 -> Dentista\n"
	store := memory.NewStore()
	d := New(fixed(&orbis.Result{Respuesta: report}, nil), store, zap.NewNop())

	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdAgenda))
	assert.Equal(t, report, reply)

	got, _ := store.Snapshot(chat)
	require.Len(t, got, 2)
	assert.Equal(t, models.AgendaItem{Date: "2025-09-10", Time: "10:00", Text: "Reunión con Juan"}, got[0])
	assert.Equal(t, "09:30", got[1].Time, "legacy times are zero-padded")
}

func TestDispatchWeek(t *testing.T) {
	store := memory.NewStore()
	exec := &fakeExec{fn: func(command string) (*orbis.Result, error) {
		if command == "/buscar_fecha 2025-09-16" {
			return &orbis.Result{OK: true, Op: models.CmdBuscarFecha, Items: []models.AgendaItem{
				{Date: "2025-09-16", Time: "09:00", Text: "Dentista"},
			}}, nil
		}
		return &orbis.Result{OK: true, Op: models.CmdBuscarFecha}, nil
	}}
	d := New(exec, store, zap.NewNop())

	days := []string{"2025-09-15", "2025-09-16", "2025-09-17", "2025-09-18", "2025-09-19", "2025-09-20", "2025-09-21"}
	reply := d.DispatchWeek(context.Background(), chat, days)

	assert.Len(t, exec.calls, 7, "one search per day")
	assert.Contains(t, reply, "Dentista")
	assert.Contains(t, reply, "2025-09-16")

	got, _ := store.Snapshot(chat)
	require.Len(t, got, 1)
}

func TestDispatchWeekEmpty(t *testing.T) {
	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdBuscarFecha}, nil), memory.NewStore(), zap.NewNop())
	reply := d.DispatchWeek(context.Background(), chat, []string{"2025-09-15", "2025-09-16"})
	assert.Contains(t, reply, "No tienes citas")
}

func TestDispatchWeekAllDown(t *testing.T) {
	d := New(fixed(nil, orbis.ErrUnavailable), memory.NewStore(), zap.NewNop())
	reply := d.DispatchWeek(context.Background(), chat, []string{"2025-09-15", "2025-09-16"})
	assert.Equal(t, transientReply, reply)
}

type fakeStylist struct {
	out string
	err error
}

func (f fakeStylist) Complete(context.Context, string, string) (string, error) {
	return f.out, f.err
}

func TestStylistFallsBackOnError(t *testing.T) {
	store := memory.NewStore()
	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdRegistrar}, nil), store, zap.NewNop()).
		WithStylist(fakeStylist{err: assert.AnError})

	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdRegistrar, "2025-09-13", "15:00", "cita"))
	assert.Equal(t, "Cita registrada.", reply)
}

func TestStylistRephrases(t *testing.T) {
	store := memory.NewStore()
	d := New(fixed(&orbis.Result{OK: true, Op: models.CmdRegistrar}, nil), store, zap.NewNop()).
		WithStylist(fakeStylist{out: "¡Listo, quedó agendado!"})

	reply := d.Dispatch(context.Background(), chat, models.NewCommand(models.CmdRegistrar, "2025-09-13", "15:00", "cita"))
	assert.Equal(t, "¡Listo, quedó agendado!", reply)
}
