package models

import "strings"

// Canonical executor operations. The slash-prefixed rendering of these names
// plus their arguments is the whole contract with Orbis.
const (
	CmdAgenda      = "agenda"
	CmdRegistrar   = "registrar"
	CmdBorrar      = "borrar"
	CmdBorrarFecha = "borrar_fecha"
	CmdBorrarTodo  = "borrar_todo"
	CmdBuscar      = "buscar"
	CmdBuscarFecha = "buscar_fecha"
	CmdCuando      = "cuando"
	CmdReprogramar = "reprogramar"
	CmdModificar   = "modificar"
	CmdProximos    = "proximos"
)

// ResolvedCommand is the canonical, Orbis-ready representation of an intent.
// Date args are always ISO 8601, time args always 24-hour HH:MM.
type ResolvedCommand struct {
	Name string
	Args []string
}

func NewCommand(name string, args ...string) ResolvedCommand {
	return ResolvedCommand{Name: name, Args: args}
}

// String renders the slash form sent to the executor, e.g.
// "/registrar 2025-09-13 15:00 reunión con Ana".
func (c ResolvedCommand) String() string {
	if len(c.Args) == 0 {
		return "/" + c.Name
	}
	return "/" + c.Name + " " + strings.Join(c.Args, " ")
}

// ParseCommand splits an already-canonical slash command back into its
// resolved form. Returns false when the text is not a slash command.
func ParseCommand(text string) (ResolvedCommand, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ResolvedCommand{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return ResolvedCommand{}, false
	}
	return ResolvedCommand{Name: fields[0], Args: fields[1:]}, true
}
