package models

// PendingKind names the destructive or ambiguous action a chat is being
// asked to confirm.
type PendingKind int

const (
	PendingNone PendingKind = iota
	ConfirmDeleteAll
	ConfirmDeleteByDate
	ConfirmFetchDate
	ConfirmGenericCommand
)

// PendingAction is the per-chat confirmation state. A chat with no stored
// PendingAction is idle; storing one moves it to awaiting-confirmation.
// The record is consumed by any yes/no reply and survives anything else.
type PendingAction struct {
	Kind    PendingKind
	Date    string // ConfirmDeleteByDate: YYYY-MM-DD
	Which   string // ConfirmFetchDate: "hoy" or "mañana"
	Command string // ConfirmGenericCommand: full canonical command
}
