package models

// AgendaItem is one scheduled entry as last reported by Orbis.
// JSON field names follow the Orbis wire contract.
type AgendaItem struct {
	Date string `json:"fecha" db:"fecha"` // YYYY-MM-DD
	Time string `json:"hora"  db:"hora"`  // HH:MM
	Text string `json:"texto" db:"texto"`
}

// Turn is one normalized inbound user turn, typed or transcribed from voice.
type Turn struct {
	ChatID      int64
	Text        string
	PreferAudio bool
}

// Reply is what the engine hands back to the transport layer.
type Reply struct {
	Text  string
	Audio bool // deliver as a voice note when a synthesizer is wired
}
