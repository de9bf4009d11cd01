package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  /agenda  ", "/agenda"},
		{"`/agenda`", "/agenda"},
		{`"/buscar dentista"`, "/buscar dentista"},
		{"/.agenda", "/agenda"},
		{"/registrar  2025-09-13   15:00  cita", "/registrar 2025-09-13 15:00 cita"},
		{"“/cuando Ana”", "/cuando Ana"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input: %q", tt.in)
	}
}

func TestPostProcessExtractsEmbeddedCommand(t *testing.T) {
	res := PostProcess("Claro, aquí tienes: /buscar_fecha 2025-09-13", "citas del viernes")
	require.Equal(t, KindCommand, res.Kind)
	assert.Equal(t, "/buscar_fecha 2025-09-13", res.Command.String())

	res = PostProcess("/agenda", "muéstrame mis cosas")
	require.Equal(t, KindCommand, res.Kind)
	assert.Equal(t, "/agenda", res.Command.String())
}

func TestPostProcessRewritesNoAccessDisclaimer(t *testing.T) {
	res := PostProcess("Como IA no tengo acceso a tu agenda personal.", "¿tengo algo hoy?")
	require.Equal(t, KindReply, res.Kind)
	assert.NotContains(t, res.Reply, "no tengo acceso")
	assert.Contains(t, res.Reply, "consultarlo")
}

func TestPostProcessDowngradesFalseApology(t *testing.T) {
	// Small talk must not trigger the ambiguity apology.
	res := PostProcess("Lo siento, no estoy seguro de qué quieres decir.", "holaaa")
	require.Equal(t, KindReply, res.Kind)
	assert.Contains(t, res.Reply, "Hola")

	// With a destructive verb in the utterance the apology is legitimate.
	raw := "Lo siento, no sé qué cita quieres borrar."
	res = PostProcess(raw, "borra eso que te dije")
	assert.Equal(t, raw, res.Reply)
}

func TestPostProcessPassesProseThrough(t *testing.T) {
	res := PostProcess("¡Hola! Muy bien, ¿y tú?", "hola, ¿qué tal?")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, "¡Hola! Muy bien, ¿y tú?", res.Reply)
}

func TestDescribe(t *testing.T) {
	tests := []struct{ in, want string }{
		{"regístrame una reunión con Ana mañana a las 3 de la tarde", "reunión con Ana"},
		{"agéndame dentista el 5/10 a las 9:30", "dentista"},
		{"anota cita con el doctor hoy al mediodía", "cita con el doctor"},
		{"recuérdame mañana a las 9", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describe(tt.in), "input: %q", tt.in)
	}
}
