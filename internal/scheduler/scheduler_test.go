package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/temporal"
)

func TestDueWindow(t *testing.T) {
	now := time.Date(2025, 9, 12, 10, 30, 0, 0, temporal.Reference)

	tests := []struct {
		name string
		item models.AgendaItem
		want bool
	}{
		{"right now", models.AgendaItem{Date: "2025-09-12", Time: "10:30"}, true},
		{"next minute", models.AgendaItem{Date: "2025-09-12", Time: "10:31"}, false},
		{"just passed", models.AgendaItem{Date: "2025-09-12", Time: "10:29"}, false},
		{"later today", models.AgendaItem{Date: "2025-09-12", Time: "15:00"}, false},
		{"another day", models.AgendaItem{Date: "2025-09-13", Time: "10:30"}, false},
		{"garbage time", models.AgendaItem{Date: "2025-09-12", Time: "soon"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, due(tt.item, now))
		})
	}
}
