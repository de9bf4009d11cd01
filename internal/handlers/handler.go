// Package handlers is the thin Telegram glue: it normalizes incoming
// updates into engine turns and delivers replies as text or voice notes.
package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/engine"
	"telegram-agenda-bridge/internal/models"
)

// Transcriber converts a downloadable voice file into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, fileURL string) (string, error)
}

// Synthesizer converts reply text into an OGG/Opus voice payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Handler struct {
	Bot         *tgbotapi.BotAPI
	Engine      *engine.Engine
	Transcriber Transcriber // optional
	Synthesizer Synthesizer // optional
	Log         *zap.Logger
}

func (h *Handler) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	h.HandleMessage(upd.Message)
}

func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	turn := models.Turn{ChatID: msg.Chat.ID, Text: msg.Text}
	if msg.Voice != nil {
		turn.Text = h.transcribe(ctx, msg.Voice.FileID)
		turn.PreferAudio = true // voice in, voice out by default
	}
	if turn.Text == "" {
		return
	}

	reply := h.Engine.HandleTurn(ctx, turn)
	h.deliver(ctx, msg.Chat.ID, reply)
}

// transcribe degrades to a best-effort placeholder on any failure so the
// turn still gets an answer.
func (h *Handler) transcribe(ctx context.Context, fileID string) string {
	const empty = "(audio vacío)"
	if h.Transcriber == nil {
		return empty
	}
	url, err := h.Bot.GetFileDirectURL(fileID)
	if err != nil {
		h.Log.Warn("voice file url", zap.Error(err))
		return empty
	}
	text, err := h.Transcriber.Transcribe(ctx, url)
	if err != nil || text == "" {
		if err != nil {
			h.Log.Warn("transcription failed", zap.Error(err))
		}
		return empty
	}
	return text
}

func (h *Handler) deliver(ctx context.Context, chatID int64, reply models.Reply) {
	if reply.Audio && h.Synthesizer != nil {
		if data, err := h.Synthesizer.Synthesize(ctx, reply.Text); err == nil {
			voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{
				Name:  "reply.ogg",
				Bytes: data,
			})
			if _, err := h.Bot.Send(voice); err == nil {
				return
			}
			h.Log.Warn("voice delivery failed, falling back to text", zap.Int64("chat_id", chatID))
		} else {
			h.Log.Warn("synthesis failed, falling back to text", zap.Error(err))
		}
	}
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, reply.Text)); err != nil {
		h.Log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
