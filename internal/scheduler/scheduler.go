// Package scheduler runs the background reminder poller: every minute it
// asks the executor for each known chat's upcoming items and pushes the ones
// falling due, deduplicated across ticks.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/dispatch"
	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/models"
	"telegram-agenda-bridge/internal/temporal"
)

func Start(bot *tgbotapi.BotAPI, store memory.ConversationStore, exec dispatch.Executor, log *zap.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			tick(bot, store, exec, log)
		}),
	)
	if err != nil {
		return nil, err
	}

	s.Start()
	return s, nil
}

func tick(bot *tgbotapi.BotAPI, store memory.ConversationStore, exec dispatch.Executor, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	chats, err := store.Chats()
	if err != nil {
		log.Warn("list chats", zap.Error(err))
		return
	}

	now := temporal.Now()
	cmd := models.NewCommand(models.CmdProximos)

	for _, chatID := range chats {
		res, err := exec.Execute(ctx, chatID, cmd.String())
		if err != nil {
			log.Warn("poll upcoming", zap.Int64("chat_id", chatID), zap.Error(err))
			continue
		}
		if !res.OK {
			continue
		}
		for _, it := range res.Items {
			if !due(it, now) {
				continue
			}
			first, err := store.MarkNotified(chatID, it.Date+" "+it.Time)
			if err != nil || !first {
				continue
			}
			text := "⏰ Recordatorio: " + it.Text + " a las " + it.Time
			if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
				log.Warn("push reminder", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
	}
}

// due reports whether the item falls inside the next poller window.
func due(it models.AgendaItem, now time.Time) bool {
	at, err := time.ParseInLocation("2006-01-02 15:04", it.Date+" "+it.Time, temporal.Reference)
	if err != nil {
		return false
	}
	diff := at.Sub(now)
	return diff >= 0 && diff < time.Minute
}
