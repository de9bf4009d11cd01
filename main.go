package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"telegram-agenda-bridge/internal/config"
	"telegram-agenda-bridge/internal/dispatch"
	"telegram-agenda-bridge/internal/engine"
	"telegram-agenda-bridge/internal/handlers"
	"telegram-agenda-bridge/internal/memory"
	"telegram-agenda-bridge/internal/oracle"
	"telegram-agenda-bridge/internal/orbis"
	"telegram-agenda-bridge/internal/scheduler"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN, ORBIS_URL etc.

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	logger.Info("authorized", zap.String("bot", bot.Self.UserName))

	var store memory.ConversationStore = memory.NewStore()
	if cfg.StateDB != "" {
		db, err := memory.OpenSQLite(cfg.StateDB)
		if err != nil {
			logger.Fatal("open state db", zap.Error(err))
		}
		defer db.Close()
		store = db
	}

	exec := orbis.New(cfg.OrbisURL, cfg.OrbisAPIKey, logger)
	disp := dispatch.New(exec, store, logger)

	var mesa engine.Oracle
	if cfg.OracleAPIKey != "" {
		oc := oracle.New(cfg.OracleBaseURL, cfg.OracleAPIKey, cfg.OracleModel, logger)
		mesa = oc
		disp.WithStylist(oc)
	}

	eng := engine.New(store, disp, mesa, logger)

	h := &handlers.Handler{Bot: bot, Engine: eng, Log: logger}

	sched, err := scheduler.Start(bot, store, exec, logger)
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	defer func() { _ = sched.Shutdown() }()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	for upd := range bot.GetUpdatesChan(updateConfig) {
		h.HandleUpdate(upd)
	}
}
