package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homework_notification_bot/internal/app"
	"homework_notification_bot/internal/infra/config"
	"homework_notification_bot/internal/infra/logger"
	"homework_notification_bot/internal/infra/practicum"
	"homework_notification_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Отсутствует обязательная переменная окружения: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, RetryPeriod: %s",
		cfg.LogLevel, cfg.Environment, cfg.RetryPeriod)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.WithError(err).Error("telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}
	log.Info("Telegram bot initialized.")

	telegramClient := telegram.NewTelebotAdapter(bot)

	apiClient := practicum.NewClient(
		cfg.PracticumEndpoint,
		cfg.PracticumToken,
		cfg.HTTPTimeout,
		log.WithField("component", "practicum_client"),
	)
	log.Info("Practicum API client initialized.")

	poller := app.NewPollerService(
		apiClient,
		telegramClient,
		cfg.TelegramChatID,
		cfg.RetryPeriod,
		log.WithFields(logrus.Fields{"component": "poller"}),
	)
	log.Info("Application setup complete. Poller is starting...")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	cancel()
	<-done // Wait for the current cycle to finish
	log.Info("Application shut down gracefully.")
}
