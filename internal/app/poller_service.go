// internal/app/poller_service.go
package app

import (
	"context"
	"time"

	"homework_notification_bot/internal/domain/homework"
	domainTelegram "homework_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// HomeworkAPI is the outbound review-API capability the poller depends on.
type HomeworkAPI interface {
	HomeworkStatuses(ctx context.Context, fromDate int64) (any, error)
}

// PollerService polls the review API and notifies the configured chat when
// the submission's status changes. All state lives in process memory for
// the lifetime of the run.
type PollerService struct {
	api            HomeworkAPI
	telegramClient domainTelegram.Client
	chatID         int64
	retryPeriod    time.Duration
	logger         *logrus.Entry

	// fromDate bounds every fetch window.
	// TODO: decide whether to advance fromDate after a successful cycle
	// instead of always polling from process start.
	fromDate   int64
	lastStatus homework.Status
}

func NewPollerService(
	api HomeworkAPI,
	tc domainTelegram.Client,
	chatID int64,
	retryPeriod time.Duration,
	logger *logrus.Entry,
) *PollerService {
	return &PollerService{
		api:            api,
		telegramClient: tc,
		chatID:         chatID,
		retryPeriod:    retryPeriod,
		logger:         logger,
		fromDate:       time.Now().Unix(),
		lastStatus:     homework.StatusReviewing,
	}
}

// Run executes poll cycles until ctx is cancelled. A failed cycle is logged
// and retried on the next tick; nothing short of cancellation stops the loop.
func (s *PollerService) Run(ctx context.Context) {
	s.logger.WithField("retry_period", s.retryPeriod.String()).Info("Опрос API Практикума запущен")
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.WithError(err).Error("Сбой в работе программы")
		}
		select {
		case <-ctx.Done():
			s.logger.Info("Опрос API Практикума остановлен")
			return
		case <-time.After(s.retryPeriod):
		}
	}
}

// runCycle performs a single fetch-validate-notify pass.
func (s *PollerService) runCycle(ctx context.Context) error {
	payload, err := s.api.HomeworkStatuses(ctx, s.fromDate)
	if err != nil {
		return err
	}

	homeworks, err := homework.CheckResponse(payload)
	if err != nil {
		s.logger.WithError(err).Error("Ответ API не прошел проверку")
		return err
	}

	if len(homeworks) == 0 {
		s.logger.Infof("Изменений нет, следующая проверка через %s", s.retryPeriod)
		return nil
	}

	// Only the most recent record (first in the list) drives change detection.
	status, err := homework.RecordStatus(homeworks[0])
	if err != nil {
		return err
	}
	if status == s.lastStatus {
		s.logger.Infof("Изменений нет, следующая проверка через %s", s.retryPeriod)
		return nil
	}

	message, err := homework.ParseStatus(homeworks[0])
	if err != nil {
		return err
	}
	s.sendMessage(message)
	s.lastStatus = status
	return nil
}

// sendMessage delivers the notification text to the configured chat.
// Delivery failures are logged and swallowed so they never abort the loop.
func (s *PollerService) sendMessage(text string) {
	if err := s.telegramClient.SendMessage(s.chatID, text, nil); err != nil {
		s.logger.WithError(err).Error("Сообщение не отправлено")
		return
	}
	s.logger.Info("Сообщение отправлено")
}
