package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"homework_notification_bot/internal/domain/homework"
	"homework_notification_bot/internal/infra/practicum"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeAPI struct {
	payload any
	err     error
	calls   atomic.Int64
}

func (f *fakeAPI) HomeworkStatuses(ctx context.Context, fromDate int64) (any, error) {
	f.calls.Add(1)
	return f.payload, f.err
}

type fakeTelegramClient struct {
	sendErr error
	chatIDs []int64
	texts   []string
}

func (f *fakeTelegramClient) SendMessage(chatID int64, text string, opts *telebot.SendOptions) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return f.sendErr
}

func newTestPoller(api HomeworkAPI, tc *fakeTelegramClient) *PollerService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewPollerService(api, tc, 42, time.Millisecond, log.WithField("component", "poller"))
}

func envelope(records ...any) map[string]any {
	return map[string]any{"homeworks": records}
}

func TestRunCycle_StatusChangeSendsNotification(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw1", "status": "approved"},
	)}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	require.NoError(t, err)
	require.Len(t, tc.texts, 1)
	assert.Equal(t,
		`Изменился статус проверки работы "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`,
		tc.texts[0])
	assert.Equal(t, int64(42), tc.chatIDs[0])
	assert.Equal(t, homework.StatusApproved, poller.lastStatus)
}

func TestRunCycle_UnchangedStatusSendsNothing(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw1", "status": "reviewing"},
	)}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tc.texts)
	assert.Equal(t, homework.StatusReviewing, poller.lastStatus)
}

func TestRunCycle_RepeatedChangeNotifiesOnce(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw1", "status": "rejected"},
	)}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	require.NoError(t, poller.runCycle(context.Background()))
	require.NoError(t, poller.runCycle(context.Background()))

	assert.Len(t, tc.texts, 1)
	assert.Equal(t, homework.StatusRejected, poller.lastStatus)
}

func TestRunCycle_EmptyHomeworkList(t *testing.T) {
	api := &fakeAPI{payload: envelope()}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tc.texts)
}

func TestRunCycle_OnlyFirstRecordInspected(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw2", "status": "reviewing"},
		map[string]any{"homework_name": "hw1", "status": "approved"},
	)}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tc.texts)
}

func TestRunCycle_APIErrorPropagates(t *testing.T) {
	api := &fakeAPI{err: practicum.ErrNetwork}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	assert.ErrorIs(t, err, practicum.ErrNetwork)
	assert.Empty(t, tc.texts)
}

func TestRunCycle_InvalidEnvelopePropagates(t *testing.T) {
	api := &fakeAPI{payload: map[string]any{"current_date": float64(1690000000)}}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	assert.ErrorIs(t, err, homework.ErrMissingHomeworksKey)
	assert.Empty(t, tc.texts)
}

func TestRunCycle_UnknownStatusSendsNothing(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw1", "status": "lost"},
	)}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	var statusErr *homework.UnexpectedStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Empty(t, tc.texts)
	assert.Equal(t, homework.StatusReviewing, poller.lastStatus)
}

func TestRunCycle_DeliveryFailureIsSwallowed(t *testing.T) {
	api := &fakeAPI{payload: envelope(
		map[string]any{"homework_name": "hw1", "status": "approved"},
	)}
	tc := &fakeTelegramClient{sendErr: errors.New("telegram is down")}
	poller := newTestPoller(api, tc)

	err := poller.runCycle(context.Background())

	require.NoError(t, err)
	assert.Len(t, tc.texts, 1)
}

func TestRun_KeepsPollingAfterFailedCycles(t *testing.T) {
	api := &fakeAPI{err: practicum.ErrNetwork}
	tc := &fakeTelegramClient{}
	poller := newTestPoller(api, tc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return api.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestRun_StopsOnContextCancellation(t *testing.T) {
	api := &fakeAPI{payload: envelope()}
	tc := &fakeTelegramClient{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	poller := NewPollerService(api, tc, 42, time.Hour, log.WithField("component", "poller"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
