package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dryshift/config"
)

// ── 测试辅助 ──

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []Message
	failFor map[int64]bool
}

func (r *recordingNotifier) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[msg.Recipient] {
		return errors.New("recipient blocked the bot")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) recipients() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.sent))
	for _, m := range r.sent {
		ids = append(ids, m.Recipient)
	}
	return ids
}

type fakePublisher struct {
	topic   string
	qos     byte
	payload []byte
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	p.topic, p.qos, p.payload = topic, qos, payload
	return nil
}

var occurred = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// ── Dispatcher ──

func TestDispatcher_Recipients(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, &config.NotifyConfig{ChatID: -100, AdminIDs: []int64{1, 2, 1}}, zap.NewNop())

	assert.Equal(t, []int64{-100, 42}, d.Recipients(Event{Type: EventDryingFinished, UserID: 42}))
	assert.Equal(t, []int64{-100}, d.Recipients(Event{Type: EventDryingStarted, UserID: 42}))
	assert.Equal(t, []int64{-100}, d.Recipients(Event{Type: EventShiftClosed, UserID: 42}))
	assert.Equal(t, []int64{1, 2}, d.Recipients(Event{Type: EventUserRegistered, UserID: 42}))
	assert.Equal(t, []int64{42}, d.Recipients(Event{Type: EventUserApproval, UserID: 42}))
	assert.Empty(t, d.Recipients(Event{Type: "unknown"}))
}

func TestDispatcher_NoChatConfigured(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, &config.NotifyConfig{}, zap.NewNop())
	assert.Equal(t, []int64{42}, d.Recipients(Event{Type: EventDryingFinished, UserID: 42}), "未配置群聊时只通知占用人")
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	rec := &recordingNotifier{failFor: map[int64]bool{-100: true}}
	d := NewDispatcher(rec, &config.NotifyConfig{ChatID: -100}, zap.NewNop())

	events := []Event{
		{Type: EventDryingFinished, UserID: 10, UnitID: 1},
		{Type: EventDryingFinished, UserID: 20, UnitID: 2},
	}
	delivered := d.DispatchAll(context.Background(), events)

	assert.Equal(t, 2, delivered, "群聊失败不应影响占用人通知")
	assert.Equal(t, []int64{10, 20}, rec.recipients())
}

// ── Webhook ──

func TestWebhookNotifier_Send(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(&config.WebhookConfig{URL: srv.URL, Token: "hook-token", Timeout: time.Second}, zap.NewNop())
	msg := Message{Recipient: 42, Event: Event{Type: EventDryingStarted, UserID: 42, UnitID: 2, OccurredAt: occurred}}

	require.NoError(t, n.Send(context.Background(), msg))
	assert.Equal(t, "Bearer hook-token", auth)
	assert.Equal(t, int64(42), got.Recipient)
	assert.Equal(t, EventDryingStarted, got.Event.Type)
	assert.Equal(t, 2, got.Event.UnitID)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(&config.WebhookConfig{URL: srv.URL, Timeout: time.Second}, zap.NewNop())
	err := n.Send(context.Background(), Message{Recipient: 1, Event: Event{Type: EventShiftClosed}})
	assert.Error(t, err)
}

// ── MQTT ──

func TestMQTTNotifier_Send(t *testing.T) {
	pub := &fakePublisher{}
	n := newMQTTNotifier(pub, "dryshift/notifications/", 1, zap.NewNop())

	msg := Message{Recipient: -100, Event: Event{Type: EventShiftStarted, UserID: 7, ShiftID: 3, OccurredAt: occurred}}
	require.NoError(t, n.Send(context.Background(), msg))

	assert.Equal(t, "dryshift/notifications/-100", pub.topic)
	assert.Equal(t, byte(1), pub.qos)

	var decoded Message
	require.NoError(t, json.Unmarshal(pub.payload, &decoded))
	assert.Equal(t, int64(3), decoded.Event.ShiftID)
}

func TestMQTTNotifier_CancelledContext(t *testing.T) {
	pub := &fakePublisher{}
	n := newMQTTNotifier(pub, "t", 0, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, n.Send(ctx, Message{Recipient: 1}))
	assert.Empty(t, pub.topic, "已取消时不应发布")
}

// ── Factory ──

func TestNewNotifier(t *testing.T) {
	n, err := NewNotifier(&config.NotifyConfig{Driver: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)
	assert.NoError(t, n.Send(context.Background(), Message{Recipient: 1, Event: Event{Type: EventAdHocRecorded}}))

	n, err = NewNotifier(&config.NotifyConfig{Driver: "webhook", Webhook: config.WebhookConfig{URL: "http://127.0.0.1:1"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &WebhookNotifier{}, n)

	_, err = NewNotifier(&config.NotifyConfig{Driver: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
