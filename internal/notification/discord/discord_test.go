package discord

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/notification"
)

// webhookRecorder는 경로별로 수신한 메시지를 기록합니다
type webhookRecorder struct {
	mu       sync.Mutex
	received map[string][]WebhookMessage
	status   int
}

func newWebhookServer(t *testing.T) (*httptest.Server, *webhookRecorder) {
	t.Helper()
	rec := &webhookRecorder{received: map[string][]WebhookMessage{}, status: http.StatusNoContent}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg WebhookMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))

		rec.mu.Lock()
		rec.received[r.URL.Path] = append(rec.received[r.URL.Path], msg)
		status := rec.status
		rec.mu.Unlock()

		w.WriteHeader(status)
		if status >= 300 {
			w.Write([]byte(`{"message":"Invalid Webhook Token"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func (r *webhookRecorder) messages(path string) []WebhookMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received[path]
}

func TestSendExecution_Success(t *testing.T) {
	srv, rec := newWebhookServer(t)
	c := NewClient(srv.URL+"/trade", srv.URL+"/error", srv.URL+"/info")

	result := &domain.ExecutionResult{
		IntentID:       "intent-1",
		Symbol:         "DOGE-USDT-SWAP",
		Action:         "open_long",
		Status:         domain.StatusSuccess,
		Stages:         []domain.Stage{domain.StageReceived, domain.StageDone},
		PrimaryOrderID: "123",
		FilledQuantity: 197,
		AvgFillPrice:   2.5306,
		FinishedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SendExecution(result))

	msgs := rec.messages("/trade")
	require.Len(t, msgs, 1)
	embed := msgs[0].Embeds[0]
	assert.Equal(t, "✅ open_long: DOGE-USDT-SWAP", embed.Title)
	assert.Equal(t, notification.ColorSuccess, embed.Color)
	assert.Equal(t, "2024-01-01T00:00:00Z", embed.Timestamp)
	assert.Equal(t, footer, embed.Footer.Text)
	assert.Empty(t, rec.messages("/error"))
}

func TestSendExecution_PartialAlsoGoesToErrorChannel(t *testing.T) {
	srv, rec := newWebhookServer(t)
	c := NewClient(srv.URL+"/trade", srv.URL+"/error", "")

	result := &domain.ExecutionResult{
		Symbol: "DOGE-USDT-SWAP",
		Action: "open_long",
		Status: domain.StatusPartial,
		ProtectiveOrders: []domain.ProtectiveOrder{
			{Kind: domain.StopLoss, TriggerPrice: 2.4, Error: "lot size"},
		},
		Errors: []domain.ResultError{{Category: domain.CategoryPartial, Kind: "ProtectiveOrderFailed", Message: "sl 실패"}},
	}
	require.NoError(t, c.SendExecution(result))

	require.Len(t, rec.messages("/trade"), 1)
	errMsgs := rec.messages("/error")
	require.Len(t, errMsgs, 1)
	embed := errMsgs[0].Embeds[0]
	assert.Equal(t, notification.ColorWarning, embed.Color)
	assert.Contains(t, embed.Description, "[partial/ProtectiveOrderFailed] sl 실패")

	var found bool
	for _, f := range embed.Fields {
		if strings.HasPrefix(f.Name, "stop_loss") {
			found = true
			assert.Equal(t, "❌ lot size", f.Value)
		}
	}
	assert.True(t, found)
}

func TestSendError_And_Info(t *testing.T) {
	srv, rec := newWebhookServer(t)
	c := NewClient("", srv.URL+"/error", srv.URL+"/info", WithTimeout(time.Second))

	require.NoError(t, c.SendError(errors.New("연결 끊김")))
	require.NoError(t, c.SendInfo("시작"))

	require.Len(t, rec.messages("/error"), 1)
	assert.Equal(t, "```연결 끊김```", rec.messages("/error")[0].Embeds[0].Description)
	require.Len(t, rec.messages("/info"), 1)
	assert.Equal(t, notification.ColorInfo, rec.messages("/info")[0].Embeds[0].Color)
}

func TestSend_EmptyWebhookIsNoop(t *testing.T) {
	c := NewClient("", "", "")
	assert.NoError(t, c.SendInfo("무시"))
	assert.NoError(t, c.SendExecution(&domain.ExecutionResult{Status: domain.StatusFailed}))
}

func TestSend_ErrorStatus(t *testing.T) {
	srv, rec := newWebhookServer(t)
	rec.status = http.StatusUnauthorized
	c := NewClient("", "", srv.URL+"/info", WithHTTPClient(srv.Client()))

	err := c.SendInfo("실패")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid Webhook Token")
}

func TestEmbed_Limits(t *testing.T) {
	e := NewEmbed()
	for i := 0; i < maxEmbedFields+5; i++ {
		e.AddField("f", "", false)
	}
	assert.Len(t, e.Fields, maxEmbedFields)
	assert.Equal(t, "-", e.Fields[0].Value)

	e.SetDescription(strings.Repeat("가", maxDescription+10))
	assert.Equal(t, maxDescription, len([]rune(e.Description)))
}
