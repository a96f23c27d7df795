package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

type fakeClient struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	err      error
	block    chan struct{}
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, f.err
}

func newTestDispatcher(c client) *Dispatcher {
	return &Dispatcher{client: c, log: zap.NewNop()}
}

func TestSend_RendersKeyboards(t *testing.T) {
	fc := &fakeClient{}
	d := newTestDispatcher(fc)
	ctx := context.Background()

	require.NoError(t, d.Send(ctx, domain.Outbound{ChatID: 1, Text: "pick", Choices: []string{"A", "B"}}))
	require.NoError(t, d.Send(ctx, domain.Outbound{ChatID: 1, Text: "done", RemoveKeyboard: true}))
	require.NoError(t, d.SendText(ctx, 2, "plain"))
	require.Len(t, fc.sent, 3)

	pick := fc.sent[0].(tgbotapi.MessageConfig)
	kb, ok := pick.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard, 2)
	assert.Equal(t, "A", kb.Keyboard[0][0].Text)
	assert.True(t, kb.OneTimeKeyboard)

	done := fc.sent[1].(tgbotapi.MessageConfig)
	_, ok = done.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)

	plain := fc.sent[2].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(2), plain.ChatID)
	assert.Equal(t, "plain", plain.Text)
	assert.Nil(t, plain.ReplyMarkup)
}

func TestSend_SurfacesTransportError(t *testing.T) {
	d := newTestDispatcher(&fakeClient{err: errors.New("Forbidden: bot was blocked by the user")})
	err := d.SendText(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestSend_HonoursContextDeadline(t *testing.T) {
	fc := &fakeClient{block: make(chan struct{})}
	defer close(fc.block)
	d := newTestDispatcher(fc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.SendText(ctx, 1, "hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegisterCommands(t *testing.T) {
	fc := &fakeClient{}
	require.NoError(t, newTestDispatcher(fc).RegisterCommands())
	require.Len(t, fc.requests, 1)
	cfg, ok := fc.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok)
	assert.Len(t, cfg.Commands, 3)
}

func TestToInbound(t *testing.T) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 42, UserName: "anna_i", FirstName: "Anna"},
		Date: 1725476400,
		Text: "Great session, thanks!",
	}}
	in, ok := ToInbound(upd)
	require.True(t, ok)
	assert.Equal(t, int64(42), in.ChatID)
	assert.Equal(t, "anna_i", in.Username)
	assert.Equal(t, "Great session, thanks!", in.Text)
	assert.Equal(t, int64(1725476400), in.SentAt.Unix())

	_, ok = ToInbound(tgbotapi.Update{})
	assert.False(t, ok)
}

func TestWebhookHandler(t *testing.T) {
	out := make(chan domain.Inbound, 1)
	h := newTestDispatcher(&fakeClient{}).WebhookHandler(out)

	body := `{"update_id":1,"message":{"message_id":5,"date":1725476400,"chat":{"id":42,"type":"private"},"from":{"id":42,"is_bot":false,"first_name":"Anna"},"text":"/start"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/x", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case in := <-out:
		assert.Equal(t, int64(42), in.ChatID)
		assert.Equal(t, "/start", in.Text)
	default:
		t.Fatal("update was not forwarded")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/x", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookURL(t *testing.T) {
	secret := WebhookSecret("123:abc")
	assert.Len(t, secret, 32)
	assert.Equal(t, secret, WebhookSecret("123:abc"))
	assert.NotEqual(t, secret, WebhookSecret("123:abd"))
	assert.Equal(t, "https://bot.example.com/webhook/"+secret, WebhookURL("https://bot.example.com/", "123:abc"))
}
