package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
)

type sent struct {
	chatID string
	text   string
}

// newBotServer fakes the Bot API. sendReply is the sendMessage response body.
func newBotServer(t *testing.T, sendReply string) (*httptest.Server, chan sent) {
	t.Helper()
	messages := make(chan sent, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"clipper","username":"clipper_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			select {
			case messages <- sent{chatID: r.PostForm.Get("chat_id"), text: r.PostForm.Get("text")}:
			default:
			}
			_, _ = w.Write([]byte(sendReply))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, messages
}

const okReply = `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`

func newNotifier(t *testing.T, srv *httptest.Server) *Notifier {
	t.Helper()
	n, err := New(Config{Token: "tok", ChatID: 42, APIEndpoint: srv.URL + "/bot%s/%s", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return n
}

func TestNotifySendsMessage(t *testing.T) {
	t.Parallel()

	srv, messages := newBotServer(t, okReply)
	n := newNotifier(t, srv)

	require.NoError(t, n.Notify(context.Background(), "✨ clip ready"))
	got := <-messages
	require.Equal(t, "42", got.chatID)
	require.Equal(t, "✨ clip ready", got.text)
}

func TestNotifyAPIError(t *testing.T) {
	t.Parallel()

	srv, _ := newBotServer(t, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	n := newNotifier(t, srv)

	err := n.Notify(context.Background(), "x")
	require.ErrorContains(t, err, "chat not found")
	require.NotErrorIs(t, err, clip.ErrTransient)
}

func TestNotifyCanceledContext(t *testing.T) {
	t.Parallel()

	srv, _ := newBotServer(t, okReply)
	n := newNotifier(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The send may win the race; either outcome is acceptable but never another error.
	if err := n.Notify(ctx, "x"); err != nil {
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, classify(&tgbotapi.Error{Code: http.StatusTooManyRequests, Message: "slow down"}), clip.ErrTransient)
	require.ErrorIs(t, classify(&tgbotapi.Error{Code: http.StatusBadGateway}), clip.ErrTransient)
	require.NotErrorIs(t, classify(&tgbotapi.Error{Code: http.StatusForbidden}), clip.ErrTransient)
	require.ErrorIs(t, classify(errors.New("dial tcp: refused")), clip.ErrTransient)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{ChatID: 1})
	require.Error(t, err)
	_, err = New(Config{Token: "t"})
	require.Error(t, err)
}
