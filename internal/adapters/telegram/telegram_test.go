package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"solSimBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	mu        sync.Mutex
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

func TestNotifier_Notify(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n, err := NewNotifier(NotifierConfig{
		Token:   "TOKEN",
		ChatID:  "42",
		Enabled: true,
		BaseURL: srv.URL,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)

	n.Notify(context.Background(), "*hello*")

	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", gotPayload["chat_id"])
	assert.Equal(t, "*hello*", gotPayload["text"])
	assert.Equal(t, "Markdown", gotPayload["parse_mode"])
}

func TestNotifier_Disabled(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	n, err := NewNotifier(NotifierConfig{
		Enabled: false,
		BaseURL: srv.URL,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)

	n.Notify(context.Background(), "dropped silently")
	assert.Equal(t, 0, requests)
}

func TestNotifier_FailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	log := &mockLogger{}
	n, err := NewNotifier(NotifierConfig{
		Token:   "TOKEN",
		ChatID:  "42",
		Enabled: true,
		BaseURL: srv.URL,
		Logger:  log,
	})
	require.NoError(t, err)

	// Must not panic or propagate; the failure lands in the log only.
	n.Notify(context.Background(), "hello")
	assert.NotEmpty(t, log.errorMsgs)
}

func TestNotifier_Validation(t *testing.T) {
	_, err := NewNotifier(NotifierConfig{Enabled: true, Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}

func TestBot_PollDispatchesCommands(t *testing.T) {
	var mu sync.Mutex
	var offsets []string
	served := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			mu.Lock()
			offsets = append(offsets, r.URL.Query().Get("offset"))
			first := !served
			served = true
			mu.Unlock()
			if first {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":"/profit","chat":{"id":42}}}]}`)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	b, err := NewBot(BotConfig{
		Token:       "TOKEN",
		BaseURL:     srv.URL,
		PollTimeout: 1 * time.Second,
		Logger:      &mockLogger{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var gotChatID int64
	var gotText string
	go func() {
		b.Poll(ctx, func(ctx context.Context, chatID int64, text string) {
			gotChatID = chatID
			gotText = text
			cancel()
		})
	}()

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("handler was never invoked")
	}

	assert.Equal(t, int64(42), gotChatID)
	assert.Equal(t, "/profit", gotText)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, offsets)
	assert.Equal(t, "0", offsets[0]) // first request starts from zero
}

func TestBot_OffsetAdvances(t *testing.T) {
	var mu sync.Mutex
	var offsets []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		n := len(offsets)
		mu.Unlock()
		if n == 1 {
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":"x","chat":{"id":1}}}]}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer srv.Close()

	b, err := NewBot(BotConfig{
		Token:       "TOKEN",
		BaseURL:     srv.URL,
		PollTimeout: 1 * time.Second,
		Logger:      &mockLogger{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	handled := make(chan struct{}, 1)
	go func() {
		b.Poll(ctx, func(ctx context.Context, chatID int64, text string) {
			handled <- struct{}{}
		})
	}()

	<-handled
	// Let at least one more getUpdates round-trip happen, then stop.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(offsets) >= 2
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	// The acknowledged update must not be re-requested.
	assert.Equal(t, "8", offsets[1])
}

func TestBot_SendMessage(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	b, err := NewBot(BotConfig{
		Token:   "TOKEN",
		BaseURL: srv.URL,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)

	require.NoError(t, b.SendMessage(context.Background(), 42, "hi"))
	assert.Equal(t, float64(42), gotPayload["chat_id"])
	assert.Equal(t, "hi", gotPayload["text"])
}

func TestBot_SendMessage_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	b, err := NewBot(BotConfig{
		Token:   "TOKEN",
		BaseURL: srv.URL,
		Logger:  &mockLogger{},
	})
	require.NoError(t, err)

	err = b.SendMessage(context.Background(), 42, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestBot_Validation(t *testing.T) {
	_, err := NewBot(BotConfig{Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}
