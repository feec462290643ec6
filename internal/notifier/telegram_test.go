package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, "<b>hi</b>", got["text"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 1))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTelegramNotifier_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	parts := SplitMessage("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc"}, parts)

	hard := SplitMessage(strings.Repeat("字", 25), 10)
	require.Len(t, hard, 3)
	assert.Equal(t, strings.Repeat("字", 10), hard[0])
	assert.Equal(t, strings.Repeat("字", 5), hard[2])
}

func TestStartPolling(t *testing.T) {
	var sent atomic.Value
	var polls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":"/list","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/list","chat":{"id":99}}}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	var handled atomic.Int32
	n.StartPolling(ctx, func(_ context.Context, cmd string) string {
		handled.Add(1)
		return "reply to " + cmd
	})

	assert.Equal(t, int32(1), handled.Load(), "commands from other chats are ignored")
	assert.Equal(t, "reply to /list", sent.Load())
}
