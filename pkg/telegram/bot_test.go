package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBot_SendMessage(t *testing.T) {
	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	bot := NewBotWithURL(srv.URL, "secret", time.Second)
	err := bot.SendMessage(context.Background(), "42", "привет")

	require.NoError(t, err)
	assert.Equal(t, "/botsecret/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "привет", gotText)
}

func TestBot_SendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	bot := NewBotWithURL(srv.URL, "secret", time.Second)
	err := bot.SendMessage(context.Background(), "42", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestBot_SendMessageCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bot := NewBotWithURL(srv.URL, "secret", time.Second)
	assert.Error(t, bot.SendMessage(ctx, "42", "hi"))
}
