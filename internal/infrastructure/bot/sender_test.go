package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ukoquique-proves/JavaFlow/internal/domain/entity"
)

func TestTelegramSender_SendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender := NewTelegramSender(srv.Client(), srv.URL, zap.NewNop())
	bot := &entity.BotConfiguration{ID: 1, Type: entity.BotTypeTelegram, Token: "123:abc"}

	require.NoError(t, sender.SendMessage(context.Background(), bot, "42", "hello"))
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, map[string]string{"chat_id": "42", "text": "hello"}, gotBody)
	assert.Equal(t, entity.BotTypeTelegram, sender.Type())
}

func TestTelegramSender_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewTelegramSender(srv.Client(), srv.URL, zap.NewNop())

	err := sender.SendMessage(context.Background(), &entity.BotConfiguration{ID: 1, Token: "123:abc"}, "42", "hi")
	assert.ErrorContains(t, err, "401")

	err = sender.SendMessage(context.Background(), &entity.BotConfiguration{ID: 2}, "42", "hi")
	assert.ErrorContains(t, err, "no token")

	unreachable := NewTelegramSender(nil, "http://127.0.0.1:1", zap.NewNop())
	err = unreachable.SendMessage(context.Background(), &entity.BotConfiguration{ID: 3, Token: "999:secret"}, "42", "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "999:secret")
}

func TestWhatsAppSender_LogsInsteadOfSending(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sender := NewWhatsAppSender(zap.New(core))

	err := sender.SendMessage(context.Background(), &entity.BotConfiguration{ID: 5}, "chat-9", "hello")

	require.NoError(t, err)
	assert.Equal(t, entity.BotTypeWhatsApp, sender.Type())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "chat-9", logs.All()[0].ContextMap()["chat_id"])
}
