package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

func dialRelay(t *testing.T, ext *WSExtension) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(ext)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, ext.Available, time.Second, 5*time.Millisecond)
	return conn
}

func TestWSExtension_RequestRoundTrip(t *testing.T) {
	ext := NewWSExtension(nil)
	conn := dialRelay(t, ext)

	go func() {
		var req wsFrame
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		conn.WriteJSON(wsFrame{ID: req.ID, Result: json.RawMessage(`{"echo":"` + req.Method + `"}`)})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := New(ext).Send(ctx, "solana:devnet", MethodConnect)
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"dapp:connect"}`, string(res))
}

func TestWSExtension_EventFanOut(t *testing.T) {
	ext := NewWSExtension(nil)
	conn := dialRelay(t, ext)

	got := make(chan string, 2)
	for i := 0; i < 2; i++ {
		ext.Subscribe(EventChainChanged, func(payload json.RawMessage) {
			var s string
			json.Unmarshal(payload, &s)
			got <- s
		})
	}

	require.NoError(t, conn.WriteJSON(wsFrame{Event: EventChainChanged, Data: json.RawMessage(`"solana:mainnet"`)}))

	for i := 0; i < 2; i++ {
		select {
		case s := <-got:
			assert.Equal(t, "solana:mainnet", s)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestWSExtension_DisconnectFailsPending(t *testing.T) {
	ext := NewWSExtension(nil)
	conn := dialRelay(t, ext)

	go func() {
		var req wsFrame
		conn.ReadJSON(&req)
		conn.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := ext.Request(ctx, RequestEnvelope{Net: "near:mainnet", Method: MethodAccounts, Params: []any{}})
	assert.ErrorIs(t, err, domain.ErrBridgeUnavailable)
	assert.Eventually(t, func() bool { return !ext.Available() }, time.Second, 5*time.Millisecond)
}

func TestWSExtension_NoRelay(t *testing.T) {
	ext := NewWSExtension(nil)

	assert.False(t, ext.Available())
	_, err := ext.Request(context.Background(), RequestEnvelope{Method: MethodConnect})
	assert.ErrorIs(t, err, domain.ErrBridgeUnavailable)
}
