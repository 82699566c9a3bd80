package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

func TestBridge_Send_NilExtension(t *testing.T) {
	b := New(nil)

	assert.False(t, b.Available())
	_, err := b.Send(context.Background(), "solana:devnet", MethodConnect)
	assert.ErrorIs(t, err, domain.ErrBridgeUnavailable)

	_, err = b.Subscribe(EventChainChanged, func(json.RawMessage) {})
	assert.ErrorIs(t, err, domain.ErrBridgeUnavailable)
}

func TestBridge_Send_UnavailableExtension(t *testing.T) {
	ext := NewMemoryExtension(nil)
	ext.SetAvailable(false)

	_, err := New(ext).Send(context.Background(), "solana:devnet", MethodConnect)
	assert.ErrorIs(t, err, domain.ErrBridgeUnavailable)
	assert.Empty(t, ext.Requests())
}

func TestBridge_Send_ShapesEnvelope(t *testing.T) {
	ext := NewMemoryExtension(func(ctx context.Context, env RequestEnvelope) (Response, error) {
		return Result("sig"), nil
	})
	b := New(ext)

	res, err := b.Send(context.Background(), "near:mainnet", MethodSendTransaction, "AAEC")
	require.NoError(t, err)
	assert.JSONEq(t, `"sig"`, string(res))

	_, err = b.Send(context.Background(), "near:mainnet", MethodAccounts)
	require.NoError(t, err)

	reqs := ext.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, RequestEnvelope{Net: "near:mainnet", Method: MethodSendTransaction, Params: []any{"AAEC"}}, reqs[0])
	assert.Equal(t, []any{}, reqs[1].Params)
}

func TestBridge_Send_ErrorEnvelope(t *testing.T) {
	ext := NewMemoryExtension(func(ctx context.Context, env RequestEnvelope) (Response, error) {
		return Response{Error: &ErrorObject{Code: 4001, Message: "User rejected"}}, nil
	})

	_, err := New(ext).Send(context.Background(), "solana:devnet", MethodSendTransaction, "0x00")

	var reqErr *domain.ChainRequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 4001, reqErr.Code)
	assert.Equal(t, "User rejected", reqErr.Message)
}

func TestBridge_Send_NestedErrorMessage(t *testing.T) {
	ext := NewMemoryExtension(func(ctx context.Context, env RequestEnvelope) (Response, error) {
		return Response{Error: &ErrorObject{
			Data: json.RawMessage(`{"error_message":"insufficient funds","error_type":"tx"}`),
		}}, nil
	})

	_, err := New(ext).Send(context.Background(), "solana:devnet", MethodSendTransaction, "0x00")

	var reqErr *domain.ChainRequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "insufficient funds", reqErr.Message)
}

func TestBridge_Send_Malformed(t *testing.T) {
	tests := []struct {
		name string
		resp Response
	}{
		{"empty", Response{}},
		{"null result", Response{Result: json.RawMessage("null")}},
		{"both fields", Response{Result: json.RawMessage(`"x"`), Error: &ErrorObject{Code: 1, Message: "y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := NewMemoryExtension(func(ctx context.Context, env RequestEnvelope) (Response, error) {
				return tt.resp, nil
			})
			_, err := New(ext).Send(context.Background(), "solana:devnet", MethodConnect)
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestBridge_Send_TransportError(t *testing.T) {
	ext := NewMemoryExtension(func(ctx context.Context, env RequestEnvelope) (Response, error) {
		return Response{}, errors.New("relay hiccup")
	})

	_, err := New(ext).Send(context.Background(), "solana:devnet", MethodConnect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay hiccup")
	assert.NotErrorIs(t, err, domain.ErrBridgeUnavailable)
}

func TestMemoryExtension_SubscribeAndEmit(t *testing.T) {
	ext := NewMemoryExtension(nil)

	var got []string
	unsub := ext.Subscribe(EventChainChanged, func(payload json.RawMessage) {
		var s string
		require.NoError(t, json.Unmarshal(payload, &s))
		got = append(got, s)
	})
	assert.Equal(t, 1, ext.SubscriberCount(EventChainChanged))

	require.NoError(t, ext.Emit(EventChainChanged, "solana:mainnet"))
	unsub()
	unsub()
	require.NoError(t, ext.Emit(EventChainChanged, "solana:devnet"))

	assert.Equal(t, []string{"solana:mainnet"}, got)
	assert.Zero(t, ext.SubscriberCount(EventChainChanged))
}
