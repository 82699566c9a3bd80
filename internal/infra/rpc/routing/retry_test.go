package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietddude/dappwallet/internal/infra/rpc/provider"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		expect ErrorAction
	}{
		{errors.New("429 Too Many Requests"), ActionFailover},
		{errors.New("project rate limit exceeded"), ActionFailover},
		{errors.New("quota exceeded"), ActionFailover},
		{errors.New("403 Forbidden"), ActionFailover},
		{errors.New("Invalid JSON-RPC request -32600"), ActionFatal},
		{errors.New("Method not found -32601"), ActionFatal},
		{&provider.RPCError{Code: -32000, Message: "Server error"}, ActionFatal},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ActionFatal},
		{errors.New("connection reset by peer"), ActionRetry},
		{errors.New("500 Internal Server Error"), ActionRetry},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, ClassifyError(tt.err), tt.err.Error())
	}
}

type scriptedProvider struct {
	*provider.BaseProvider
	errs  []error
	calls int
}

func (s *scriptedProvider) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return json.RawMessage(`"ok"`), nil
}

func (s *scriptedProvider) Close() error { return nil }

var fastRetry = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    time.Millisecond,
	MaxDelay:        5 * time.Millisecond,
	BackoffMultiple: 2,
}

func TestCallWithRetry_RetriesTransientErrors(t *testing.T) {
	p := &scriptedProvider{
		BaseProvider: provider.NewBaseProvider("a"),
		errs:         []error{errors.New("connection reset"), errors.New("timeout")},
	}

	res, err := CallWithRetry(context.Background(), p, "getHealth", nil, fastRetry)
	require.NoError(t, err)
	assert.JSONEq(t, `"ok"`, string(res))
	assert.Equal(t, 3, p.calls)
}

func TestCallWithRetry_StopsOnFatal(t *testing.T) {
	p := &scriptedProvider{
		BaseProvider: provider.NewBaseProvider("a"),
		errs:         []error{&provider.RPCError{Code: -32602, Message: "invalid params"}},
	}

	_, err := CallWithRetry(context.Background(), p, "getHealth", nil, fastRetry)
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
}

func TestCallWithRetryAndFailover_MovesToNextProvider(t *testing.T) {
	first := &scriptedProvider{
		BaseProvider: provider.NewBaseProvider("first"),
		errs:         []error{errors.New("rate limited (429)")},
	}
	second := &scriptedProvider{BaseProvider: provider.NewBaseProvider("second")}

	_, used, err := CallWithRetryAndFailover(
		context.Background(),
		[]provider.RPCProvider{first, second},
		"getHealth",
		nil,
		fastRetry,
	)
	require.NoError(t, err)
	assert.Equal(t, "second", used.GetName())
	assert.Equal(t, 1, first.calls)
}

func markDown(p *provider.BaseProvider) {
	for i := 0; i < 4; i++ {
		p.RecordFailure()
	}
}

func TestCallWithRetryAndFailover_RecoversWhenAllMarkedDown(t *testing.T) {
	first := &scriptedProvider{BaseProvider: provider.NewBaseProvider("first")}
	second := &scriptedProvider{BaseProvider: provider.NewBaseProvider("second")}
	markDown(first.BaseProvider)
	markDown(second.BaseProvider)
	require.False(t, first.IsAvailable())
	require.False(t, second.IsAvailable())

	for i := 0; i < 3; i++ {
		res, used, err := CallWithRetryAndFailover(
			context.Background(),
			[]provider.RPCProvider{first, second},
			"getHealth",
			nil,
			fastRetry,
		)
		require.NoError(t, err)
		assert.JSONEq(t, `"ok"`, string(res))
		assert.Equal(t, "first", used.GetName())
	}
	assert.Zero(t, second.calls)
}

func TestCallWithRetryAndFailover_SkipsDownProviderWhileOthersWork(t *testing.T) {
	first := &scriptedProvider{BaseProvider: provider.NewBaseProvider("first")}
	second := &scriptedProvider{BaseProvider: provider.NewBaseProvider("second")}
	markDown(first.BaseProvider)

	_, used, err := CallWithRetryAndFailover(
		context.Background(),
		[]provider.RPCProvider{first, second},
		"getHealth",
		nil,
		fastRetry,
	)
	require.NoError(t, err)
	assert.Equal(t, "second", used.GetName())
	assert.Zero(t, first.calls)
}

func TestCallWithRetryAndFailover_AllMarkedDownStillFailing(t *testing.T) {
	first := &scriptedProvider{
		BaseProvider: provider.NewBaseProvider("first"),
		errs:         []error{errors.New("connection refused"), errors.New("connection refused")},
	}
	second := &scriptedProvider{
		BaseProvider: provider.NewBaseProvider("second"),
		errs:         []error{errors.New("connection refused")},
	}
	markDown(first.BaseProvider)
	markDown(second.BaseProvider)

	_, _, err := CallWithRetryAndFailover(
		context.Background(),
		[]provider.RPCProvider{first, second},
		"getHealth",
		nil,
		fastRetry,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, BackoffMultiple: 2}
	assert.Equal(t, time.Second, calculateBackoff(0, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 3*time.Second, calculateBackoff(5, cfg))
}
