// Package bridge is the request/response contract with an injected wallet
// extension. It carries no business logic: it shapes envelopes, enforces the
// result-xor-error invariant and fans out pushed events.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/metrics"
)

// Handler receives the raw payload of a pushed event.
type Handler func(payload json.RawMessage)

// Extension is the injected wallet object.
type Extension interface {
	// Available reports whether the extension is present and reachable.
	Available() bool

	// Request issues one call. Transport failures are returned as errors;
	// extension-level failures come back inside the Response.
	Request(ctx context.Context, env RequestEnvelope) (Response, error)

	// Subscribe registers a long-lived handler for a pushed event.
	Subscribe(event string, handler Handler) (unsubscribe func())
}

// Bridge wraps an Extension. A nil extension is a valid, unavailable bridge.
type Bridge struct {
	ext Extension
	log *slog.Logger
}

// New creates a bridge over ext.
func New(ext Extension) *Bridge {
	return &Bridge{
		ext: ext,
		log: slog.Default().With("component", "bridge"),
	}
}

// Available reports whether an extension can take requests.
func (b *Bridge) Available() bool {
	return b != nil && b.ext != nil && b.ext.Available()
}

// Send issues method on net and returns the unwrapped result.
// No retries happen here: dapp:sendTransaction is not idempotent.
func (b *Bridge) Send(ctx context.Context, net, method string, params ...any) (json.RawMessage, error) {
	if !b.Available() {
		metrics.BridgeRequestsTotal.WithLabelValues(net, method, "unavailable").Inc()
		return nil, domain.ErrBridgeUnavailable
	}
	if params == nil {
		params = []any{}
	}

	start := time.Now()
	resp, err := b.ext.Request(ctx, RequestEnvelope{Net: net, Method: method, Params: params})
	metrics.BridgeLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BridgeRequestsTotal.WithLabelValues(net, method, "transport_error").Inc()
		if errors.Is(err, domain.ErrBridgeUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}

	result, err := resp.Unwrap()
	if err != nil {
		outcome := "malformed"
		var reqErr *domain.ChainRequestError
		if errors.As(err, &reqErr) {
			outcome = "error"
		}
		metrics.BridgeRequestsTotal.WithLabelValues(net, method, outcome).Inc()
		b.log.Debug("Extension returned failure", "net", net, "method", method, "error", err)
		return nil, err
	}

	metrics.BridgeRequestsTotal.WithLabelValues(net, method, "ok").Inc()
	return result, nil
}

// Subscribe registers handler for event on the extension.
func (b *Bridge) Subscribe(event string, handler Handler) (func(), error) {
	if !b.Available() {
		return nil, domain.ErrBridgeUnavailable
	}
	return b.ext.Subscribe(event, handler), nil
}

// Networks asks the extension to authorize the dApp and returns its
// per-family snapshot of active network and account.
func (b *Bridge) Networks(ctx context.Context, net string) (map[string]domain.NetworkAccount, error) {
	raw, err := b.Send(ctx, net, MethodConnect)
	if err != nil {
		return nil, err
	}

	var snapshot map[string]domain.NetworkAccount
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode network snapshot: %v", domain.ErrMalformedResponse, err)
	}
	return snapshot, nil
}
