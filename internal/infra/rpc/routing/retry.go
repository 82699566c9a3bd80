package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vietddude/dappwallet/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig keeps read queries short: a blockhash or nonce that
// takes a minute to fetch is already close to stale.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry // Should not happen
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	// Node answered with a JSON-RPC error: the request itself is the problem,
	// another provider would say the same.
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return ActionFatal
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found, -32602: Invalid params
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") {
		return ActionFatal
	}

	// Failover (Provider specific issues)
	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(s, "403") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "quota") ||
		strings.Contains(sLower, "unauthorized") ||
		strings.Contains(sLower, "rate limit") {
		return ActionFailover
	}

	// Default to Retry (Network, 5xx, etc)
	return ActionRetry
}

// CallWithRetry executes an RPC call with exponential backoff.
func CallWithRetry(
	ctx context.Context,
	p provider.RPCProvider,
	method string,
	params any,
	config RetryConfig,
) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := p.Call(ctx, method, params)
		if err == nil {
			return result, nil
		}

		lastErr = err

		action := ClassifyError(err)
		if action == ActionFatal || action == ActionFailover {
			return nil, err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// CallWithRetryAndFailover tries each available provider in order with retry.
func CallWithRetryAndFailover(
	ctx context.Context,
	providers []provider.RPCProvider,
	method string,
	params any,
	config RetryConfig,
) (json.RawMessage, provider.RPCProvider, error) {
	if len(providers) == 0 {
		return nil, nil, fmt.Errorf("no providers configured")
	}

	var (
		lastErr error
		skipped []provider.RPCProvider
	)
	for _, p := range providers {
		if !p.IsAvailable() && len(providers) > 1 {
			skipped = append(skipped, p)
			continue
		}

		result, err := CallWithRetry(ctx, p, method, params, config)
		if err == nil {
			return result, p, nil
		}
		lastErr = err

		if ClassifyError(err) == ActionFatal {
			return nil, p, err
		}
	}

	// Every provider is marked down: try them anyway, one attempt each, so
	// a shared outage cannot lock the client out for good.
	if lastErr == nil {
		single := config
		single.MaxAttempts = 1
		for _, p := range skipped {
			result, err := CallWithRetry(ctx, p, method, params, single)
			if err == nil {
				return result, p, nil
			}
			lastErr = err

			if ClassifyError(err) == ActionFatal {
				return nil, p, err
			}
		}
	}

	if lastErr == nil {
		return nil, nil, fmt.Errorf("no available providers")
	}
	return nil, nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
