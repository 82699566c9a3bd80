// Package rpc provides a resilient JSON-RPC client for blockchain networks.
//
// This package offers:
//   - Multiple provider support with ordered failover
//   - Retry with exponential backoff for transient failures
//   - Prometheus metrics per chain, provider and method
//
// # Quick Start
//
//	client := rpc.NewClient("solana",
//	    rpc.NewHTTPProvider("public", "https://api.devnet.solana.com", 30*time.Second))
//	result, err := client.Call(ctx, "getLatestBlockhash", nil)
//
// The client is for read queries. Broadcasting goes through the wallet
// extension and is never retried here.
//
// # Package Structure
//
//   - provider/ - Provider implementations (HTTPProvider, health tracking)
//   - routing/  - Error classification, retry and failover
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vietddude/dappwallet/internal/infra/rpc/provider"
	"github.com/vietddude/dappwallet/internal/infra/rpc/routing"
	"github.com/vietddude/dappwallet/internal/metrics"
)

// RPCClient is what chain packages depend on.
type RPCClient interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// RPCProvider is the interface for providers that support JSON-RPC calls.
type RPCProvider = provider.RPCProvider

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// RPCError is a JSON-RPC error object returned by the node.
type RPCError = provider.RPCError

// HealthStatus is the passive health of one provider.
type HealthStatus = provider.HealthStatus

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// Client is the high-level interface for making RPC calls.
type Client struct {
	chain     string
	providers []provider.RPCProvider
	retry     routing.RetryConfig
}

var _ RPCClient = (*Client)(nil)

// NewClient creates a new RPC client over providers, tried in order.
func NewClient(chain string, providers ...provider.RPCProvider) *Client {
	return &Client{
		chain:     chain,
		providers: providers,
		retry:     routing.DefaultRetryConfig,
	}
}

// WithRetry overrides the retry configuration.
func (c *Client) WithRetry(cfg routing.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Call makes an RPC call with automatic failover and retry.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	start := time.Now()
	result, p, err := routing.CallWithRetryAndFailover(ctx, c.providers, method, params, c.retry)

	name := "none"
	if p != nil {
		name = p.GetName()
	}
	metrics.RPCCallsTotal.WithLabelValues(c.chain, name, method).Inc()
	metrics.RPCLatency.WithLabelValues(c.chain, name, method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(c.chain, name, errorType(err)).Inc()
	}

	return result, err
}

// Health returns the health of each provider, keyed by name.
func (c *Client) Health() map[string]HealthStatus {
	out := make(map[string]HealthStatus, len(c.providers))
	for _, p := range c.providers {
		out[p.GetName()] = p.GetHealth()
	}
	return out
}

// Close closes all providers.
func (c *Client) Close() error {
	var errs []error
	for _, p := range c.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

func errorType(err error) string {
	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		return "rpc"
	}
	switch routing.ClassifyError(err) {
	case routing.ActionFailover:
		return "throttled"
	case routing.ActionFatal:
		return "fatal"
	default:
		return "transport"
	}
}
