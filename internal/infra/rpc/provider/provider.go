// Package provider implements RPC provider interfaces.
//
// This package contains:
//   - Provider interface: core abstraction for RPC endpoints
//   - HTTPProvider: JSON-RPC 2.0 over HTTP implementation
//   - BaseProvider: shared health tracking
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Provider defines the core interface for any RPC provider.
// It serves as the base abstraction for health checking and lifecycle management.
type Provider interface {
	// GetName returns provider identifier (e.g., "helius", "public")
	GetName() string

	// GetHealth returns current health metrics
	GetHealth() HealthStatus

	// IsAvailable checks if the provider is healthy enough to use
	IsAvailable() bool

	// Close cleans up resources
	Close() error
}

// RPCProvider extends Provider with methods for making JSON-RPC calls.
type RPCProvider interface {
	Provider

	// Call makes a single RPC request and returns the raw result. params is
	// either a positional []any or a named-parameter object.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Cause   *ErrorCause     `json:"cause,omitempty"`
}

// ErrorCause is the structured cause NEAR nodes attach to handler errors.
type ErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Cause.Name)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	Latency       time.Duration
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
}
