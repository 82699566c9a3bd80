package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

// RequestHandler answers requests sent to a MemoryExtension.
type RequestHandler func(ctx context.Context, env RequestEnvelope) (Response, error)

// MemoryExtension is an in-process Extension used by tests and dry runs.
type MemoryExtension struct {
	mu        sync.Mutex
	available bool
	handler   RequestHandler
	requests  []RequestEnvelope
	subs      map[string]map[uint64]Handler
	nextSub   uint64
}

var _ Extension = (*MemoryExtension)(nil)

// NewMemoryExtension creates an available extension backed by handler.
func NewMemoryExtension(handler RequestHandler) *MemoryExtension {
	return &MemoryExtension{
		available: true,
		handler:   handler,
		subs:      make(map[string]map[uint64]Handler),
	}
}

// SetAvailable toggles whether the extension reports itself present.
func (m *MemoryExtension) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// SetHandler swaps the request handler.
func (m *MemoryExtension) SetHandler(handler RequestHandler) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
}

func (m *MemoryExtension) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

func (m *MemoryExtension) Request(ctx context.Context, env RequestEnvelope) (Response, error) {
	m.mu.Lock()
	if !m.available {
		m.mu.Unlock()
		return Response{}, domain.ErrBridgeUnavailable
	}
	m.requests = append(m.requests, env)
	handler := m.handler
	m.mu.Unlock()

	if handler == nil {
		return Response{Error: &ErrorObject{Code: -32601, Message: "method not found"}}, nil
	}
	return handler(ctx, env)
}

func (m *MemoryExtension) Subscribe(event string, handler Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	id := m.nextSub
	if m.subs[event] == nil {
		m.subs[event] = make(map[uint64]Handler)
	}
	m.subs[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[event], id)
			m.mu.Unlock()
		})
	}
}

// Emit pushes event to every subscriber synchronously. Delivery order across
// subscribers is unspecified.
func (m *MemoryExtension) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.subs[event]))
	for _, h := range m.subs[event] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(raw)
	}
	return nil
}

// Requests returns a copy of every request received so far.
func (m *MemoryExtension) Requests() []RequestEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestEnvelope(nil), m.requests...)
}

// SubscriberCount reports how many handlers are registered for event.
func (m *MemoryExtension) SubscriberCount(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[event])
}

// Result builds a successful Response from v.
func Result(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		return Response{Error: &ErrorObject{Code: -32603, Message: err.Error()}}
	}
	return Response{Result: raw}
}
