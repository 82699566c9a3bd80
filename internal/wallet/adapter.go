// Package wallet exposes one capability set over the extension bridge with
// per-family variants. Signing happens inside the extension; adapters only
// gate on session state and shape requests.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/dappwallet/internal/bridge"
	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/metrics"
)

// Adapter is the uniform wallet contract shared by every chain family.
type Adapter interface {
	// Family returns the chain family this adapter tracks.
	Family() domain.ChainFamily

	// Connect subscribes to extension events, then reads the active account.
	// It returns nil while the session is still waiting for an account.
	Connect(ctx context.Context) error

	// Disconnect clears the session and subscriptions. Idempotent.
	Disconnect()

	// Session returns a snapshot of the current session.
	Session() domain.WalletSession

	// PublicKey returns the raw key of the connected account, or nil.
	PublicKey() []byte

	// WaitConnected blocks until the session is Connected or Disconnected.
	WaitConnected(ctx context.Context) (domain.WalletSession, error)

	// SignAndSendTransaction hands a serialized transaction to the extension.
	SignAndSendTransaction(ctx context.Context, serializedTx string) (json.RawMessage, error)

	SignTransaction(ctx context.Context, serializedTx string) (string, error)
	SignAllTransactions(ctx context.Context, serializedTxs []string) ([]string, error)
	SignMessage(ctx context.Context, message []byte) ([]byte, error)
}

// TransitionFunc observes session transitions. It runs with the adapter
// locked and must not call back into the adapter.
type TransitionFunc func(family domain.ChainFamily, t Transition)

// keyDecoder turns the extension's pubKey string into raw key bytes.
type keyDecoder func(pubKey string) ([]byte, error)

// sessionAdapter is the state machine shared by the family variants.
type sessionAdapter struct {
	family         domain.ChainFamily
	defaultNetwork string
	bridge         *bridge.Bridge
	decodeKey      keyDecoder
	log            *slog.Logger

	mu           sync.Mutex
	session      domain.WalletSession
	generation   uint64
	unsubscribe  []func()
	changed      chan struct{}
	onTransition TransitionFunc
}

func newSessionAdapter(family domain.ChainFamily, network string, b *bridge.Bridge, decode keyDecoder) *sessionAdapter {
	return &sessionAdapter{
		family:         family,
		defaultNetwork: network,
		bridge:         b,
		decodeKey:      decode,
		log:            slog.Default().With("component", "wallet", "family", family),
		session:        domain.WalletSession{Family: family, Status: domain.StatusDisconnected},
		changed:        make(chan struct{}),
	}
}

func (a *sessionAdapter) Family() domain.ChainFamily {
	return a.family
}

// SetTransitionCallback registers fn for every status change.
func (a *sessionAdapter) SetTransitionCallback(fn TransitionFunc) {
	a.mu.Lock()
	a.onTransition = fn
	a.mu.Unlock()
}

func (a *sessionAdapter) Session() domain.WalletSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Clone()
}

func (a *sessionAdapter) PublicKey() []byte {
	s := a.Session()
	if s.Status != domain.StatusConnected {
		return nil
	}
	return s.PublicKey
}

func (a *sessionAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.session.Status != domain.StatusDisconnected {
		a.mu.Unlock()
		return nil
	}
	if !a.bridge.Available() {
		a.mu.Unlock()
		a.log.Warn("Wallet extension not found")
		return domain.ErrProviderNotFound
	}

	a.generation++
	gen := a.generation
	a.session.ChainID = a.defaultNetwork
	a.transitionLocked(domain.StatusConnecting, "connect requested")

	// Subscriptions go in before the snapshot read so no account push is lost.
	if err := a.subscribeLocked(gen); err != nil {
		a.resetLocked("subscribe failed")
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	snapshot, err := a.bridge.Networks(ctx, domain.ChainTag(a.family, a.defaultNetwork))

	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation {
		return domain.ErrConnectAborted
	}
	if err != nil {
		a.resetLocked("connect request failed")
		return err
	}

	entry, ok := snapshot[string(a.family)]
	if !ok {
		if a.session.Status != domain.StatusConnected {
			a.log.Info("No account for family yet, waiting for accountsChanged")
		}
		return nil
	}
	a.applyNetworkLocked(entry.Net)
	if entry.Address == "" || a.session.Status == domain.StatusConnected {
		return nil
	}

	key, err := a.decodeKey(entry.PubKey)
	if err != nil {
		a.resetLocked("undecodable public key")
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	a.session.AccountAddress = entry.Address
	a.session.PublicKey = key
	a.transitionLocked(domain.StatusConnected, "account in snapshot")
	return nil
}

func (a *sessionAdapter) subscribeLocked(gen uint64) error {
	unsubChain, err := a.bridge.Subscribe(bridge.EventChainChanged, func(payload json.RawMessage) {
		a.handleChainChanged(gen, payload)
	})
	if err != nil {
		return err
	}
	unsubAccounts, err := a.bridge.Subscribe(bridge.EventAccountsChanged, func(payload json.RawMessage) {
		a.handleAccountsChanged(gen, payload)
	})
	if err != nil {
		unsubChain()
		return err
	}
	a.unsubscribe = []func(){unsubChain, unsubAccounts}
	return nil
}

func (a *sessionAdapter) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session.Status == domain.StatusDisconnected && len(a.unsubscribe) == 0 {
		return
	}
	a.resetLocked("disconnect requested")
}

// resetLocked drops subscriptions and session data. Bumping the generation
// makes any in-flight connect or queued event stale.
func (a *sessionAdapter) resetLocked(reason string) {
	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.unsubscribe = nil
	a.generation++

	a.transitionLocked(domain.StatusDisconnected, reason)
	a.session = domain.WalletSession{
		Family:    a.family,
		Status:    domain.StatusDisconnected,
		UpdatedAt: a.session.UpdatedAt,
	}
}

func (a *sessionAdapter) transitionLocked(to domain.ConnectionStatus, reason string) {
	from := a.session.Status
	if from == to {
		return
	}

	t := NewTransition(from, to, reason)
	if !t.IsValid() {
		a.log.Warn("Unexpected session transition", "from", from, "to", to, "reason", reason)
	}
	a.session.Status = to
	a.session.UpdatedAt = t.Timestamp

	metrics.SessionTransitionsTotal.WithLabelValues(string(a.family), string(to)).Inc()
	a.log.Info("Session transition", "from", from, "to", to, "reason", reason)

	close(a.changed)
	a.changed = make(chan struct{})

	if a.onTransition != nil {
		a.onTransition(a.family, t)
	}
}

func (a *sessionAdapter) WaitConnected(ctx context.Context) (domain.WalletSession, error) {
	for {
		a.mu.Lock()
		s := a.session.Clone()
		changed := a.changed
		a.mu.Unlock()

		switch s.Status {
		case domain.StatusConnected:
			return s, nil
		case domain.StatusDisconnected:
			return s, domain.ErrNotConnected
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

func (a *sessionAdapter) handleChainChanged(gen uint64, payload json.RawMessage) {
	var tag string
	if err := json.Unmarshal(payload, &tag); err != nil {
		a.log.Warn("Ignoring malformed chainChanged payload", "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return
	}
	a.applyNetworkLocked(tag)
}

// applyNetworkLocked updates the network only for tags of this family.
func (a *sessionAdapter) applyNetworkLocked(tag string) {
	family, network, ok := domain.ParseChainTag(tag)
	if !ok || family != a.family || network == "" {
		return
	}
	if a.session.ChainID != network {
		a.log.Info("Network changed", "from", a.session.ChainID, "to", network)
		a.session.ChainID = network
	}
}

func (a *sessionAdapter) handleAccountsChanged(gen uint64, payload json.RawMessage) {
	var accounts map[string]domain.NetworkAccount
	if err := json.Unmarshal(payload, &accounts); err != nil {
		a.log.Warn("Ignoring malformed accountsChanged payload", "error", err)
		return
	}

	entry, ok := accounts[string(a.family)]
	if !ok || entry.Address == "" {
		return
	}
	key, err := a.decodeKey(entry.PubKey)
	if err != nil {
		a.log.Warn("Ignoring account with undecodable key", "address", entry.Address, "error", err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return
	}

	a.applyNetworkLocked(entry.Net)
	a.session.AccountAddress = entry.Address
	a.session.PublicKey = key
	if a.session.Status == domain.StatusConnecting {
		a.transitionLocked(domain.StatusConnected, "accountsChanged")
		return
	}
	a.log.Info("Account changed", "address", entry.Address)
}

func (a *sessionAdapter) SignAndSendTransaction(ctx context.Context, serializedTx string) (json.RawMessage, error) {
	a.mu.Lock()
	if a.session.Status != domain.StatusConnected {
		a.mu.Unlock()
		return nil, domain.ErrNotConnected
	}
	net := a.session.NetTag()
	gen := a.generation
	a.mu.Unlock()

	result, err := a.bridge.Send(ctx, net, bridge.MethodSendTransaction, serializedTx)
	if errors.Is(err, domain.ErrBridgeUnavailable) {
		a.mu.Lock()
		if gen == a.generation {
			a.resetLocked("bridge unavailable")
		}
		a.mu.Unlock()
	}
	if err != nil {
		metrics.TransactionsSubmittedTotal.WithLabelValues(string(a.family), "failed").Inc()
		return nil, err
	}

	metrics.TransactionsSubmittedTotal.WithLabelValues(string(a.family), "ok").Inc()
	return result, nil
}

func (a *sessionAdapter) SignTransaction(context.Context, string) (string, error) {
	return "", &domain.UnsupportedOperationError{Family: a.family, Operation: "signTransaction"}
}

func (a *sessionAdapter) SignAllTransactions(context.Context, []string) ([]string, error) {
	return nil, &domain.UnsupportedOperationError{Family: a.family, Operation: "signAllTransactions"}
}

func (a *sessionAdapter) SignMessage(context.Context, []byte) ([]byte, error) {
	return nil, &domain.UnsupportedOperationError{Family: a.family, Operation: "signMessage"}
}
