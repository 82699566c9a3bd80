package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/dappwallet/internal/bridge"
	"github.com/vietddude/dappwallet/internal/chain/near"
	"github.com/vietddude/dappwallet/internal/core/domain"
)

// NearAdapter tracks the NEAR account exposed by the extension.
type NearAdapter struct {
	*sessionAdapter
}

var _ Adapter = (*NearAdapter)(nil)

// NewNearAdapter creates a disconnected adapter.
func NewNearAdapter(b *bridge.Bridge, network string) *NearAdapter {
	return &NearAdapter{
		sessionAdapter: newSessionAdapter(domain.ChainFamilyNear, network, b, decodeNearKey),
	}
}

func decodeNearKey(pubKey string) ([]byte, error) {
	pk, err := near.ParsePublicKey(pubKey)
	if err != nil {
		return nil, err
	}
	return pk[:], nil
}

// Signer returns the connected account id and its key.
func (a *NearAdapter) Signer() (string, near.PublicKey, error) {
	s := a.Session()
	if s.Status != domain.StatusConnected {
		return "", near.PublicKey{}, domain.ErrNotConnected
	}
	var pk near.PublicKey
	copy(pk[:], s.PublicKey)
	return s.AccountAddress, pk, nil
}

// Accounts asks the extension for the active NEAR account. It works in any
// status since it is a plain query; only losing the bridge drops the session.
func (a *NearAdapter) Accounts(ctx context.Context) (domain.NetworkAccount, error) {
	a.mu.Lock()
	network := a.session.ChainID
	if network == "" {
		network = a.defaultNetwork
	}
	gen := a.generation
	a.mu.Unlock()

	raw, err := a.bridge.Send(ctx, domain.ChainTag(a.family, network), bridge.MethodAccounts)
	if err != nil {
		if errors.Is(err, domain.ErrBridgeUnavailable) {
			a.mu.Lock()
			if gen == a.generation {
				a.resetLocked("bridge unavailable")
			}
			a.mu.Unlock()
		}
		return domain.NetworkAccount{}, err
	}
	return decodeAccount(raw, a.family)
}

// decodeAccount accepts {address, pubKey} or a map keyed by family.
func decodeAccount(raw json.RawMessage, family domain.ChainFamily) (domain.NetworkAccount, error) {
	var single domain.NetworkAccount
	if err := json.Unmarshal(raw, &single); err == nil && single.Address != "" {
		return single, nil
	}

	var byFamily map[string]domain.NetworkAccount
	if err := json.Unmarshal(raw, &byFamily); err == nil {
		if acct, ok := byFamily[string(family)]; ok && acct.Address != "" {
			return acct, nil
		}
	}
	return domain.NetworkAccount{}, fmt.Errorf("%w: no %s account in %s", domain.ErrMalformedResponse, family, raw)
}
