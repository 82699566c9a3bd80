package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/vietddude/dappwallet/internal/bridge"
	"github.com/vietddude/dappwallet/internal/core/domain"
)

// SolanaAdapter tracks the Solana account exposed by the extension.
type SolanaAdapter struct {
	*sessionAdapter
}

var _ Adapter = (*SolanaAdapter)(nil)

// NewSolanaAdapter creates a disconnected adapter. network is used for the
// connect request until the extension reports its own.
func NewSolanaAdapter(b *bridge.Bridge, network string) *SolanaAdapter {
	return &SolanaAdapter{
		sessionAdapter: newSessionAdapter(domain.ChainFamilySolana, network, b, decodeSolanaKey),
	}
}

func decodeSolanaKey(pubKey string) ([]byte, error) {
	pk, err := solana.PublicKeyFromBase58(pubKey)
	if err != nil {
		return nil, err
	}
	return pk.Bytes(), nil
}

// Account returns the connected account as a Solana public key.
func (a *SolanaAdapter) Account() (solana.PublicKey, error) {
	key := a.PublicKey()
	if key == nil {
		return solana.PublicKey{}, domain.ErrNotConnected
	}
	return solana.PublicKeyFromBytes(key), nil
}

// SendTransaction submits a "0x"-hex transaction and returns its signature.
func (a *SolanaAdapter) SendTransaction(ctx context.Context, hexTx string) (solana.Signature, error) {
	raw, err := a.SignAndSendTransaction(ctx, hexTx)
	if err != nil {
		return solana.Signature{}, err
	}
	return decodeSignature(raw)
}

// decodeSignature accepts a bare base58 string or an object with a
// "signature" field, the two shapes extensions answer with.
func decodeSignature(raw json.RawMessage) (solana.Signature, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var wrapped struct {
			Signature string `json:"signature"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Signature == "" {
			return solana.Signature{}, fmt.Errorf("%w: no signature in %s", domain.ErrMalformedResponse, raw)
		}
		s = wrapped.Signature
	}

	sig, err := solana.SignatureFromBase58(s)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return sig, nil
}
