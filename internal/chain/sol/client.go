package sol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/vietddude/dappwallet/internal/infra/rpc"
)

var (
	// ErrTransactionFailed is returned when a confirmed transaction carries an error.
	ErrTransactionFailed = errors.New("transaction failed on chain")
	// ErrBlockHeightExceeded is returned when the chain passed the last valid
	// block height of the transaction's blockhash before it confirmed.
	ErrBlockHeightExceeded = errors.New("block height exceeded")
)

// Commitment levels accepted by the Solana RPC.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

// Failed reports whether the transaction executed with an error.
func (s *SignatureStatus) Failed() bool {
	return len(s.Err) > 0 && string(s.Err) != "null"
}

// Client queries a Solana JSON-RPC endpoint through the shared rpc layer.
type Client struct {
	rpc rpc.RPCClient
	log *slog.Logger
}

// NewClient creates a Solana client over c.
func NewClient(c rpc.RPCClient) *Client {
	return &Client{
		rpc: c,
		log: slog.Default().With("component", "solana_client"),
	}
}

// LatestBlockhash returns the most recent finalized blockhash and the last
// block height at which it is still valid.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	raw, err := c.rpc.Call(ctx, "getLatestBlockhash", []any{
		map[string]any{"commitment": CommitmentFinalized},
	})
	if err != nil {
		return solana.Hash{}, 0, err
	}

	var res struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return solana.Hash{}, 0, fmt.Errorf("decode getLatestBlockhash: %w", err)
	}

	hash, err := solana.HashFromBase58(res.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("invalid blockhash %q: %w", res.Value.Blockhash, err)
	}
	return hash, res.Value.LastValidBlockHeight, nil
}

// SignatureStatuses returns one status per signature; unknown ones are nil.
func (c *Client) SignatureStatuses(ctx context.Context, sigs ...solana.Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i, sig := range sigs {
		encoded[i] = sig.String()
	}

	raw, err := c.rpc.Call(ctx, "getSignatureStatuses", []any{
		encoded,
		map[string]any{"searchTransactionHistory": true},
	})
	if err != nil {
		return nil, err
	}

	var res struct {
		Value []*SignatureStatus `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode getSignatureStatuses: %w", err)
	}
	return res.Value, nil
}

// BlockHeight returns the current block height at confirmed commitment.
func (c *Client) BlockHeight(ctx context.Context) (uint64, error) {
	raw, err := c.rpc.Call(ctx, "getBlockHeight", []any{
		map[string]any{"commitment": CommitmentConfirmed},
	})
	if err != nil {
		return 0, err
	}
	var height uint64
	if err := json.Unmarshal(raw, &height); err != nil {
		return 0, fmt.Errorf("decode getBlockHeight: %w", err)
	}
	return height, nil
}

// ConfirmTransaction polls until sig reaches confirmed or finalized, fails on
// chain, expires, or ctx is done. It never rebroadcasts.
//
// Once the block height passes lastValidBlockHeight the blockhash can no
// longer land, so the loop stops with ErrBlockHeightExceeded after one last
// status check. A zero lastValidBlockHeight disables the expiry check.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64, interval time.Duration) (*SignatureStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		expired := false
		if lastValidBlockHeight > 0 {
			height, err := c.BlockHeight(ctx)
			if err != nil {
				c.log.Debug("Block height query failed", "signature", sig, "error", err)
			} else if height > lastValidBlockHeight {
				expired = true
			}
		}

		statuses, err := c.SignatureStatuses(ctx, sig)
		if err != nil {
			c.log.Debug("Signature status query failed", "signature", sig, "error", err)
		} else if len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Failed() {
				return status, fmt.Errorf("%w: %s", ErrTransactionFailed, status.Err)
			}
			switch status.ConfirmationStatus {
			case CommitmentConfirmed, CommitmentFinalized:
				return status, nil
			}
		}

		if expired {
			return nil, fmt.Errorf("%w: signature %s not confirmed by block height %d",
				ErrBlockHeightExceeded, sig, lastValidBlockHeight)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
