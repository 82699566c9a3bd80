// Package near builds NEAR function-call transactions for submission through
// the wallet extension.
package near

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/holiman/uint256"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/metrics"
)

// FunctionCallIntent describes one function call to submit.
type FunctionCallIntent struct {
	SignerID   string
	PublicKey  PublicKey
	ReceiverID string
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    *uint256.Int
}

// AccessKeySource is the RPC dependency of the builder.
type AccessKeySource interface {
	AccessKey(ctx context.Context, account string, key PublicKey) (*AccessKey, error)
}

// Builder assembles function-call transactions.
type Builder struct {
	keys AccessKeySource
	log  *slog.Logger
}

// NewBuilder creates a builder over keys.
func NewBuilder(keys AccessKeySource) *Builder {
	return &Builder{
		keys: keys,
		log:  slog.Default().With("component", "near_builder"),
	}
}

// Build fetches the signer's access key and returns a transaction with
// nonce = fetched + 1 and the returned block hash. Nothing is cached.
func (b *Builder) Build(ctx context.Context, intent FunctionCallIntent) (*Transaction, error) {
	if intent.SignerID == "" || intent.ReceiverID == "" || intent.MethodName == "" {
		return nil, fmt.Errorf("signer, receiver and method are required")
	}
	if intent.Gas == 0 {
		return nil, fmt.Errorf("%w: gas must be positive", domain.ErrInvalidAmount)
	}

	key, err := b.keys.AccessKey(ctx, intent.SignerID, intent.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access key: %w", err)
	}

	blockHash, err := DecodeBlockHash(key.BlockHash)
	if err != nil {
		return nil, err
	}

	deposit := intent.Deposit
	if deposit == nil {
		deposit = new(uint256.Int)
	}
	args := intent.Args
	if args == nil {
		args = []byte{}
	}

	tx := &Transaction{
		SignerID:   intent.SignerID,
		PublicKey:  intent.PublicKey,
		Nonce:      key.Nonce + 1,
		ReceiverID: intent.ReceiverID,
		BlockHash:  blockHash,
		Actions: []FunctionCall{{
			MethodName: intent.MethodName,
			Args:       args,
			Gas:        intent.Gas,
			Deposit:    deposit,
		}},
	}

	metrics.TransactionsBuiltTotal.WithLabelValues(string(domain.ChainFamilyNear)).Inc()
	b.log.Info("Built function call transaction",
		"signer", tx.SignerID,
		"receiver", tx.ReceiverID,
		"method", intent.MethodName,
		"nonce", tx.Nonce,
	)
	return tx, nil
}

// Encode returns the base64 Borsh form handed to the extension.
func Encode(tx *Transaction) (string, error) {
	raw, err := tx.MarshalBorsh()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ParseDeposit parses a yoctoNEAR amount given in decimal.
func ParseDeposit(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: deposit %q: %v", domain.ErrInvalidAmount, s, err)
	}
	if v.BitLen() > 128 {
		return nil, fmt.Errorf("%w: deposit %q overflows u128", domain.ErrInvalidAmount, s)
	}
	return v, nil
}

// ClassifySubmitError marks submission failures caused by a rejected nonce
// as ErrStaleNonce. The extension error stays reachable through errors.As.
func ClassifySubmitError(err error) error {
	var reqErr *domain.ChainRequestError
	if errors.As(err, &reqErr) && strings.Contains(reqErr.Message, "InvalidNonce") {
		return fmt.Errorf("%w: %w", domain.ErrStaleNonce, err)
	}
	return err
}
