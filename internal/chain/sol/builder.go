// Package sol builds Solana stake-delegation transactions for submission
// through the wallet extension.
package sol

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/metrics"
)

// StepKind names one logical step of a stake transaction.
type StepKind int

const (
	// StepCreateAccountWithSeed creates and initializes the stake account.
	StepCreateAccountWithSeed StepKind = iota
	// StepDelegate delegates the stake account to a vote account.
	StepDelegate
)

func (k StepKind) String() string {
	switch k {
	case StepCreateAccountWithSeed:
		return "createAccountWithSeed"
	case StepDelegate:
		return "delegate"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

// Step groups the wire instructions of one logical operation.
type Step struct {
	Kind         StepKind
	Instructions []solana.Instruction
}

// StakeIntent describes one stake-and-delegate request.
type StakeIntent struct {
	Base      solana.PublicKey
	Validator solana.PublicKey
	Lamports  uint64
	// Seed overrides the builder's SeedSource when set.
	Seed string
}

// StakeTransaction is an unsigned, fully formed stake transaction.
type StakeTransaction struct {
	Intent               StakeIntent
	StakeAccount         solana.PublicKey
	Blockhash            solana.Hash
	LastValidBlockHeight uint64 // last height accepting Blockhash, zero when unknown
	Steps                []Step
	Tx                   *solana.Transaction

	seedAllocated bool
}

// BlockhashSource is the RPC dependency of the builder.
type BlockhashSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

// Builder assembles stake transactions.
type Builder struct {
	blockhash BlockhashSource
	seeds     SeedSource
	log       *slog.Logger
}

// NewBuilder creates a builder. A nil seeds uses TimestampSeeds.
func NewBuilder(blockhash BlockhashSource, seeds SeedSource) *Builder {
	if seeds == nil {
		seeds = NewTimestampSeeds()
	}
	return &Builder{
		blockhash: blockhash,
		seeds:     seeds,
		log:       slog.Default().With("component", "solana_builder"),
	}
}

// Build validates intent, derives the stake account, fetches a fresh
// blockhash and composes [createAccountWithSeed, delegate].
func (b *Builder) Build(ctx context.Context, intent StakeIntent) (*StakeTransaction, error) {
	if intent.Lamports == 0 {
		return nil, fmt.Errorf("%w: stake amount must be positive", domain.ErrInvalidAmount)
	}

	seed := intent.Seed
	allocated := seed == ""
	if allocated {
		var err error
		if seed, err = b.seeds.NextSeed(ctx, intent.Base); err != nil {
			return nil, fmt.Errorf("failed to allocate seed: %w", err)
		}
	}
	intent.Seed = seed
	release := func() {
		if allocated {
			b.release(ctx, intent)
		}
	}

	stakeAccount, err := DeriveStakeAddress(intent.Base, seed)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to derive stake address: %w", err)
	}

	hash, lastValid, err := b.blockhash.LatestBlockhash(ctx)
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: %v", domain.ErrBlockHashUnavailable, err)
	}

	steps := []Step{
		{
			Kind: StepCreateAccountWithSeed,
			Instructions: []solana.Instruction{
				createAccountWithSeedInstruction(intent.Base, stakeAccount, intent.Base, seed, intent.Lamports),
				initializeStakeInstruction(stakeAccount, intent.Base, intent.Base),
			},
		},
		{
			Kind:         StepDelegate,
			Instructions: []solana.Instruction{delegateStakeInstruction(stakeAccount, intent.Validator, intent.Base)},
		},
	}

	tx, err := Assemble(intent, stakeAccount, hash, steps)
	if err != nil {
		release()
		return nil, err
	}
	tx.LastValidBlockHeight = lastValid
	tx.seedAllocated = allocated

	metrics.TransactionsBuiltTotal.WithLabelValues(string(domain.ChainFamilySolana)).Inc()
	b.log.Info("Built stake transaction",
		"base", intent.Base,
		"stake_account", stakeAccount,
		"validator", intent.Validator,
		"sol", FormatSOL(intent.Lamports),
		"seed", seed,
	)
	return tx, nil
}

// Release frees the seed of a transaction the extension rejected before
// broadcast. Only seeds allocated by Build are released; explicit seeds
// belong to the caller.
func (b *Builder) Release(ctx context.Context, tx *StakeTransaction) {
	if tx == nil || !tx.seedAllocated {
		return
	}
	b.release(ctx, tx.Intent)
}

func (b *Builder) release(ctx context.Context, intent StakeIntent) {
	releaser, ok := b.seeds.(SeedReleaser)
	if !ok {
		return
	}
	if err := releaser.ReleaseSeed(ctx, intent.Base, intent.Seed); err != nil {
		b.log.Warn("Failed to release stake seed", "seed", intent.Seed, "error", err)
	}
}

// Assemble validates step order and creates the transaction with base as
// fee payer.
func Assemble(intent StakeIntent, stakeAccount solana.PublicKey, hash solana.Hash, steps []Step) (*StakeTransaction, error) {
	st := &StakeTransaction{
		Intent:       intent,
		StakeAccount: stakeAccount,
		Blockhash:    hash,
		Steps:        steps,
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(st.Instructions(), hash, solana.TransactionPayer(intent.Base))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	st.Tx = tx
	return st, nil
}

// Validate requires exactly createAccountWithSeed followed by delegate.
func (t *StakeTransaction) Validate() error {
	if len(t.Steps) != 2 {
		return fmt.Errorf("%w: want 2 steps, got %d", domain.ErrInvalidInstructionOrder, len(t.Steps))
	}
	if t.Steps[0].Kind != StepCreateAccountWithSeed || t.Steps[1].Kind != StepDelegate {
		return fmt.Errorf("%w: got [%s, %s]", domain.ErrInvalidInstructionOrder, t.Steps[0].Kind, t.Steps[1].Kind)
	}
	for _, step := range t.Steps {
		if len(step.Instructions) == 0 {
			return fmt.Errorf("%w: %s has no instructions", domain.ErrInvalidInstructionOrder, step.Kind)
		}
	}
	return nil
}

// Kinds returns the step order.
func (t *StakeTransaction) Kinds() []StepKind {
	kinds := make([]StepKind, len(t.Steps))
	for i, step := range t.Steps {
		kinds[i] = step.Kind
	}
	return kinds
}

// Instructions flattens the steps into wire order.
func (t *StakeTransaction) Instructions() []solana.Instruction {
	var out []solana.Instruction
	for _, step := range t.Steps {
		out = append(out, step.Instructions...)
	}
	return out
}

// Encode serializes the unsigned transaction as "0x"-prefixed hex with
// zeroed signature slots for the extension to fill.
func (t *StakeTransaction) Encode() (string, error) {
	if t.Tx == nil {
		return "", fmt.Errorf("transaction not assembled")
	}

	unsigned := *t.Tx
	unsigned.Signatures = make([]solana.Signature, unsigned.Message.Header.NumRequiredSignatures)

	raw, err := unsigned.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return "0x" + hex.EncodeToString(raw), nil
}
