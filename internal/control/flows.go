package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/vietddude/dappwallet/internal/chain/near"
	"github.com/vietddude/dappwallet/internal/chain/sol"
	"github.com/vietddude/dappwallet/internal/core/domain"
)

// StakeRequest overrides the configured stake parameters. Empty fields fall
// back to configuration.
type StakeRequest struct {
	Amount    string `json:"amount,omitempty"` // SOL
	Validator string `json:"validator,omitempty"`
	Seed      string `json:"seed,omitempty"`
	Confirm   bool   `json:"confirm,omitempty"`
}

// StakeResult describes a submitted stake transaction.
type StakeResult struct {
	Base         string               `json:"base"`
	StakeAccount string               `json:"stake_account"`
	Validator    string               `json:"validator"`
	Seed         string               `json:"seed"`
	Lamports     uint64               `json:"lamports"`
	Signature    string               `json:"signature"`
	Status       *sol.SignatureStatus `json:"status,omitempty"`
}

// StakeSOL connects the Solana wallet, builds a stake-and-delegate
// transaction and hands it to the extension.
func (a *App) StakeSOL(ctx context.Context, req StakeRequest) (*StakeResult, error) {
	amount := req.Amount
	if amount == "" {
		amount = a.cfg.Solana.StakeAmount
	}
	lamports, err := sol.ParseSOL(amount)
	if err != nil {
		return nil, err
	}

	validatorStr := req.Validator
	if validatorStr == "" {
		validatorStr = a.cfg.Solana.Validator
	}
	validator, err := solana.PublicKeyFromBase58(validatorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid validator %q: %w", validatorStr, err)
	}

	if _, err := a.ensureConnected(ctx, a.solana); err != nil {
		return nil, fmt.Errorf("solana wallet: %w", err)
	}
	base, err := a.solana.Account()
	if err != nil {
		return nil, err
	}

	tx, err := a.solBuilder.Build(ctx, sol.StakeIntent{
		Base:      base,
		Validator: validator,
		Lamports:  lamports,
		Seed:      req.Seed,
	})
	if err != nil {
		return nil, err
	}

	encoded, err := tx.Encode()
	if err != nil {
		a.solBuilder.Release(ctx, tx)
		return nil, err
	}

	sig, err := a.solana.SendTransaction(ctx, encoded)
	if err != nil {
		// A rejection from the extension means nothing was broadcast.
		var reqErr *domain.ChainRequestError
		if errors.As(err, &reqErr) {
			a.solBuilder.Release(ctx, tx)
		}
		return nil, err
	}

	result := &StakeResult{
		Base:         base.String(),
		StakeAccount: tx.StakeAccount.String(),
		Validator:    validator.String(),
		Seed:         tx.Intent.Seed,
		Lamports:     lamports,
		Signature:    sig.String(),
	}
	a.log.Info("Stake transaction submitted",
		"stake_account", result.StakeAccount,
		"signature", result.Signature,
		"sol", sol.FormatSOL(lamports),
	)

	if req.Confirm {
		status, err := a.solClient.ConfirmTransaction(ctx, sig, tx.LastValidBlockHeight, a.cfg.Solana.ConfirmInterval)
		result.Status = status
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// NearCallRequest overrides the configured function call. Empty fields fall
// back to configuration.
type NearCallRequest struct {
	Receiver string          `json:"receiver,omitempty"`
	Method   string          `json:"method,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Gas      uint64          `json:"gas,omitempty"`
	Deposit  string          `json:"deposit,omitempty"` // yoctoNEAR
}

// NearCallResult describes a submitted function call.
type NearCallResult struct {
	Signer   string          `json:"signer"`
	Receiver string          `json:"receiver"`
	Method   string          `json:"method"`
	Nonce    uint64          `json:"nonce"`
	Result   json.RawMessage `json:"result"`
}

// CallNear connects the NEAR wallet, builds a function-call transaction with
// a fresh nonce and hands it to the extension.
func (a *App) CallNear(ctx context.Context, req NearCallRequest) (*NearCallResult, error) {
	intent := near.FunctionCallIntent{
		ReceiverID: req.Receiver,
		MethodName: req.Method,
		Args:       []byte(req.Args),
		Gas:        req.Gas,
	}
	if intent.ReceiverID == "" {
		intent.ReceiverID = a.cfg.Near.Receiver
	}
	if intent.MethodName == "" {
		intent.MethodName = a.cfg.Near.Method
	}
	if intent.Gas == 0 {
		intent.Gas = a.cfg.Near.Gas
	}
	if len(intent.Args) == 0 {
		intent.Args = []byte("{}")
	}

	deposit := req.Deposit
	if deposit == "" {
		deposit = a.cfg.Near.Deposit
	}
	var err error
	if intent.Deposit, err = near.ParseDeposit(deposit); err != nil {
		return nil, err
	}

	if _, err := a.ensureConnected(ctx, a.near); err != nil {
		return nil, fmt.Errorf("near wallet: %w", err)
	}
	if intent.SignerID, intent.PublicKey, err = a.near.Signer(); err != nil {
		return nil, err
	}

	tx, err := a.nearBuilder.Build(ctx, intent)
	if err != nil {
		return nil, err
	}
	encoded, err := near.Encode(tx)
	if err != nil {
		return nil, err
	}

	raw, err := a.near.SignAndSendTransaction(ctx, encoded)
	if err != nil {
		return nil, near.ClassifySubmitError(err)
	}

	a.log.Info("Function call submitted",
		"signer", tx.SignerID,
		"receiver", tx.ReceiverID,
		"method", intent.MethodName,
		"nonce", tx.Nonce,
	)
	return &NearCallResult{
		Signer:   tx.SignerID,
		Receiver: tx.ReceiverID,
		Method:   intent.MethodName,
		Nonce:    tx.Nonce,
		Result:   raw,
	}, nil
}
