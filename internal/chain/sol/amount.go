package sol

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

var maxLamports = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ParseSOL converts a decimal SOL amount such as "0.1" to lamports.
func ParseSOL(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", domain.ErrInvalidAmount, amount, err)
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %s SOL must be positive", domain.ErrInvalidAmount, amount)
	}

	lamports := d.Shift(9)
	if !lamports.IsInteger() {
		return 0, fmt.Errorf("%w: %s SOL is finer than one lamport", domain.ErrInvalidAmount, amount)
	}
	if lamports.GreaterThan(maxLamports) {
		return 0, fmt.Errorf("%w: %s SOL overflows u64 lamports", domain.ErrInvalidAmount, amount)
	}
	return lamports.BigInt().Uint64(), nil
}

// FormatSOL renders lamports as a decimal SOL string.
func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}
