package sol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

func TestParseSOL(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"0.1", 100_000_000},
		{"1", LamportsPerSOL},
		{"0.000000001", 1},
		{"12.5", 12_500_000_000},
	}

	for _, tt := range tests {
		got, err := ParseSOL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseSOL_Invalid(t *testing.T) {
	for _, in := range []string{"0", "-1", "0.0000000001", "abc", "", "99999999999999999999"} {
		_, err := ParseSOL(in)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount, in)
	}
}

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "0.1", FormatSOL(100_000_000))
	assert.Equal(t, "2", FormatSOL(2*LamportsPerSOL))
}
