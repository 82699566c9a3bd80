package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChainTag(t *testing.T) {
	tests := []struct {
		tag     string
		family  ChainFamily
		network string
		ok      bool
	}{
		{"solana:devnet", ChainFamilySolana, "devnet", true},
		{"near:mainnet", ChainFamilyNear, "mainnet", true},
		{"ethereum:0x1", ChainFamily("ethereum"), "0x1", true},
		{"solana", "", "", false},
		{":devnet", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		family, network, ok := ParseChainTag(tt.tag)
		assert.Equal(t, tt.ok, ok, tt.tag)
		assert.Equal(t, tt.family, family, tt.tag)
		assert.Equal(t, tt.network, network, tt.tag)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDisconnected, StatusConnecting))
	assert.True(t, CanTransition(StatusConnecting, StatusConnected))
	assert.True(t, CanTransition(StatusConnecting, StatusDisconnected))
	assert.True(t, CanTransition(StatusConnected, StatusDisconnected))

	assert.False(t, CanTransition(StatusDisconnected, StatusConnected))
	assert.False(t, CanTransition(StatusConnected, StatusConnecting))
}

func TestUnsupportedOperationError_Is(t *testing.T) {
	err := fmt.Errorf("probe: %w", &UnsupportedOperationError{Family: ChainFamilySolana, Operation: "signMessage"})
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
	assert.False(t, errors.Is(err, ErrNotConnected))
}

func TestWalletSession_Clone(t *testing.T) {
	s := WalletSession{Family: ChainFamilyNear, ChainID: "testnet", PublicKey: []byte{1, 2, 3}}
	c := s.Clone()
	c.PublicKey[0] = 9

	assert.Equal(t, byte(1), s.PublicKey[0])
	assert.Equal(t, "near:testnet", s.NetTag())
}
