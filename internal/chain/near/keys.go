package near

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// KeyTypeED25519 is the Borsh tag of an ed25519 public key.
const KeyTypeED25519 uint8 = 0

const ed25519Prefix = "ed25519:"

// PublicKey is an ed25519 NEAR public key.
type PublicKey [32]byte

// ParsePublicKey accepts "ed25519:<base58>" or bare base58.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey

	encoded := s
	if curve, rest, found := strings.Cut(s, ":"); found {
		if curve != "ed25519" {
			return pk, fmt.Errorf("unsupported key curve %q", curve)
		}
		encoded = rest
	}

	raw := base58.Decode(encoded)
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("invalid public key %q: decoded %d bytes, want %d", s, len(raw), len(pk))
	}
	copy(pk[:], raw)
	return pk, nil
}

// String returns the "ed25519:<base58>" form used by RPC paths.
func (pk PublicKey) String() string {
	return ed25519Prefix + base58.Encode(pk[:])
}

// DecodeBlockHash decodes a base58 block hash into its 32 raw bytes.
func DecodeBlockHash(s string) ([32]byte, error) {
	var hash [32]byte
	raw := base58.Decode(s)
	if len(raw) != len(hash) {
		return hash, fmt.Errorf("invalid block hash %q: decoded %d bytes", s, len(raw))
	}
	copy(hash[:], raw)
	return hash, nil
}
