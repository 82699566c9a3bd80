package domain

import "strings"

// ChainFamily identifies a chain ecosystem managed by the extension.
type ChainFamily string

const (
	ChainFamilySolana ChainFamily = "solana"
	ChainFamilyNear   ChainFamily = "near"
)

// Network names as reported by the extension.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkDevnet  = "devnet"
)

// KnownFamilies lists the families this module has adapters for.
var KnownFamilies = map[ChainFamily]struct{}{
	ChainFamilySolana: {},
	ChainFamilyNear:   {},
}

// ChainTag formats a "<family>:<network>" identifier.
func ChainTag(family ChainFamily, network string) string {
	return string(family) + ":" + network
}

// ParseChainTag splits a "<family>:<network>" identifier.
// ok is false when the tag has no colon or an empty family.
func ParseChainTag(tag string) (family ChainFamily, network string, ok bool) {
	f, n, found := strings.Cut(tag, ":")
	if !found || f == "" {
		return "", "", false
	}
	return ChainFamily(f), n, true
}

// NetworkAccount is the per-family entry pushed by the extension.
type NetworkAccount struct {
	Net     string `json:"net,omitempty"`
	Address string `json:"address"`
	PubKey  string `json:"pubKey"`
}
