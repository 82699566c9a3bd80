package domain

import "time"

// ConnectionStatus is the wallet session state.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

// ValidTransitions defines allowed session transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[ConnectionStatus][]ConnectionStatus{
	StatusDisconnected: {StatusConnecting},
	StatusConnecting:   {StatusConnected, StatusDisconnected},
	StatusConnected:    {StatusDisconnected},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to ConnectionStatus) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// WalletSession is the connection snapshot owned by a single adapter.
type WalletSession struct {
	Family         ChainFamily
	ChainID        string // network name, e.g. "devnet"
	AccountAddress string
	PublicKey      []byte
	Status         ConnectionStatus
	UpdatedAt      time.Time
}

// NetTag returns the "<family>:<network>" tag of the session.
func (s WalletSession) NetTag() string {
	return ChainTag(s.Family, s.ChainID)
}

// Clone returns a copy that does not alias the key bytes.
func (s WalletSession) Clone() WalletSession {
	out := s
	if s.PublicKey != nil {
		out.PublicKey = append([]byte(nil), s.PublicKey...)
	}
	return out
}
