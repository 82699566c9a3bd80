package wallet

import (
	"time"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

// Transition represents a session state change with metadata.
type Transition struct {
	From      domain.ConnectionStatus
	To        domain.ConnectionStatus
	Reason    string
	Timestamp time.Time
}

// NewTransition creates a new transition record.
func NewTransition(from, to domain.ConnectionStatus, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return domain.CanTransition(t.From, t.To)
}

// StatusDescription returns a human-readable description of a status.
func StatusDescription(s domain.ConnectionStatus) string {
	switch s {
	case domain.StatusDisconnected:
		return "No extension session; connect to start"
	case domain.StatusConnecting:
		return "Subscribed to the extension, waiting for an account"
	case domain.StatusConnected:
		return "Account available for signing requests"
	default:
		return "Unknown status"
	}
}
