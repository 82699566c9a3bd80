package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound means no extension is installed or attached.
	// Callers should prompt the user rather than treat it as fatal.
	ErrProviderNotFound = errors.New("wallet provider not found")

	// ErrBridgeUnavailable is returned by the bridge when no extension object is present.
	ErrBridgeUnavailable = errors.New("bridge unavailable")

	// ErrMalformedResponse is returned when an extension response carries
	// neither a usable result nor an error, or both.
	ErrMalformedResponse = errors.New("malformed bridge response")

	ErrNotConnected         = errors.New("wallet not connected")
	ErrConnectAborted       = errors.New("connect aborted by disconnect")
	ErrUnsupportedOperation = errors.New("unsupported operation")

	ErrBlockHashUnavailable    = errors.New("block hash unavailable")
	ErrAccessKeyNotFound       = errors.New("access key not found")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidInstructionOrder = errors.New("invalid instruction order")

	// ErrStaleNonce is reported at submission time when the chain rejects the nonce.
	ErrStaleNonce = errors.New("stale nonce")
)

// ChainRequestError is an error envelope returned by the extension.
type ChainRequestError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ChainRequestError) Error() string {
	return fmt.Sprintf("chain request error %d: %s", e.Code, e.Message)
}

// UnsupportedOperationError names an operation this adapter does not implement.
type UnsupportedOperationError struct {
	Family    ChainFamily
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s adapter: %s is not supported", e.Family, e.Operation)
}

// Is makes errors.Is(err, ErrUnsupportedOperation) hold.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}
