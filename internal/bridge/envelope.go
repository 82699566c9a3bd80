package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vietddude/dappwallet/internal/core/domain"
)

// Events pushed by the extension.
const (
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)

// Methods understood by the extension.
const (
	MethodConnect         = "dapp:connect"
	MethodAccounts        = "dapp:accounts"
	MethodSendTransaction = "dapp:sendTransaction"
)

// RequestEnvelope is one call to the extension.
type RequestEnvelope struct {
	Net    string `json:"net"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// ErrorObject is the error half of a Response.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response is the extension's answer. Exactly one of Result and Error is set.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorObject    `json:"error,omitempty"`
}

// Unwrap checks the error field first, then requires a non-null result.
func (r Response) Unwrap() (json.RawMessage, error) {
	hasResult := !isNull(r.Result)

	if r.Error != nil {
		if hasResult {
			return nil, fmt.Errorf("%w: both result and error set", domain.ErrMalformedResponse)
		}
		return nil, &domain.ChainRequestError{Code: r.Error.Code, Message: r.Error.message()}
	}
	if !hasResult {
		return nil, fmt.Errorf("%w: missing result", domain.ErrMalformedResponse)
	}
	return r.Result, nil
}

// message falls back to the nested {data: {error_message}} shape some
// extension builds return instead of a top-level message.
func (e *ErrorObject) message() string {
	if e.Message != "" || len(e.Data) == 0 {
		return e.Message
	}
	var nested struct {
		ErrorMessage string `json:"error_message"`
		ErrorType    string `json:"error_type"`
	}
	if err := json.Unmarshal(e.Data, &nested); err == nil && nested.ErrorMessage != "" {
		return nested.ErrorMessage
	}
	return string(e.Data)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
