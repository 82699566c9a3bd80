package control

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vietddude/dappwallet/internal/chain/sol"
	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/health"
)

type errorBody struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func (a *App) registerFlows(s *health.Server) {
	s.Handle("POST /flows/stake", http.HandlerFunc(a.handleStake))
	s.Handle("POST /flows/near-call", http.HandlerFunc(a.handleNearCall))
}

func (a *App) handleStake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := a.StakeSOL(r.Context(), req)
	if err != nil {
		a.log.Warn("Stake flow failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *App) handleNearCall(w http.ResponseWriter, r *http.Request) {
	var req NearCallRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := a.CallNear(r.Context(), req)
	if err != nil {
		a.log.Warn("NEAR call flow failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var reqErr *domain.ChainRequestError
	switch {
	case errors.As(err, &reqErr):
		body.Code = reqErr.Code
		status = http.StatusBadGateway
		if errors.Is(err, domain.ErrStaleNonce) {
			status = http.StatusConflict
		}
	case errors.Is(err, domain.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProviderNotFound),
		errors.Is(err, domain.ErrBridgeUnavailable),
		errors.Is(err, domain.ErrNotConnected),
		errors.Is(err, domain.ErrConnectAborted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrBlockHashUnavailable),
		errors.Is(err, domain.ErrAccessKeyNotFound),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, sol.ErrTransactionFailed):
		status = http.StatusBadGateway
	case errors.Is(err, sol.ErrBlockHeightExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, body)
}
