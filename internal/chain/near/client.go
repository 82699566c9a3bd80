package near

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/infra/rpc"
)

// AccessKey is the part of a view_access_key response the builder needs.
type AccessKey struct {
	Nonce       uint64          `json:"nonce"`
	BlockHash   string          `json:"block_hash"`
	BlockHeight uint64          `json:"block_height"`
	Permission  json.RawMessage `json:"permission"`
}

// Client queries a NEAR JSON-RPC endpoint through the shared rpc layer.
type Client struct {
	rpc rpc.RPCClient
}

// NewClient creates a NEAR client over c.
func NewClient(c rpc.RPCClient) *Client {
	return &Client{rpc: c}
}

// AccessKey fetches the current access key of (account, key) at final
// finality.
func (c *Client) AccessKey(ctx context.Context, account string, key PublicKey) (*AccessKey, error) {
	path := fmt.Sprintf("access_key/%s/%s", account, key)

	raw, err := c.rpc.Call(ctx, "query", map[string]any{
		"request_type": "view_access_key",
		"finality":     "final",
		"account_id":   account,
		"public_key":   key.String(),
	})
	if err != nil {
		if isUnknownAccessKey(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccessKeyNotFound, path)
		}
		return nil, err
	}

	// Older nodes answer a missing key with a result carrying "error".
	var res struct {
		AccessKey
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode access key: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccessKeyNotFound, res.Error)
	}
	if res.BlockHash == "" {
		return nil, fmt.Errorf("access key response for %s has no block hash", path)
	}
	return &res.AccessKey, nil
}

func isUnknownAccessKey(err error) bool {
	var rpcErr *rpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	if rpcErr.Cause != nil && rpcErr.Cause.Name == "UNKNOWN_ACCESS_KEY" {
		return true
	}
	return strings.Contains(rpcErr.Message, "does not exist") || strings.Contains(string(rpcErr.Data), "does not exist")
}

// NodeStatus is the part of the status response used for reachability checks.
type NodeStatus struct {
	ChainID  string `json:"chain_id"`
	SyncInfo struct {
		LatestBlockHeight uint64 `json:"latest_block_height"`
		Syncing           bool   `json:"syncing"`
	} `json:"sync_info"`
}

// Status returns the node's chain id and head height.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	raw, err := c.rpc.Call(ctx, "status", []any{})
	if err != nil {
		return nil, err
	}
	var status NodeStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}
