package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SOLANA_RPC", "https://api.devnet.solana.com")

	path := writeTempConfig(t, `
solana:
  rpc:
    providers:
      - name: public
        url: ${TEST_SOLANA_RPC}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Solana.RPC.Providers, 1)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPC.Providers[0].URL)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
near:
  receiver: pool.near
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/bridge", cfg.Bridge.Path)
	assert.Equal(t, "devnet", cfg.Solana.Network)
	assert.Equal(t, "0.1", cfg.Solana.StakeAmount)
	assert.Equal(t, 24*time.Hour, cfg.Solana.SeedStore.TTL)
	assert.Equal(t, "pool.near", cfg.Near.Receiver)
	assert.Equal(t, "deposit_and_stake", cfg.Near.Method)
	assert.Equal(t, uint64(30_000_000_000_000), cfg.Near.Gas)
	assert.Equal(t, "0", cfg.Near.Deposit)
}

func TestLoad_Durations(t *testing.T) {
	path := writeTempConfig(t, `
bridge:
  request_timeout: 45s
solana:
  confirm_interval: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Bridge.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Solana.ConfirmInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
