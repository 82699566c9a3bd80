package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/infra/rpc"
)

type stubSession struct {
	session domain.WalletSession
}

func (s *stubSession) Family() domain.ChainFamily    { return s.session.Family }
func (s *stubSession) Session() domain.WalletSession { return s.session }

type stubProviders map[string]rpc.HealthStatus

func (s stubProviders) Health() map[string]rpc.HealthStatus { return s }

type stubBridge bool

func (b stubBridge) Available() bool { return bool(b) }

func solanaTarget(providers stubProviders) Target {
	return Target{
		Adapter: &stubSession{session: domain.WalletSession{
			Family:         domain.ChainFamilySolana,
			ChainID:        "devnet",
			AccountAddress: "base",
			Status:         domain.StatusConnected,
		}},
		RPC: providers,
	}
}

func TestMonitor_Healthy(t *testing.T) {
	m := NewMonitor(stubBridge(true), solanaTarget(stubProviders{
		"public": {Available: true},
	}))

	report := m.CheckHealth(context.Background())
	health := report["solana"]

	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "connected", health.Session)
	assert.Equal(t, "devnet", health.Network)
	assert.True(t, health.ExtensionAttached)
}

func TestMonitor_DegradedWithoutExtension(t *testing.T) {
	m := NewMonitor(stubBridge(false), solanaTarget(stubProviders{
		"public": {Available: true},
	}))

	assert.Equal(t, StatusDegraded, m.CheckHealth(context.Background())["solana"].Status)
}

func TestMonitor_DegradedWhenOneProviderDown(t *testing.T) {
	m := NewMonitor(stubBridge(true), solanaTarget(stubProviders{
		"a": {Available: true},
		"b": {Available: false, ErrorRate: 0.75},
	}))

	health := m.CheckHealth(context.Background())["solana"]
	assert.Equal(t, StatusDegraded, health.Status)
	require.Len(t, health.Providers, 2)
	assert.Equal(t, "a", health.Providers[0].Name)
	assert.Equal(t, 0.75, health.Providers[1].ErrorRate)
}

func TestMonitor_CriticalWhenAllProvidersDown(t *testing.T) {
	m := NewMonitor(stubBridge(true), solanaTarget(stubProviders{
		"a": {Available: false},
	}))

	assert.Equal(t, StatusCritical, m.CheckHealth(context.Background())["solana"].Status)
}

func TestAggregate_WorstWins(t *testing.T) {
	assert.Equal(t, StatusHealthy, Aggregate(nil))
	assert.Equal(t, StatusDegraded, Aggregate(map[string]FamilyHealth{
		"a": {Status: StatusHealthy},
		"b": {Status: StatusDegraded},
	}))
	assert.Equal(t, StatusCritical, Aggregate(map[string]FamilyHealth{
		"a": {Status: StatusDegraded},
		"b": {Status: StatusCritical},
	}))
}

func TestServer_Endpoints(t *testing.T) {
	m := NewMonitor(stubBridge(true), solanaTarget(stubProviders{"a": {Available: false}}))
	srv := httptest.NewServer(NewServer(m, 0).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/detailed")
	require.NoError(t, err)
	defer resp.Body.Close()

	var report HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, StatusCritical, report.SystemStatus)
	assert.Contains(t, report.Families, "solana")

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}
