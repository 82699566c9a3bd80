package health

import (
	"context"
	"sort"

	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/infra/rpc"
)

// SessionSource exposes an adapter's session snapshot.
type SessionSource interface {
	Family() domain.ChainFamily
	Session() domain.WalletSession
}

// ProviderSource exposes per-provider RPC health.
type ProviderSource interface {
	Health() map[string]rpc.HealthStatus
}

// Availability reports whether an extension is attached.
type Availability interface {
	Available() bool
}

// Target pairs an adapter with the RPC client of its chain.
type Target struct {
	Adapter SessionSource
	RPC     ProviderSource
}

// Monitor aggregates health status from adapters and RPC clients.
type Monitor struct {
	bridge  Availability
	targets []Target
}

// NewMonitor creates a new health monitor.
func NewMonitor(bridge Availability, targets ...Target) *Monitor {
	return &Monitor{bridge: bridge, targets: targets}
}

// CheckHealth builds a report from in-memory state; it makes no RPC calls.
func (m *Monitor) CheckHealth(_ context.Context) map[string]FamilyHealth {
	attached := m.bridge != nil && m.bridge.Available()
	report := make(map[string]FamilyHealth, len(m.targets))

	for _, t := range m.targets {
		session := t.Adapter.Session()
		health := FamilyHealth{
			Family:            string(t.Adapter.Family()),
			Status:            StatusHealthy,
			Session:           string(session.Status),
			Network:           session.ChainID,
			Account:           session.AccountAddress,
			ExtensionAttached: attached,
		}

		if t.RPC != nil {
			health.Providers = providerHealth(t.RPC.Health())
		}

		available := 0
		for _, p := range health.Providers {
			if p.Available {
				available++
			}
		}

		switch {
		case len(health.Providers) > 0 && available == 0:
			health.Status = StatusCritical
		case !attached || available < len(health.Providers):
			health.Status = StatusDegraded
		}

		report[health.Family] = health
	}

	return report
}

// Report wraps CheckHealth with the aggregated status.
func (m *Monitor) Report(ctx context.Context) HealthReport {
	families := m.CheckHealth(ctx)
	return HealthReport{SystemStatus: Aggregate(families), Families: families}
}

func providerHealth(statuses map[string]rpc.HealthStatus) []ProviderHealth {
	out := make([]ProviderHealth, 0, len(statuses))
	for name, s := range statuses {
		out = append(out, ProviderHealth{
			Name:      name,
			Available: s.Available,
			ErrorRate: s.ErrorRate,
			LatencyMS: s.Latency.Milliseconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
