// Package health reports wallet session and RPC provider status.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// ProviderHealth is the passive health of one RPC provider.
type ProviderHealth struct {
	Name      string  `json:"name"`
	Available bool    `json:"available"`
	ErrorRate float64 `json:"error_rate"`
	LatencyMS int64   `json:"latency_ms"`
}

// FamilyHealth contains the status of one chain family.
type FamilyHealth struct {
	Family            string           `json:"family"`
	Status            SystemStatus     `json:"status"`
	Session           string           `json:"session"`
	Network           string           `json:"network,omitempty"`
	Account           string           `json:"account,omitempty"`
	ExtensionAttached bool             `json:"extension_attached"`
	Providers         []ProviderHealth `json:"providers"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus            `json:"system_status"`
	Families     map[string]FamilyHealth `json:"families"`
}

// Aggregate returns the worst status in report.
func Aggregate(report map[string]FamilyHealth) SystemStatus {
	status := StatusHealthy
	for _, family := range report {
		if family.Status == StatusCritical {
			return StatusCritical
		}
		if family.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}
