package provider

import (
	"sync"
	"time"
)

// RecoveryCooldown is how long a provider marked down stays skipped before
// it is offered traffic again.
const RecoveryCooldown = 30 * time.Second

// BaseProvider implements common provider functionality.
// It handles health tracking and basic status checks.
type BaseProvider struct {
	Name string

	mu           sync.RWMutex
	health       HealthStatus
	cooldown     time.Duration
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewBaseProvider creates a new BaseProvider.
func NewBaseProvider(name string) *BaseProvider {
	return &BaseProvider{
		Name:     name,
		cooldown: RecoveryCooldown,
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
}

// GetName returns the provider's name.
func (p *BaseProvider) GetName() string {
	return p.Name
}

// SetCooldown overrides RecoveryCooldown.
func (p *BaseProvider) SetCooldown(d time.Duration) {
	p.mu.Lock()
	p.cooldown = d
	p.mu.Unlock()
}

// GetHealth returns the provider's health status.
func (p *BaseProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h := p.health
	h.Available = p.availableLocked()
	return h
}

// IsAvailable checks if the provider is available. A provider marked down
// becomes available again once the cooldown since its last failure passes.
func (p *BaseProvider) IsAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.availableLocked()
}

func (p *BaseProvider) availableLocked() bool {
	return p.health.Available || time.Since(p.health.LastFailureAt) >= p.cooldown
}

func (p *BaseProvider) RecordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.requestCount++
	p.totalLatency += latency
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true

	p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)
	p.health.Latency = p.totalLatency / time.Duration(p.successCount)
}

func (p *BaseProvider) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.requestCount++
	p.health.LastFailureAt = time.Now()
	p.health.ErrorRate = float64(p.failureCount) / float64(p.requestCount)

	// need a few samples before marking a provider down
	if p.requestCount >= 4 && p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}
