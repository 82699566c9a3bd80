// Package control wires the bridge, adapters and builders into runnable
// flows and hosts the extension relay.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/dappwallet/internal/bridge"
	"github.com/vietddude/dappwallet/internal/chain/near"
	"github.com/vietddude/dappwallet/internal/chain/sol"
	"github.com/vietddude/dappwallet/internal/core/config"
	"github.com/vietddude/dappwallet/internal/core/domain"
	"github.com/vietddude/dappwallet/internal/health"
	redisclient "github.com/vietddude/dappwallet/internal/infra/redis"
	"github.com/vietddude/dappwallet/internal/infra/rpc"
	"github.com/vietddude/dappwallet/internal/metrics"
	"github.com/vietddude/dappwallet/internal/wallet"
)

// App owns every component of a running dappwallet host.
type App struct {
	cfg *config.AppConfig
	log *slog.Logger

	relay  *bridge.WSExtension
	ext    bridge.Extension
	bridge *bridge.Bridge

	solana *wallet.SolanaAdapter
	near   *wallet.NearAdapter

	solRPC      *rpc.Client
	nearRPC     *rpc.Client
	solClient   *sol.Client
	solBuilder  *sol.Builder
	nearBuilder *near.Builder

	redisClient *redisclient.Client
	monitor     *health.Monitor
	server      *health.Server
}

// Option customizes NewApp.
type Option func(*App)

// WithExtension replaces the websocket relay with ext.
func WithExtension(ext bridge.Extension) Option {
	return func(a *App) {
		a.ext = ext
	}
}

// NewApp builds the application from configuration.
func NewApp(cfg *config.AppConfig, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	// 1. Extension bridge
	if a.ext == nil {
		a.relay = bridge.NewWSExtension(cfg.Bridge.AllowedOrigins)
		a.ext = a.relay
	}
	a.bridge = bridge.New(a.ext)

	// 2. RPC clients
	var err error
	if a.solRPC, err = newRPCClient(string(domain.ChainFamilySolana), cfg.Solana.RPC); err != nil {
		return nil, err
	}
	if a.nearRPC, err = newRPCClient(string(domain.ChainFamilyNear), cfg.Near.RPC); err != nil {
		return nil, err
	}

	// 3. Stake seeds, reserved in Redis when configured
	var seeds sol.SeedSource = sol.NewTimestampSeeds()
	if cfg.Solana.SeedStore.Redis.URL != "" {
		a.redisClient, err = redisclient.NewClient(cfg.Solana.SeedStore.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, using unreserved seeds", "error", err)
		} else {
			seeds = sol.NewReservedSeeds(seeds, a.redisClient, cfg.Solana.SeedStore.TTL)
			slog.Info("Stake seeds reserved in Redis", "ttl", cfg.Solana.SeedStore.TTL)
		}
	}

	// 4. Builders
	a.solClient = sol.NewClient(a.solRPC)
	a.solBuilder = sol.NewBuilder(a.solClient, seeds)
	a.nearBuilder = near.NewBuilder(near.NewClient(a.nearRPC))

	// 5. Adapters
	a.solana = wallet.NewSolanaAdapter(a.bridge, cfg.Solana.Network)
	a.near = wallet.NewNearAdapter(a.bridge, cfg.Near.Network)
	a.solana.SetTransitionCallback(recordTransition)
	a.near.SetTransitionCallback(recordTransition)

	// 6. Health, metrics, relay and flow endpoints
	a.monitor = health.NewMonitor(a.bridge,
		health.Target{Adapter: a.solana, RPC: a.solRPC},
		health.Target{Adapter: a.near, RPC: a.nearRPC},
	)
	a.server = health.NewServer(a.monitor, cfg.Server.Port)
	if a.relay != nil {
		a.server.Handle(cfg.Bridge.Path, a.relay)
	}
	a.registerFlows(a.server)

	return a, nil
}

func newRPCClient(chain string, cfg config.RPCConfig) (*rpc.Client, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no RPC providers configured for %s", chain)
	}
	providers := make([]rpc.RPCProvider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, rpc.NewHTTPProvider(p.Name, p.URL, cfg.Timeout))
	}
	return rpc.NewClient(chain, providers...), nil
}

func recordTransition(family domain.ChainFamily, t wallet.Transition) {
	connected := 0.0
	if t.To == domain.StatusConnected {
		connected = 1
	}
	metrics.SessionConnected.WithLabelValues(string(family)).Set(connected)
}

// Handler returns the HTTP handler serving health, metrics, relay and flows.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Monitor returns the health monitor.
func (a *App) Monitor() *health.Monitor {
	return a.monitor
}

// Start starts the HTTP server and background metrics.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	a.log.Info("Serving extension relay", "port", a.cfg.Server.Port, "path", a.cfg.Bridge.Path)

	go a.runMetricsUpdater(ctx)
	return nil
}

// Stop disconnects the wallets and releases every resource.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping dappwallet...")

	a.solana.Disconnect()
	a.near.Disconnect()

	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			a.log.Warn("Failed to close extension relay", "error", err)
		}
	}

	if err := errors.Join(a.solRPC.Close(), a.nearRPC.Close()); err != nil {
		a.log.Warn("Failed to close RPC providers", "error", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	return a.server.Stop(ctx)
}

// WaitForExtension blocks until an extension is attached or ctx is done.
func (a *App) WaitForExtension(ctx context.Context) error {
	if a.bridge.Available() {
		return nil
	}
	a.log.Info("Waiting for wallet extension", "path", a.cfg.Bridge.Path)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrProviderNotFound, ctx.Err())
		case <-ticker.C:
			if a.bridge.Available() {
				return nil
			}
		}
	}
}

// ensureConnected connects adapter and waits for an account within the
// configured request timeout.
func (a *App) ensureConnected(ctx context.Context, adapter wallet.Adapter) (domain.WalletSession, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Bridge.RequestTimeout)
	defer cancel()

	if err := adapter.Connect(ctx); err != nil {
		return adapter.Session(), err
	}
	return adapter.WaitConnected(ctx)
}

func (a *App) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.updateMetrics()
		}
	}
}

func (a *App) updateMetrics() {
	attached := 0.0
	if a.bridge.Available() {
		attached = 1
	}
	metrics.ExtensionAttached.Set(attached)

	for chain, client := range map[string]*rpc.Client{
		string(domain.ChainFamilySolana): a.solRPC,
		string(domain.ChainFamilyNear):   a.nearRPC,
	} {
		for name, h := range client.Health() {
			available := 0.0
			if h.Available {
				available = 1
			}
			metrics.RPCProviderAvailable.WithLabelValues(chain, name).Set(available)
		}
	}
	slog.Debug("Updated extension and RPC metrics", "extension_attached", attached == 1)
}
