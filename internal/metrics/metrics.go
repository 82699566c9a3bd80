package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BridgeRequestsTotal tracks extension requests per network, method and outcome
	BridgeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_bridge_requests_total",
			Help: "Total number of requests sent to the wallet extension",
		},
		[]string{"net", "method", "outcome"},
	)

	// BridgeLatency tracks how long the extension takes to answer (includes user approval)
	BridgeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dappwallet_bridge_latency_seconds",
			Help:    "Extension request latency in seconds",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method"},
	)

	// SessionTransitionsTotal tracks adapter state changes
	SessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_session_transitions_total",
			Help: "Total number of wallet session state transitions",
		},
		[]string{"family", "status"},
	)

	// RPCCallsTotal tracks RPC calls per chain and provider
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "provider", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per chain and provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "provider", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dappwallet_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "provider", "method"},
	)

	// TransactionsBuiltTotal tracks transactions assembled per chain
	TransactionsBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_transactions_built_total",
			Help: "Total number of transactions built",
		},
		[]string{"chain"},
	)

	// TransactionsSubmittedTotal tracks handoffs to the extension per chain and outcome
	TransactionsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dappwallet_transactions_submitted_total",
			Help: "Total number of transactions submitted for signing",
		},
		[]string{"chain", "outcome"},
	)

	// ExtensionAttached is 1 while a wallet extension relay is connected
	ExtensionAttached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dappwallet_extension_attached",
			Help: "Whether a wallet extension is attached (1) or not (0)",
		},
	)

	// SessionConnected is 1 while the family's session is connected
	SessionConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dappwallet_session_connected",
			Help: "Whether the wallet session of a family is connected",
		},
		[]string{"family"},
	)

	// RPCProviderAvailable mirrors the passive health of each provider
	RPCProviderAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dappwallet_rpc_provider_available",
			Help: "Whether an RPC provider is currently considered available",
		},
		[]string{"chain", "provider"},
	)
)
