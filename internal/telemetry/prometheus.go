// Package telemetry exposes the service's Prometheus metrics, adapted
// from payout-engine/shared/metrics/prometheus.go's promauto-registered
// vectors onto this domain's operation/TEE/release/chain-adapter surface.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation engine metrics
var (
	OperationProposedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operation_proposed_total",
			Help: "Total number of operations proposed",
		},
		[]string{"kind"},
	)

	OperationProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operation_processed_total",
			Help: "Total number of operations archived, by outcome",
		},
		[]string{"kind", "status"},
	)

	OperationQuorumWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "operation_quorum_wait_seconds",
			Help:    "Time from proposal to quorum being met",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
		[]string{"kind"},
	)
)

// TEE signer metrics
var (
	TEESignTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tee_sign_total",
			Help: "Total number of SignWithECDSA calls, by environment and result",
		},
		[]string{"environment", "result"},
	)

	TEEPublicKeyCacheHitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tee_public_key_cache_hit_total",
			Help: "Total number of ECDSAPublicKey calls served from cache",
		},
		[]string{"environment"},
	)
)

// Release catalogue metrics
var (
	ReleaseSealTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "release_seal_total",
			Help: "Total number of release uploads sealed",
		},
		[]string{"version"},
	)

	ReleaseChunkBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "release_chunk_bytes_total",
			Help: "Total bytes accepted across load_release chunk uploads",
		},
		[]string{"version"},
	)
)

// Chain adapter metrics
var (
	ChainSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_send_total",
			Help: "Total number of outbound chain sends, by chain family and result",
		},
		[]string{"chain", "result"},
	)

	ChainNonceCurrentValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chain_nonce_current_value",
			Help: "Current cached nonce per chain id per address",
		},
		[]string{"chain_id", "address"},
	)

	ChainNonceResetTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chain_nonce_reset_total",
			Help: "Total number of nonce cache resets",
		},
		[]string{"chain_id", "reason"},
	)
)

// System actor metrics
var (
	WalletCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_created_total",
			Help: "Total number of wallets created via create_wallet",
		},
		[]string{"result"},
	)

	WalletRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_rate_limited_total",
			Help: "Total number of create_wallet calls rejected by SYSTEM_RATE_LIMIT",
		},
		[]string{},
	)
)

// Generic service metrics
var (
	ServiceUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_up",
			Help: "Service health status (1 = up, 0 = down)",
		},
		[]string{"service"},
	)

	GRPCRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_request_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"service", "method", "status"},
	)

	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "gRPC request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"service", "query_type"},
	)
)
