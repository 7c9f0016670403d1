// Command server wires config, storage, the TEE signer, chain adapters,
// the system actor, and the gRPC/HTTP transports into one running
// process, grounded on payout-engine/cmd/main.go's init-then-serve shape.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/protocol-bank/custody-engine/internal/audit"
	"github.com/protocol-bank/custody-engine/internal/chainadapter"
	"github.com/protocol-bank/custody-engine/internal/chainnonce"
	"github.com/protocol-bank/custody-engine/internal/config"
	"github.com/protocol-bank/custody-engine/internal/health"
	"github.com/protocol-bank/custody-engine/internal/httpapi"
	"github.com/protocol-bank/custody-engine/internal/release"
	"github.com/protocol-bank/custody-engine/internal/rpcfacade"
	"github.com/protocol-bank/custody-engine/internal/store"
	"github.com/protocol-bank/custody-engine/internal/system"
	"github.com/protocol-bank/custody-engine/internal/tee"
	"github.com/protocol-bank/custody-engine/internal/telemetry"
	"github.com/protocol-bank/custody-engine/internal/walletacct"
	"github.com/protocol-bank/custody-engine/internal/walletactor"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Info().Str("env", cfg.Environment).Msg("starting custody engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}

	auditSink, err := store.NewAuditSink(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open audit sink")
	}
	defer auditSink.Close()
	auditLogger := audit.NewLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))).WithSink(auditSink)

	signer, err := buildSigner(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build TEE signer")
	}

	nonces, err := chainnonce.NewManager(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start chain nonce manager")
	}
	for chainID, chain := range cfg.Chains {
		client, err := ethclient.DialContext(ctx, chain.RPCURL)
		if err != nil {
			log.Warn().Err(err).Uint64("chain_id", chainID).Msg("failed to dial chain rpc, skipping")
			continue
		}
		nonces.AddChainClient(chainID, client)
	}

	catalogue := release.NewCatalogue()
	selfPrincipal := "system-actor"

	registry := walletactor.NewRegistry(func(accounts *walletacct.Registry) (*chainadapter.EVMAdapter, *chainadapter.BTCAdapter, *chainadapter.LedgerAdapter) {
		evm, err := chainadapter.NewEVMAdapter(nonces, signer, accounts)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build evm adapter")
		}
		for chainID, chain := range cfg.Chains {
			client, err := ethclient.DialContext(ctx, chain.RPCURL)
			if err != nil {
				continue
			}
			evm.AddChainClient(chainID, client)
		}
		btc := chainadapter.NewBTCAdapter(
			chainadapter.UnconfiguredBitcoinBackend{},
			chainadapter.UnconfiguredBitcoinBackend{},
			signer,
			accounts,
		)
		ledger := chainadapter.NewLedgerAdapter(chainadapter.UnconfiguredLedgerClient{}, func(accountID string) (string, error) {
			acct, err := accounts.Get(accountID)
			if err != nil {
				return "", err
			}
			return acct.ID, nil
		})
		return evm, btc, ledger
	})
	registry.WithAudit(auditLogger)

	sys := system.New(selfPrincipal, catalogue, registry).WithAudit(auditLogger)

	telemetry.ServiceUp.WithLabelValues("custody-engine").Set(1)

	grpcSrv := rpcfacade.NewServer(os.Getenv("API_SECRET"), "custody-engine")
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind grpc listener")
	}
	go func() {
		log.Info().Int("port", cfg.GRPCPort).Msg("grpc server listening")
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	checker := health.NewChecker("custody-engine", "dev")
	checker.RegisterCheck("database", health.DatabaseCheck(func(ctx context.Context) error {
		sqlDB, err := db.DB().DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}))
	checker.RegisterCheck("releases", health.ReleaseCatalogueCheck(func() error {
		_, err := sys.LatestRelease()
		return err
	}))

	router := httpapi.NewRouter(registry.Lookup)
	router.GET("/healthz", gin.WrapF(checker.HTTPHandler()))
	router.GET("/livez", gin.WrapF(checker.LivenessHandler()))
	router.GET("/readyz", gin.WrapF(checker.ReadinessHandler()))

	systemRouter := httpapi.NewSystemRouter(sys, registry.ControllerFor)
	router.Any("/system/*any", gin.WrapH(systemRouter))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	grpcSrv.GracefulStop()
	cancel()
	log.Info().Msg("custody engine stopped")
}

// buildSigner selects the TEE signer implementation: Vault-backed when a
// token is configured, otherwise an in-memory signer for local/dev runs.
func buildSigner(cfg *config.Config) (tee.Signer, error) {
	if cfg.Vault.Token == "" {
		log.Warn().Msg("VAULT_TOKEN not set, using in-memory signer (dev only)")
		return tee.NewMemorySigner(), nil
	}
	return tee.NewVaultSigner(tee.VaultConfig{
		Address:   cfg.Vault.Address,
		Token:     cfg.Vault.Token,
		Namespace: cfg.Vault.Namespace,
		MountPath: cfg.Vault.MountPath,
		KeyPath:   cfg.Vault.KeyPath,
	})
}
