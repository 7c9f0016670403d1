// Package config loads process configuration from the environment
// (optionally via a .env file through joho/godotenv), grounded on
// payout-engine/internal/config/config.go's getEnv-with-default idiom and
// expanded with the Postgres, Vault, and chain-adapter settings this
// service's domain stack needs.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	GRPCPort    int
	HTTPPort    int

	Database DatabaseConfig
	Redis    RedisConfig
	Vault    VaultConfig
	Chains   map[uint64]ChainConfig
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// VaultConfig addresses the HashiCorp Vault mount backing the TEE signer,
// per SPEC_FULL.md §4.8.
type VaultConfig struct {
	Address   string
	Token     string
	Namespace string
	MountPath string
	KeyPath   string
}

type ChainConfig struct {
	ChainID     uint64
	Name        string
	RPCURL      string
	ExplorerURL string
	NativeToken string
	Decimals    int
}

// Load reads process configuration, first loading a .env file if present
// (ignored if absent — production deployments set real env vars instead).
func Load() (*Config, error) {
	_ = godotenv.Load()

	grpcPort, _ := strconv.Atoi(getEnv("GRPC_PORT", "50051"))
	httpPort, _ := strconv.Atoi(getEnv("HTTP_PORT", "8080"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		GRPCPort:    grpcPort,
		HTTPPort:    httpPort,
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "postgres://localhost:5432/custody?sslmode=disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Vault: VaultConfig{
			Address:   getEnv("VAULT_ADDR", "http://127.0.0.1:8200"),
			Token:     getEnv("VAULT_TOKEN", ""),
			Namespace: getEnv("VAULT_NAMESPACE", ""),
			MountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			KeyPath:   getEnv("VAULT_KEY_PATH", "custody-engine/root-key"),
		},
		Chains: map[uint64]ChainConfig{
			1: {
				ChainID:     1,
				Name:        "Ethereum",
				RPCURL:      getEnv("ETH_RPC_URL", "https://eth.llamarpc.com"),
				ExplorerURL: "https://etherscan.io",
				NativeToken: "ETH",
				Decimals:    18,
			},
			137: {
				ChainID:     137,
				Name:        "Polygon",
				RPCURL:      getEnv("POLYGON_RPC_URL", "https://polygon-rpc.com"),
				ExplorerURL: "https://polygonscan.com",
				NativeToken: "MATIC",
				Decimals:    18,
			},
			8453: {
				ChainID:     8453,
				Name:        "Base",
				RPCURL:      getEnv("BASE_RPC_URL", "https://mainnet.base.org"),
				ExplorerURL: "https://basescan.org",
				NativeToken: "ETH",
				Decimals:    18,
			},
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
