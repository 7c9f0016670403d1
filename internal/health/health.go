// Package health runs concurrent readiness/liveness checks against the
// service's dependencies, adapted from
// payout-engine/shared/health/health.go's Checker/Check model onto this
// domain's TEE signer, chain RPC, and release catalogue dependencies.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type CheckResult struct {
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

type Response struct {
	Status    Status                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

type Check func(ctx context.Context) CheckResult

// Checker runs a named set of Checks concurrently and aggregates them
// into one overall Status.
type Checker struct {
	service   string
	version   string
	startTime time.Time
	checks    map[string]Check
	mu        sync.RWMutex
}

func NewChecker(service, version string) *Checker {
	return &Checker{
		service:   service,
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]Check),
	}
}

func (c *Checker) RegisterCheck(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes every registered check concurrently and aggregates the
// worst status observed.
func (c *Checker) Run(ctx context.Context) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make(map[string]CheckResult)
	overall := StatusHealthy
	var wg sync.WaitGroup

	type named struct {
		name   string
		result CheckResult
	}
	resultChan := make(chan named, len(c.checks))

	for name, check := range c.checks {
		wg.Add(1)
		go func(n string, ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()
			resultChan <- named{n, result}
		}(name, check)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		results[r.name] = r.result
		switch {
		case r.result.Status == StatusUnhealthy:
			overall = StatusUnhealthy
		case r.result.Status == StatusDegraded && overall != StatusUnhealthy:
			overall = StatusDegraded
		}
	}

	return Response{
		Status:    overall,
		Service:   c.service,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).String(),
		Checks:    results,
		Timestamp: time.Now(),
	}
}

func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		resp := c.Run(ctx)

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("failed to encode health response")
		}
	}
}

func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}

// DatabaseCheck probes the Postgres connection gorm holds.
func DatabaseCheck(pingFn func(ctx context.Context) error) Check {
	return func(ctx context.Context) CheckResult {
		if err := pingFn(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	}
}

// RedisCheck probes the Redis-backed chain-nonce cache.
func RedisCheck(pingFn func(ctx context.Context) error) Check {
	return func(ctx context.Context) CheckResult {
		if err := pingFn(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	}
}

// ChainCheck probes liveness of a chain RPC endpoint by fetching its
// current head block number.
func ChainCheck(chainID uint64, blockNumberFn func(ctx context.Context) (uint64, error)) Check {
	return func(ctx context.Context) CheckResult {
		blockNum, err := blockNumberFn(ctx)
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("head block: %d", blockNum)}
	}
}

// TEESignerCheck probes the TEE signer boundary by requesting a public
// key for a fixed diagnostic path; failures here mean no wallet can sign.
func TEESignerCheck(pingFn func(ctx context.Context) error) Check {
	return func(ctx context.Context) CheckResult {
		if err := pingFn(ctx); err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	}
}

// ReleaseCatalogueCheck reports degraded (not unhealthy) when no sealed,
// non-deprecated release exists yet — create_wallet would fail, but the
// rest of the system remains usable.
func ReleaseCatalogueCheck(latestFn func() error) Check {
	return func(ctx context.Context) CheckResult {
		if err := latestFn(); err != nil {
			return CheckResult{Status: StatusDegraded, Message: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	}
}
