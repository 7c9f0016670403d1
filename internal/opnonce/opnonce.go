// Package opnonce implements the monotonic counters shared by the
// operation engine (admission-order op ids) and the wallet account
// registry (per-environment subaccount nonces), per spec §3/§4.3. An
// in-process mutex-guarded uint64 is the right shape for these — they are
// never observed outside the owning actor, so no external sequence
// generator (Redis INCR, a DB identity column) earns its round trip here;
// see DESIGN.md.
package opnonce

import "sync"

// Counter is a single mutex-guarded monotonic uint64.
type Counter struct {
	mu    sync.Mutex
	value uint64
}

// Take returns the next value to use, starting at 0, then advances the
// counter — the shape callers that number things 0, 1, 2, … need (e.g.
// the first subaccount nonce in an environment).
func (c *Counter) Take() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.value
	c.value++
	return v
}

// Next advances and returns the new value, starting at 1 — the shape
// callers that number things 1, 2, 3, … need (e.g. operation ids, where 0
// is reserved as "no id").
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value
}

// Peek returns the current value without advancing it.
func (c *Counter) Peek() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// EnvCounters holds one Counter per wallet environment (Production,
// Staging, Development), matching subaccount.Environment's three values.
type EnvCounters struct {
	counters [3]Counter
}

// Take returns the next (0-based) subaccount nonce for environment index
// `env` and advances it.
func (e *EnvCounters) Take(env int) uint64 {
	return e.counters[env].Take()
}

// Peek returns the current value for environment index `env`.
func (e *EnvCounters) Peek(env int) uint64 {
	return e.counters[env].Peek()
}
