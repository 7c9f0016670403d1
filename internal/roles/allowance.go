package roles

import (
	"time"

	"github.com/protocol-bank/custody-engine/internal/principal"
)

// Allowance grants a non-user caller (another wallet's principal, acting as
// an inner-canister caller in the original source's terms) a budgeted call
// permission, separate from the human Role/User model above. Grounded on
// original_source/backend/b3_user_lib/allowance.rs.
type Allowance struct {
	Metadata  map[string]string
	Limit     *uint8
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// NewAllowance builds an Allowance with Limit and ExpiresAt taken from the
// caller's request and CreatedAt/UpdatedAt stamped to now.
func NewAllowance(metadata map[string]string, limit *uint8, expiresAt *time.Time, now time.Time) Allowance {
	return Allowance{
		Metadata:  metadata,
		Limit:     limit,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
}

// Update replaces metadata and expiry in place, the Go counterpart of the
// original's Allowance::update (which leaves Limit untouched).
func (a *Allowance) Update(metadata map[string]string, expiresAt *time.Time, now time.Time) {
	a.Metadata = metadata
	a.UpdatedAt = now
	a.ExpiresAt = expiresAt
}

// DecreaseLimit consumes one unit of a limited allowance, returning the
// remaining limit. Returns nil, false for an unlimited allowance (Limit ==
// nil); callers should not charge against those.
func (a *Allowance) DecreaseLimit() (*uint8, bool) {
	if a.Limit == nil {
		return nil, false
	}
	remaining := *a.Limit - 1
	a.Limit = &remaining
	return a.Limit, true
}

// Expired reports whether this allowance's deadline has passed.
func (a Allowance) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Allowed reports whether this allowance currently permits a call: not
// expired, and (if limited) not yet exhausted.
func (a Allowance) Allowed(now time.Time) bool {
	if a.Expired(now) {
		return false
	}
	if a.Limit != nil && *a.Limit == 0 {
		return false
	}
	return true
}

// AllowanceRegistry tracks per-caller Allowances, keyed by the caller's
// principal text, separately from the human Registry above.
type AllowanceRegistry struct {
	byPrincipal map[string]*Allowance
}

func NewAllowanceRegistry() *AllowanceRegistry {
	return &AllowanceRegistry{byPrincipal: make(map[string]*Allowance)}
}

func (r *AllowanceRegistry) Set(caller principal.Principal, a Allowance) {
	cp := a
	r.byPrincipal[caller.String()] = &cp
}

func (r *AllowanceRegistry) Get(caller principal.Principal) (*Allowance, bool) {
	a, ok := r.byPrincipal[caller.String()]
	return a, ok
}

func (r *AllowanceRegistry) Remove(caller principal.Principal) {
	delete(r.byPrincipal, caller.String())
}
