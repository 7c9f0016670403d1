// Package roles implements the Role/User model and the admin/canister/signer
// gates described in spec §4.4, grounded on the allowance/threshold
// concepts in original_source/backend/b3_user_lib/allowance.rs.
package roles

import (
	"time"

	"github.com/protocol-bank/custody-engine/internal/principal"
)

// AccessKind tags a Role's access level.
type AccessKind int

const (
	Full AccessKind = iota
	ReadOnly
	Limited
)

// LimitedEntry grants a role permission to a single operation kind, valid
// until an optional deadline.
type LimitedEntry struct {
	OperationKind string
	ValidUntil    *time.Time
}

// Access describes what a Role may do.
type Access struct {
	Kind    AccessKind
	Limited []LimitedEntry // meaningful only when Kind == Limited
}

// Covers reports whether this access level permits the named mutating
// operation kind at time now.
func (a Access) Covers(operationKind string, mutating bool, now time.Time) bool {
	switch a.Kind {
	case Full:
		return true
	case ReadOnly:
		return !mutating
	case Limited:
		for _, e := range a.Limited {
			if e.OperationKind != operationKind {
				continue
			}
			if e.ValidUntil == nil || now.Before(*e.ValidUntil) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Role names a reusable access policy.
type Role struct {
	Name   string
	Access Access
}

// Class distinguishes the three principal classes the engine recognises.
type Class int

const (
	ClassUser Class = iota
	ClassAdmin
	ClassCanister
)

// User is a registered caller of a wallet.
type User struct {
	Principal principal.Principal
	Role      Role
	Class     Class
	Name      string
	Metadata  map[string]string
	ExpiresAt *time.Time
	// Threshold models the original source's Roles::Threshold variant as a
	// per-user override: if set, Threshold distinct Confirms from users of
	// this Role satisfy quorum instead of requiring every registered user
	// of the role to confirm. See DESIGN.md's Open Question resolution.
	Threshold *uint8
}

// Expired reports whether this user's registration has lapsed.
func (u User) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && !now.Before(*u.ExpiresAt)
}

// Registry is the wallet's map of known users, keyed by principal text.
type Registry struct {
	byPrincipal map[string]*User
	order       []string
}

func NewRegistry() *Registry {
	return &Registry{byPrincipal: make(map[string]*User)}
}

func (r *Registry) Put(u User) {
	key := u.Principal.String()
	if _, exists := r.byPrincipal[key]; !exists {
		r.order = append(r.order, key)
	}
	cp := u
	r.byPrincipal[key] = &cp
}

func (r *Registry) Get(p principal.Principal) (*User, bool) {
	u, ok := r.byPrincipal[p.String()]
	return u, ok
}

func (r *Registry) Remove(p principal.Principal) {
	key := p.String()
	delete(r.byPrincipal, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// AllWithRole returns every registered, non-expired user holding roleName,
// in registration order.
func (r *Registry) AllWithRole(roleName string, now time.Time) []*User {
	var out []*User
	for _, k := range r.order {
		u := r.byPrincipal[k]
		if u.Role.Name == roleName && !u.Expired(now) {
			out = append(out, u)
		}
	}
	return out
}

// CallerIsAdmin gates admin-only operations.
func CallerIsAdmin(u *User) bool {
	return u != nil && u.Class == ClassAdmin
}

// CallerIsCanisterOrAdmin gates self-upgrade style operations, where the
// caller may be the wallet's own canister identity or an admin.
func CallerIsCanisterOrAdmin(u *User) bool {
	return u != nil && (u.Class == ClassCanister || u.Class == ClassAdmin)
}

// CallerIsSigner gates propose/confirm/reject: any registered, non-expired
// user may act as a signer.
func CallerIsSigner(u *User, now time.Time) bool {
	return u != nil && !u.Expired(now)
}
