package operation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/protocol-bank/custody-engine/internal/opnonce"
	"github.com/protocol-bank/custody-engine/internal/principal"
	"github.com/protocol-bank/custody-engine/internal/roles"
	"github.com/protocol-bank/custody-engine/internal/walleterr"
)

// mustParsePrincipalText parses a principal's textual form. Callers above
// this engine are expected to supply only well-formed principal text
// (validated at the transport boundary); a parse failure here simply fails
// the subsequent registry lookup rather than panicking.
func mustParsePrincipalText(s string) principal.Principal {
	p, err := principal.Parse(s)
	if err != nil {
		return principal.Principal{}
	}
	return p
}

// Engine owns the pending/processed maps and the op-id nonce for a single
// wallet actor. It is the "owned state root" the Go Design Notes require in
// place of the source's thread-local RefCell<State>: callers hold an
// *Engine and pass it explicitly, never through a package-level singleton.
type Engine struct {
	mu        sync.Mutex
	nonce     opnonce.Counter
	pending   map[uint64]*PendingOperation
	processed map[uint64]*ProcessedOperation
	order     []uint64 // pending, insertion order, for get_pending enumeration
	users     *roles.Registry
	now       func() time.Time
}

func NewEngine(users *roles.Registry) *Engine {
	return &Engine{
		pending:   make(map[uint64]*PendingOperation),
		processed: make(map[uint64]*ProcessedOperation),
		users:     users,
		now:       time.Now,
	}
}

// Propose admits an operation. Validation failures are returned
// synchronously and never enter the pending map, per spec §4.3/§7.
func (e *Engine) Propose(ctx context.Context, env *Env, proposerText string, op Operation, deadline *time.Time) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	user, ok := e.users.Get(mustParsePrincipalText(proposerText))
	if !ok {
		return 0, &ValidationError{Err: walleterr.ErrUserNotFound}
	}
	if !roles.CallerIsSigner(user, now) {
		return 0, &ValidationError{Err: walleterr.ErrNotAuthorized}
	}
	if !user.Role.Access.Covers(string(op.Kind()), IsMutating(op.Kind()), now) {
		return 0, &ValidationError{Err: walleterr.ErrNotAuthorized}
	}

	if err := op.Validate(ctx, env); err != nil {
		return 0, &ValidationError{Err: err}
	}

	dl := now.Add(DefaultDeadline)
	if deadline != nil {
		if !deadline.After(now) {
			return 0, validationErrorf("deadline must be in the future")
		}
		dl = *deadline
	}

	id := e.nonce.Next()
	e.pending[id] = &PendingOperation{
		ID:          id,
		Proposer:    proposerText,
		AllowedRole: user.Role.Name,
		Deadline:    dl,
		CreatedAt:   now,
		Op:          op,
		Responses:   make(map[string]Response),
	}
	e.order = append(e.order, id)
	return id, nil
}

// Confirm records a Confirm vote, executing and archiving the operation
// once quorum is reached.
func (e *Engine) Confirm(ctx context.Context, env *Env, id uint64, callerText string) (*ProcessedOperation, error) {
	return e.respond(ctx, env, id, callerText, Confirm)
}

// Reject records a Reject vote, immediately archiving the operation as
// Fail{Rejected}.
func (e *Engine) Reject(ctx context.Context, env *Env, id uint64, callerText string) (*ProcessedOperation, error) {
	return e.respond(ctx, env, id, callerText, Reject)
}

func (e *Engine) respond(ctx context.Context, env *Env, id uint64, callerText string, resp Response) (*ProcessedOperation, error) {
	e.mu.Lock()

	if _, ok := e.processed[id]; ok {
		e.mu.Unlock()
		return nil, walleterr.ErrAlreadyProcessed
	}

	pend, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return nil, walleterr.ErrRequestNotFound
	}

	now := e.now()
	if now.After(pend.Deadline) {
		e.removeFromOrder(id)
		delete(e.pending, id)
		proc := &ProcessedOperation{Pending: *pend, Status: StatusFail, Error: "Expired", Timestamp: now}
		e.processed[id] = proc
		e.mu.Unlock()
		return proc, nil
	}

	caller, ok := e.users.Get(mustParsePrincipalText(callerText))
	if !ok || !roles.CallerIsSigner(caller, now) || caller.Role.Name != pend.AllowedRole {
		e.mu.Unlock()
		return nil, walleterr.ErrNotAuthorized
	}

	pend.Responses[callerText] = resp

	if resp == Reject {
		e.removeFromOrder(id)
		delete(e.pending, id)
		proc := &ProcessedOperation{Pending: *pend, Status: StatusFail, Error: fmt.Sprintf("Rejected(%s)", callerText), Timestamp: now}
		e.processed[id] = proc
		e.mu.Unlock()
		return proc, nil
	}

	if !e.quorumMet(pend, now) {
		e.mu.Unlock()
		return nil, nil
	}

	// Quorum reached: remove from pending before any outbound call so a
	// reentrant confirm on the same id cannot observe or re-execute it.
	e.removeFromOrder(id)
	delete(e.pending, id)
	held := *pend
	e.mu.Unlock()

	result, execErr := held.Op.Execute(ctx, env)

	e.mu.Lock()
	proc := &ProcessedOperation{Pending: held, Timestamp: e.now()}
	if execErr != nil {
		proc.Status = StatusFail
		proc.Error = execErr.Error()
	} else {
		proc.Status = StatusSuccess
		proc.Result = &result
	}
	e.processed[id] = proc
	e.mu.Unlock()

	return proc, nil
}

// quorumMet implements spec §4.3's approval math: every currently
// registered, non-expired user of allowed_role must have Confirmed, unless
// some user of that role carries a Threshold override, in which case that
// many distinct Confirms suffice.
func (e *Engine) quorumMet(pend *PendingOperation, now time.Time) bool {
	roleUsers := e.users.AllWithRole(pend.AllowedRole, now)
	if len(roleUsers) == 0 {
		return false
	}

	confirms := 0
	for _, u := range roleUsers {
		if pend.Responses[u.Principal.String()] == Confirm {
			confirms++
		}
	}

	var threshold *uint8
	for _, u := range roleUsers {
		if u.Threshold != nil {
			threshold = u.Threshold
			break
		}
	}
	if threshold != nil {
		return confirms >= int(*threshold)
	}
	return confirms == len(roleUsers)
}

func (e *Engine) removeFromOrder(id uint64) {
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// GetPending returns pending operations in admission order, lazily
// expiring any whose deadline has passed.
func (e *Engine) GetPending() []*PendingOperation {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	out := make([]*PendingOperation, 0, len(e.order))
	for _, id := range append([]uint64(nil), e.order...) {
		pend := e.pending[id]
		if now.After(pend.Deadline) {
			e.removeFromOrder(id)
			delete(e.pending, id)
			e.processed[id] = &ProcessedOperation{Pending: *pend, Status: StatusFail, Error: "Expired", Timestamp: now}
			continue
		}
		out = append(out, pend)
	}
	return out
}

// GetProcessed returns the archived record for id, if any.
func (e *Engine) GetProcessed(id uint64) (*ProcessedOperation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.processed[id]
	return p, ok
}

// RemoveRequest abandons a pending operation (admin-gated by the caller),
// archiving it as Fail{Cancelled}.
func (e *Engine) RemoveRequest(id uint64) (*ProcessedOperation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pend, ok := e.pending[id]
	if !ok {
		return nil, walleterr.ErrRequestNotFound
	}
	e.removeFromOrder(id)
	delete(e.pending, id)
	proc := &ProcessedOperation{Pending: *pend, Status: StatusFail, Error: "Cancelled", Timestamp: e.now()}
	e.processed[id] = proc
	return proc, nil
}

// NextOpID reports the id the next admitted operation will receive (the
// current nonce value plus one), without admitting an operation.
func (e *Engine) NextOpID() uint64 {
	return e.nonce.Peek() + 1
}
