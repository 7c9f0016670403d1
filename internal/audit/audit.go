// Package audit records a structured, append-only-intent log of
// security-relevant wallet and system actions, adapted from
// payout-engine/shared/security/audit.go's slog-based event logger.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// EventType names a custody-domain audit event.
type EventType string

const (
	EventOperationProposed  EventType = "OPERATION_PROPOSED"
	EventOperationConfirmed EventType = "OPERATION_CONFIRMED"
	EventOperationRejected  EventType = "OPERATION_REJECTED"
	EventOperationExecuted  EventType = "OPERATION_EXECUTED"
	EventOperationFailed    EventType = "OPERATION_FAILED"
	EventWalletCreated      EventType = "WALLET_CREATED"
	EventWalletUpgraded     EventType = "WALLET_UPGRADED"
	EventReleaseSealed      EventType = "RELEASE_SEALED"
	EventReleaseDeprecated  EventType = "RELEASE_DEPRECATED"
	EventControllersUpdated EventType = "CONTROLLERS_UPDATED"
	EventRateLimited        EventType = "RATE_LIMITED"
	EventSecurityAlert      EventType = "SECURITY_ALERT"
)

// Result tags an audited action's outcome.
type Result string

const (
	ResultSuccess Result = "SUCCESS"
	ResultFailure Result = "FAILURE"
	ResultDenied  Result = "DENIED"
)

// Event is one audit log entry.
type Event struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   EventType              `json:"event_type"`
	Principal   string                 `json:"principal,omitempty"`
	WalletID    string                 `json:"wallet_id,omitempty"`
	OperationID uint64                 `json:"operation_id,omitempty"`
	Result      Result                 `json:"result"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Sink durably persists audit events beyond the structured log line, e.g.
// to an append-only database table. A Logger forwards every event to its
// Sink, if one is attached.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Logger writes audit events through a structured slog.Logger, and
// optionally forwards them to a durable Sink. Grounded on
// payout-engine's AuditLogger, which stops at structured logging; this
// extends it with the Sink seam so a deployment can fan events out to a
// real append-only store without touching call sites.
type Logger struct {
	logger *slog.Logger
	sink   Sink
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With("component", "audit")}
}

// WithSink attaches a durable Sink; returns the Logger for chaining.
func (a *Logger) WithSink(sink Sink) *Logger {
	a.sink = sink
	return a
}

// Log records an audit event, stamping its timestamp; ctx is only passed
// through to the Sink.
func (a *Logger) Log(ctx context.Context, event Event) error {
	event.Timestamp = time.Now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	a.logger.Info("audit_event",
		"event_type", event.EventType,
		"principal", event.Principal,
		"wallet_id", event.WalletID,
		"operation_id", event.OperationID,
		"result", event.Result,
		"raw", string(data),
	)

	if a.sink != nil {
		if err := a.sink.Record(ctx, event); err != nil {
			a.logger.Warn("audit_sink_failed", "error", err.Error())
		}
	}
	return nil
}

// LogOperation logs an operation lifecycle transition (propose, confirm,
// reject, execute, fail).
func (a *Logger) LogOperation(ctx context.Context, eventType EventType, walletID, principal string, opID uint64, result Result, details map[string]interface{}) {
	a.Log(ctx, Event{
		EventType:   eventType,
		WalletID:    walletID,
		Principal:   principal,
		OperationID: opID,
		Result:      result,
		Details:     details,
	})
}

// LogWalletCreated logs a System create_wallet success.
func (a *Logger) LogWalletCreated(ctx context.Context, user, walletPrincipal string) {
	a.Log(ctx, Event{
		EventType: EventWalletCreated,
		Principal: user,
		WalletID:  walletPrincipal,
		Result:    ResultSuccess,
	})
}

// LogRateLimited logs a create_wallet call rejected by SYSTEM_RATE_LIMIT.
func (a *Logger) LogRateLimited(ctx context.Context, user string) {
	a.Log(ctx, Event{
		EventType: EventRateLimited,
		Principal: user,
		Result:    ResultDenied,
	})
}

// LogSecurityAlert logs a generic security-relevant event outside the
// operation/wallet lifecycle (e.g. a TEE signer error, a malformed
// principal on an authenticated call).
func (a *Logger) LogSecurityAlert(ctx context.Context, action string, details map[string]interface{}) {
	a.Log(ctx, Event{
		EventType: EventSecurityAlert,
		Result:    ResultFailure,
		Details:   mergeAction(action, details),
	})
}

func mergeAction(action string, details map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"action": action}
	for k, v := range details {
		out[k] = v
	}
	return out
}
