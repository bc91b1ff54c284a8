// Package events describes the notifications emitted after ledger-affecting operations.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Type names the kind of event.
type Type string

// Event types.
const (
	DepositConfirmed    Type = "deposit.confirmed"
	WithdrawalCreated   Type = "withdrawal.created"
	WithdrawalCompleted Type = "withdrawal.completed"
	WithdrawalRejected  Type = "withdrawal.rejected"
	SwapExecuted        Type = "swap.executed"
)

// Event is a single notification. Key groups events of one user so that
// consumers see them in order.
type Event struct {
	Type       Type        `json:"type"`
	Key        string      `json:"key"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// New returns event of the given type stamped with the current time.
func New(t Type, key string, payload interface{}) Event {
	return Event{
		Type:       t,
		Key:        key,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to subscribers.
//
//go:generate mockgen -source events.go -destination events_mock.go -package events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes events to the context logger. It is used when no broker is configured.
type LogPublisher struct{}

// Publish logs the event.
func (LogPublisher) Publish(ctx context.Context, e Event) error {
	zerolog.Ctx(ctx).Info().
		Str("event", string(e.Type)).
		Str("key", e.Key).
		Interface("payload", e.Payload).
		Msg("event published")

	return nil
}

// Emit publishes the event and logs delivery failure.
//
// Events are notifications only, the ledger is the source of truth, so a
// failed publish never fails the operation that produced it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}

	if err := p.Publish(ctx, e); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", string(e.Type)).Str("key", e.Key).Msg("publish event")
	}
}
