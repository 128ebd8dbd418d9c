package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries identity, timestamps, the optimistic lock version
// and the events raised since the last save. Embed it in aggregate roots.
type BaseAggregateRoot struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`

	pending []DomainEvent
}

// NewBaseAggregateRoot stamps a fresh aggregate with the calendar's clock
func NewBaseAggregateRoot(cal CalendarPolicy) BaseAggregateRoot {
	now := cal.Now()
	return BaseAggregateRoot{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch moves UpdatedAt to at
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
}

// IncrementVersion is called once per successful save
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

// ClearDomainEvents drops the queue, e.g. before a retried attempt
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
