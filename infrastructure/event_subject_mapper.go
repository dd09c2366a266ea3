package infrastructure

import (
	"fmt"

	"raffle/domain/events"
)

// NATS subjects for raffle domain events
const (
	SubjectRaffleDeployed = "raffle.deployed"
	SubjectPlayerEntered  = "raffle.entered"
	SubjectWinnerPicked   = "raffle.winner_picked"
	SubjectBalanceChanged = "accounts.balance_changed"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeRaffleDeployed:
		return SubjectRaffleDeployed
	case events.EventTypePlayerEntered:
		return SubjectPlayerEntered
	case events.EventTypeWinnerPicked:
		return SubjectWinnerPicked
	case events.EventTypeBalanceChange:
		return SubjectBalanceChanged
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectRaffleDeployed:
		return events.EventTypeRaffleDeployed
	case SubjectPlayerEntered:
		return events.EventTypePlayerEntered
	case SubjectWinnerPicked:
		return events.EventTypeWinnerPicked
	case SubjectBalanceChanged:
		return events.EventTypeBalanceChange
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectRaffleDeployed,
		SubjectPlayerEntered,
		SubjectWinnerPicked,
		SubjectBalanceChanged,
	}
}
