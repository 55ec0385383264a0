// Package domain holds the ticket lifecycle rules.
package domain

import (
	"fmt"

	"helpdesk_backend/platform/apperr"
)

// Status is the persisted lifecycle state of a ticket.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusResolved  Status = "resolved"
	// StatusCancelled is never stored: cancelling deletes the row.
	StatusCancelled Status = "cancelled"
)

// Priority ranks confirmed tickets in the support queue.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DefaultPriority is assigned when a suggestion does not carry one.
const DefaultPriority = PriorityMedium

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusResolved},
}

// ErrInvalidTransition is returned for any move not listed in transitions.
var ErrInvalidTransition = apperr.Conflict("ticket cannot change to the requested status")

// CanTransitionTo reports whether from → to is allowed.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns to, or an error wrapping ErrInvalidTransition.
func Transition(from, to Status) (Status, error) {
	if !from.CanTransitionTo(to) {
		return from, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return to, nil
}

// IsTerminal reports whether no further transitions exist from s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
