package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskTicketNotification = "tickets.notify"

// TicketNotificationKind selects which email a ticket notification sends.
type TicketNotificationKind string

const (
	TicketNotificationConfirmed TicketNotificationKind = "confirmed"
	TicketNotificationResolved  TicketNotificationKind = "resolved"
)

type TicketNotificationPayload struct {
	Kind         TicketNotificationKind `json:"kind"`
	TicketID     string                 `json:"ticketId"`
	TicketNumber string                 `json:"ticketNumber"`
	UserID       string                 `json:"userId"`
	ClientName   string                 `json:"clientName"`
	Subject      string                 `json:"subject"`
	Detail       string                 `json:"detail,omitempty"`
	Priority     string                 `json:"priority,omitempty"`
	ImageURL     string                 `json:"imageUrl,omitempty"`
	AdminNote    string                 `json:"adminNote,omitempty"`
	OccurredAt   int64                  `json:"occurredAt"`
}

func NewTicketNotificationTask(payload TicketNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTicketNotification, data), nil
}

func ParseTicketNotificationPayload(task *asynq.Task) (TicketNotificationPayload, error) {
	var payload TicketNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TicketNotificationPayload{}, err
	}
	return payload, nil
}
