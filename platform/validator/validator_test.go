package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketNumberRequest struct {
	TicketNumber string `json:"ticketNumber" validate:"required,max=64"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	val := New()

	err := val.Struct(ticketNumberRequest{Priority: "urgent"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "required", fields["ticketNumber"])
	assert.Equal(t, "oneof=low medium high critical", fields["priority"])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}
