package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusQuotation, true},
		{StatusDraft, StatusActive, true},
		{StatusQuotation, StatusActive, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusClosed, true},

		{StatusDraft, StatusCancelled, false},
		{StatusDraft, StatusClosed, false},
		{StatusQuotation, StatusDraft, false},
		{StatusQuotation, StatusCancelled, false},
		{StatusActive, StatusDraft, false},
		{StatusActive, StatusQuotation, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusDraft, false},
		{StatusClosed, StatusActive, false},
		{StatusClosed, StatusCancelled, false},

		// Self-transitions are not valid moves.
		{StatusDraft, StatusDraft, false},
		{StatusActive, StatusActive, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("paused"), StatusActive))
	assert.False(t, CanTransition(StatusDraft, Status("paused")))
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []Status{StatusCancelled, StatusClosed} {
		for _, next := range []Status{StatusDraft, StatusQuotation, StatusActive, StatusCancelled, StatusClosed} {
			assert.False(t, CanTransition(terminal, next), "%s -> %s", terminal, next)
		}
	}
}
