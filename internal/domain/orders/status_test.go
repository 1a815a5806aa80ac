package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []Status{StatusCreated, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

	allowedPairs := map[[2]Status]bool{
		{StatusCreated, StatusConfirmed}:   true,
		{StatusCreated, StatusCancelled}:   true,
		{StatusConfirmed, StatusPreparing}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusPreparing, StatusReady}:     true,
		{StatusPreparing, StatusCancelled}: true,
		{StatusReady, StatusCompleted}:     true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowedPairs[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(Status("burnt"), StatusCompleted))
	assert.False(t, CanTransition(StatusCreated, Status("burnt")))
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusPreparing.Terminal())
	assert.False(t, StatusReady.Terminal())
}
