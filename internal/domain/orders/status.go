package orders

// Status is the current position of an order in its lifecycle.
type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Allowed state transitions. Cancellation is only possible before the food
// is ready; completed and cancelled orders are read-only history.
var allowed = map[Status]map[Status]bool{
	StatusCreated:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true, StatusCancelled: true},
	StatusReady:     {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to Status) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return len(allowed[s]) == 0
}
