package orders

import "fmt"

// UnknownChannelError reports a creation request for a channel nobody
// registered a constructor for. Caller/config error, never retried.
type UnknownChannelError struct {
	Channel Channel
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown order channel %q", e.Channel)
}

// InvalidTransitionError reports an illegal state transition request. The
// order is left unmodified.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}

// NotFoundError reports an order identifier unknown to the repository.
// Distinct from transition errors so callers can tell "doesn't exist" from
// "exists but wrong state".
type NotFoundError struct {
	OrderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}
