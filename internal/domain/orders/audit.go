package orders

import "time"

// StatusLog is one row of an order's transition history.
type StatusLog struct {
	OrderID   string
	Status    Status
	ChangedAt time.Time
	Notes     *string
}
