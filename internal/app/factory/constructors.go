package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

const defaultVehicleType = "car"

// NewDefaultRegistry wires the four production channel constructors around
// the shared table and lane allocators.
func NewDefaultRegistry(tables *TableAllocator, lanes *LaneAllocator) *Registry {
	registry := NewRegistry()
	registry.Register(orders.ChannelDineIn, DineInConstructor(tables))
	registry.Register(orders.ChannelTakeout, TakeoutConstructor())
	registry.Register(orders.ChannelDriveThru, DriveThruConstructor(lanes))
	registry.Register(orders.ChannelDelivery, DeliveryConstructor())
	return registry
}

// DineInConstructor builds dine-in orders, assigning the next free table.
func DineInConstructor(tables *TableAllocator) Constructor {
	return func(cmd ports.CreateOrderCommand) (*orders.Order, error) {
		if cmd.PartySize < 1 {
			return nil, fmt.Errorf("dine_in requires party_size >= 1, got %d", cmd.PartySize)
		}
		details := orders.DineInDetails{
			TableNumber: tables.Next(),
			PartySize:   cmd.PartySize,
		}
		return buildOrder(cmd, details)
	}
}

// TakeoutConstructor builds counter pickup orders.
func TakeoutConstructor() Constructor {
	return func(cmd ports.CreateOrderCommand) (*orders.Order, error) {
		details := orders.TakeoutDetails{PickupName: strings.TrimSpace(cmd.PickupName)}
		return buildOrder(cmd, details)
	}
}

// DriveThruConstructor builds lane orders. A missing vehicle type falls back
// to the generic default.
func DriveThruConstructor(lanes *LaneAllocator) Constructor {
	return func(cmd ports.CreateOrderCommand) (*orders.Order, error) {
		vehicle := strings.TrimSpace(cmd.VehicleType)
		if vehicle == "" {
			vehicle = defaultVehicleType
		}
		details := orders.DriveThruDetails{
			Lane:        lanes.Next(),
			VehicleType: vehicle,
		}
		return buildOrder(cmd, details)
	}
}

// DeliveryConstructor builds courier orders.
func DeliveryConstructor() Constructor {
	return func(cmd ports.CreateOrderCommand) (*orders.Order, error) {
		details := orders.DeliveryDetails{Address: strings.TrimSpace(cmd.DeliveryAddress)}
		return buildOrder(cmd, details)
	}
}

// buildOrder assembles the common part of every channel: item validation,
// identity, created status, derived totals and prep time.
func buildOrder(cmd ports.CreateOrderCommand, details orders.ChannelDetails) (*orders.Order, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	items := make([]orders.OrderItem, len(cmd.Items))
	for i, in := range cmd.Items {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, fmt.Errorf("item %d: name is required", i+1)
		}
		if in.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity must be >= 1", i+1)
		}
		if in.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("item %d: price must not be negative", i+1)
		}
		items[i] = orders.OrderItem{
			Name:      name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice.Round(2),
		}
	}

	now := time.Now().UTC()
	order := &orders.Order{
		ID:         uuid.NewString(),
		Channel:    details.Channel(),
		CustomerID: cmd.CustomerID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Items:      items,
		Status:     orders.StatusCreated,
		PrepTime:   estimatePrepTime(details, len(items)),
		Details:    details,
	}
	order.RecomputeTotals()

	return order, nil
}

// estimatePrepTime scales the channel's base prep time by order size: every
// started block of three items adds half the base again.
func estimatePrepTime(details orders.ChannelDetails, itemCount int) time.Duration {
	base := details.DefaultPrepTime()
	if itemCount <= 3 {
		return base
	}
	extraBlocks := (itemCount - 1) / 3
	return base + time.Duration(extraBlocks)*base/2
}
