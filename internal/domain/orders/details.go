package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DineInDetails is the channel payload for orders eaten at a table.
type DineInDetails struct {
	TableNumber int
	PartySize   int
}

func (d DineInDetails) Channel() Channel { return ChannelDineIn }

func (d DineInDetails) Validate() error {
	if d.PartySize < 1 {
		return errors.New("dine_in requires party_size >= 1")
	}
	if d.TableNumber < 1 {
		return errors.New("dine_in requires an assigned table")
	}
	return nil
}

func (d DineInDetails) DefaultPrepTime() time.Duration { return 12 * time.Minute }

// TakeoutDetails is the channel payload for counter pickup orders.
type TakeoutDetails struct {
	PickupName string
}

func (d TakeoutDetails) Channel() Channel { return ChannelTakeout }

func (d TakeoutDetails) Validate() error { return nil }

func (d TakeoutDetails) DefaultPrepTime() time.Duration { return 10 * time.Minute }

// DriveThruDetails is the channel payload for lane orders.
type DriveThruDetails struct {
	Lane        int
	VehicleType string
}

func (d DriveThruDetails) Channel() Channel { return ChannelDriveThru }

func (d DriveThruDetails) Validate() error {
	if d.Lane < 1 {
		return errors.New("drive_thru requires an assigned lane")
	}
	if d.VehicleType == "" {
		return errors.New("drive_thru requires a vehicle type")
	}
	return nil
}

// Drive-thru targets the fastest turnaround of the four channels.
func (d DriveThruDetails) DefaultPrepTime() time.Duration { return 5 * time.Minute }

// DeliveryDetails is the channel payload for courier orders.
type DeliveryDetails struct {
	Address string
}

func (d DeliveryDetails) Channel() Channel { return ChannelDelivery }

func (d DeliveryDetails) Validate() error {
	if len(strings.TrimSpace(d.Address)) < 10 {
		return fmt.Errorf("delivery requires a delivery address of at least 10 characters")
	}
	return nil
}

func (d DeliveryDetails) DefaultPrepTime() time.Duration { return 15 * time.Minute }
