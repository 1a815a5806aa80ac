package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

// OrdersRepo implements persistence for orders using pgx and SQL. Each Save
// runs in its own transaction: header upsert, items on first insert, and a
// status-log row whenever the status changed.
type OrdersRepo struct {
	pool *pgxpool.Pool
}

var _ ports.OrderRepository = (*OrdersRepo)(nil)

// NewOrdersRepo constructs a repository over the given pool.
func NewOrdersRepo(pool *pgxpool.Pool) *OrdersRepo {
	return &OrdersRepo{pool: pool}
}

// Save upserts the order. Line items are immutable after creation, so they
// are only written when the header row is new.
func (repo *OrdersRepo) Save(ctx context.Context, order *orders.Order) error {
	tx, err := repo.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var prevStatus *string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, order.ID).Scan(&prevStatus)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	inserting := errors.Is(err, pgx.ErrNoRows)

	var discAmount *string
	var discPolicy, discReason *string
	if order.Discount != nil && order.Discount.Applicable {
		amt := order.Discount.Amount.StringFixed(2)
		discAmount = &amt
		discPolicy = &order.Discount.Policy
		discReason = &order.Discount.Reason
	}

	tableNumber, partySize, lane := detailInts(order.Details)
	vehicleType, deliveryAddress, pickupName := detailStrings(order.Details)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, channel, customer_id, status,
			subtotal, discount_amount, discount_policy, discount_reason, tax_amount, total,
			prep_time_seconds, table_number, party_size, lane, vehicle_type, delivery_address, pickup_name,
			created_at, updated_at, completed_at
		)
		VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric,$7,$8,$9::numeric,$10::numeric,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			subtotal = EXCLUDED.subtotal,
			discount_amount = EXCLUDED.discount_amount,
			discount_policy = EXCLUDED.discount_policy,
			discount_reason = EXCLUDED.discount_reason,
			tax_amount = EXCLUDED.tax_amount,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`,
		order.ID, order.Channel, order.CustomerID, order.Status,
		order.Subtotal.StringFixed(2), discAmount, discPolicy, discReason,
		order.TaxAmount.StringFixed(2), order.Total.StringFixed(2),
		int64(order.PrepTime/time.Second), tableNumber, partySize, lane,
		vehicleType, deliveryAddress, pickupName,
		order.CreatedAt, order.UpdatedAt, order.CompletedAt,
	)
	if err != nil {
		return err
	}

	if inserting {
		for i := range order.Items {
			it := &order.Items[i]
			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (order_id, name, quantity, unit_price)
				VALUES ($1, $2, $3, $4::numeric)
			`, order.ID, it.Name, it.Quantity, it.UnitPrice.StringFixed(2))
			if err != nil {
				return err
			}
		}
	}

	if inserting || prevStatus == nil || *prevStatus != string(order.Status) {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_at, notes)
			VALUES ($1, $2, $3, NULL)
		`, order.ID, order.Status, order.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindByID retrieves an order with its items; *orders.NotFoundError when the
// id is unknown.
func (repo *OrdersRepo) FindByID(ctx context.Context, id string) (*orders.Order, error) {
	var (
		order           orders.Order
		subtotal        string
		taxAmount       string
		total           string
		discAmount      *string
		discPolicy      *string
		discReason      *string
		prepSeconds     int64
		tableNumber     *int
		partySize       *int
		lane            *int
		vehicleType     *string
		deliveryAddress *string
		pickupName      *string
	)

	err := repo.pool.QueryRow(ctx, `
		SELECT id, channel, customer_id, status,
		       subtotal::text, discount_amount::text, discount_policy, discount_reason,
		       tax_amount::text, total::text,
		       prep_time_seconds, table_number, party_size, lane, vehicle_type, delivery_address, pickup_name,
		       created_at, updated_at, completed_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.Channel, &order.CustomerID, &order.Status,
		&subtotal, &discAmount, &discPolicy, &discReason,
		&taxAmount, &total,
		&prepSeconds, &tableNumber, &partySize, &lane, &vehicleType, &deliveryAddress, &pickupName,
		&order.CreatedAt, &order.UpdatedAt, &order.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &orders.NotFoundError{OrderID: id}
	}
	if err != nil {
		return nil, err
	}

	if order.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if order.TaxAmount, err = decimal.NewFromString(taxAmount); err != nil {
		return nil, err
	}
	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if discAmount != nil {
		amount, err := decimal.NewFromString(*discAmount)
		if err != nil {
			return nil, err
		}
		result := orders.DiscountResult{Amount: amount, Applicable: true}
		if discPolicy != nil {
			result.Policy = *discPolicy
		}
		if discReason != nil {
			result.Reason = *discReason
		}
		order.Discount = &result
	}
	order.PrepTime = time.Duration(prepSeconds) * time.Second
	order.Details = detailsFromColumns(order.Channel, tableNumber, partySize, lane, vehicleType, deliveryAddress, pickupName)

	rows, err := repo.pool.Query(ctx, `
		SELECT name, quantity, unit_price::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  orders.OrderItem
			price string
		)
		if err := rows.Scan(&item.Name, &item.Quantity, &price); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// ListHistory retrieves the status change history for an order.
func (repo *OrdersRepo) ListHistory(ctx context.Context, id string) ([]orders.StatusLog, error) {
	rows, err := repo.pool.Query(ctx, `
		SELECT status, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []orders.StatusLog
	for rows.Next() {
		entry := orders.StatusLog{OrderID: id}
		if err := rows.Scan(&entry.Status, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if history == nil {
		return nil, &orders.NotFoundError{OrderID: id}
	}
	return history, nil
}

// detailInts extracts the nullable integer payload columns per channel.
func detailInts(details orders.ChannelDetails) (tableNumber, partySize, lane *int) {
	switch d := details.(type) {
	case orders.DineInDetails:
		tableNumber, partySize = &d.TableNumber, &d.PartySize
	case orders.DriveThruDetails:
		lane = &d.Lane
	}
	return
}

// detailStrings extracts the nullable text payload columns per channel.
func detailStrings(details orders.ChannelDetails) (vehicleType, deliveryAddress, pickupName *string) {
	switch d := details.(type) {
	case orders.DriveThruDetails:
		vehicleType = &d.VehicleType
	case orders.DeliveryDetails:
		deliveryAddress = &d.Address
	case orders.TakeoutDetails:
		if d.PickupName != "" {
			pickupName = &d.PickupName
		}
	}
	return
}

// detailsFromColumns rebuilds the channel payload from its columns.
func detailsFromColumns(channel orders.Channel, tableNumber, partySize, lane *int, vehicleType, deliveryAddress, pickupName *string) orders.ChannelDetails {
	switch channel {
	case orders.ChannelDineIn:
		d := orders.DineInDetails{}
		if tableNumber != nil {
			d.TableNumber = *tableNumber
		}
		if partySize != nil {
			d.PartySize = *partySize
		}
		return d
	case orders.ChannelDriveThru:
		d := orders.DriveThruDetails{}
		if lane != nil {
			d.Lane = *lane
		}
		if vehicleType != nil {
			d.VehicleType = *vehicleType
		}
		return d
	case orders.ChannelDelivery:
		d := orders.DeliveryDetails{}
		if deliveryAddress != nil {
			d.Address = *deliveryAddress
		}
		return d
	default:
		d := orders.TakeoutDetails{}
		if pickupName != nil {
			d.PickupName = *pickupName
		}
		return d
	}
}
