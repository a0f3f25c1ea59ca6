package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwikikusuma/atelier/internal/order/app"
	"github.com/dwikikusuma/atelier/internal/order/domain"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type OrderRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, now: time.Now}
}

func (r *OrderRepo) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	order.ID = uuid.NewString()
	order.CreatedAt = now
	order.UpdatedAt = now

	err := r.execTX(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, session_id, payment_session_id, status, currency,
				subtotal_amount, total_amount, customer_email, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.SessionID, order.PaymentSessionID, order.Status, order.Currency,
			order.SubTotalAmount, order.TotalAmount, order.CustomerEmail,
			now.UnixMilli(), now.UnixMilli(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return app.ErrDuplicate
			}
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			expected := item.UnitAmount * int64(item.Quantity)
			if item.LineTotalAmount != expected {
				return fmt.Errorf("item %d: line total mismatch", i)
			}

			item.ID = uuid.NewString()
			item.OrderID = order.ID
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, artwork_id, size, title, unit_amount, quantity, line_total_amount)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.OrderID, item.ArtworkID, item.Size, item.Title,
				item.UnitAmount, item.Quantity, item.LineTotalAmount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrderRepo) GetByPaymentSession(ctx context.Context, paymentSessionID string) (domain.Order, error) {
	var (
		o                domain.Order
		created, updated int64
		cleared          sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, payment_session_id, status, currency, subtotal_amount,
			total_amount, customer_email, cart_cleared_at, created_at, updated_at
		FROM orders WHERE payment_session_id = ?`, paymentSessionID,
	).Scan(&o.ID, &o.SessionID, &o.PaymentSessionID, &o.Status, &o.Currency, &o.SubTotalAmount,
		&o.TotalAmount, &o.CustomerEmail, &cleared, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.CreatedAt = time.UnixMilli(created).UTC()
	o.UpdatedAt = time.UnixMilli(updated).UTC()
	if cleared.Valid {
		o.CartClearedAt = time.UnixMilli(cleared.Int64).UTC()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, artwork_id, size, title, unit_amount, quantity, line_total_amount
		FROM order_items WHERE order_id = ? ORDER BY rowid`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ArtworkID, &item.Size, &item.Title,
			&item.UnitAmount, &item.Quantity, &item.LineTotalAmount); err != nil {
			return domain.Order{}, err
		}
		o.OrderItems = append(o.OrderItems, item)
	}
	return o, rows.Err()
}

func (r *OrderRepo) MarkCartCleared(ctx context.Context, orderID string) error {
	now := r.now().UTC().Truncate(time.Millisecond).UnixMilli()
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET cart_cleared_at = COALESCE(cart_cleared_at, ?), updated_at = ?
		WHERE id = ?`, now, now, orderID)
	if err != nil {
		return fmt.Errorf("mark cart cleared: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return app.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(se.Error(), "UNIQUE") || strings.Contains(se.Error(), "PRIMARY KEY")
}
