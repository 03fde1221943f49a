package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, restaurant_id, owner_id, order_number, status, client_name, client_email,
	delivery_address, total, preparation_deadline, delivery_deadline, created_at, updated_at, version`

type Orders struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order      models.Order
		address    []byte
		prepDue    sql.NullTime
		deliverDue sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.RestaurantID,
		&order.OwnerID,
		&order.OrderNumber,
		&order.Status,
		&order.ClientName,
		&order.ClientEmail,
		&address,
		&order.Total,
		&prepDue,
		&deliverDue,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode delivery address: %w", err)
	}
	if prepDue.Valid {
		order.PreparationDeadline = &prepDue.Time
	}
	if deliverDue.Valid {
		order.DeliveryDeadline = &deliverDue.Time
	}

	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]*models.Order, error) {
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

func getOrder(ctx context.Context, q database.Querier, where string, args ...any) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := loadHistory(ctx, q, order); err != nil {
		return nil, err
	}

	return order, nil
}

func loadHistory(ctx context.Context, q database.Querier, order *models.Order) error {
	rows, err := q.QueryContext(ctx,
		`SELECT status, changed_at, notes
		 FROM order_status_history
		 WHERE order_id = $1
		 ORDER BY seq`,
		order.ID)
	if err != nil {
		return fmt.Errorf("get status history: %w", err)
	}
	defer rows.Close()

	order.StatusHistory = order.StatusHistory[:0]
	for rows.Next() {
		var entry models.StatusEntry
		if err := rows.Scan(&entry.Status, &entry.Timestamp, &entry.Notes); err != nil {
			return fmt.Errorf("scan status entry: %w", err)
		}
		order.StatusHistory = append(order.StatusHistory, entry)
	}

	return rows.Err()
}

func loadLineItems(ctx context.Context, q database.Querier, order *models.Order) error {
	var raw []byte
	err := q.QueryRowContext(ctx, `SELECT line_items FROM orders WHERE id = $1`, order.ID).Scan(&raw)
	if err != nil {
		return fmt.Errorf("get line items: %w", err)
	}

	if err := json.Unmarshal(raw, &order.LineItems); err != nil {
		return fmt.Errorf("decode line items: %w", err)
	}
	return nil
}

func (s *Orders) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Order, error) {
	order, err := getOrder(ctx, s.db, `WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, err
	}

	if err := loadLineItems(ctx, s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByIDPublic loads the order header and history without owner scoping.
func (s *Orders) GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return getOrder(ctx, s.db, `WHERE id = $1`, id)
}

func (s *Orders) GetByRestaurantID(ctx context.Context, restaurantID uuid.UUID) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE restaurant_id = $1
		 ORDER BY created_at DESC, id DESC`,
		restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant orders: %w", err)
	}
	return collectOrders(rows)
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("encode delivery address: %w", err)
	}
	items, err := json.Marshal(order.LineItems)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, restaurant_id, owner_id, order_number, status, client_name, client_email,
		                     delivery_address, line_items, total, preparation_deadline, delivery_deadline,
		                     created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, 1)
		 RETURNING version`,
		order.ID, order.RestaurantID, order.OwnerID, order.OrderNumber, int(order.Status),
		order.ClientName, order.ClientEmail, address, items, order.Total,
		order.PreparationDeadline, order.DeliveryDeadline, order.CreatedAt,
	).Scan(&order.Version)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	order.UpdatedAt = order.CreatedAt

	return appendHistory(ctx, tx, order)
}

// appendHistory writes the entries of order.StatusHistory that are not stored
// yet. Stored entries are never rewritten.
func appendHistory(ctx context.Context, q database.Querier, order *models.Order) error {
	var stored int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_status_history WHERE order_id = $1`,
		order.ID).Scan(&stored)
	if err != nil {
		return fmt.Errorf("count status history: %w", err)
	}

	if stored > len(order.StatusHistory) {
		return fmt.Errorf("status history of order %s shrank from %d to %d entries",
			order.ID, stored, len(order.StatusHistory))
	}

	for i := stored; i < len(order.StatusHistory); i++ {
		entry := order.StatusHistory[i]
		_, err := q.ExecContext(ctx,
			`INSERT INTO order_status_history (order_id, seq, status, changed_at, notes)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.ID, i+1, int(entry.Status), entry.Timestamp, entry.Notes)
		if err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
	}

	return nil
}

// saveOrder persists the mutable part of an order guarded by its version.
func saveOrder(ctx context.Context, q database.Querier, order *models.Order) error {
	var (
		version   int
		updatedAt time.Time
	)

	err := q.QueryRowContext(ctx,
		`UPDATE orders
		 SET status = $1, preparation_deadline = $2, delivery_deadline = $3,
		     updated_at = NOW(), version = version + 1
		 WHERE id = $4 AND owner_id = $5 AND version = $6
		 RETURNING version, updated_at`,
		int(order.Status), order.PreparationDeadline, order.DeliveryDeadline,
		order.ID, order.OwnerID, order.Version,
	).Scan(&version, &updatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update order: %w", err)
		}

		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1 AND owner_id = $2)`,
			order.ID, order.OwnerID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return database.ErrOrderNotFound
		}
		return database.ErrOptimisticLockFailed
	}

	if err := appendHistory(ctx, q, order); err != nil {
		return err
	}

	order.Version = version
	order.UpdatedAt = updatedAt
	return nil
}

func (s *Orders) Add(ctx context.Context, order *models.Order) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return insertOrder(ctx, tx, order)
	})
}

// Update stores status, deadlines and new history entries. It fails with
// ErrOptimisticLockFailed when order.Version is stale.
func (s *Orders) Update(ctx context.Context, id, ownerID uuid.UUID, order *models.Order) (*models.Order, error) {
	if order.ID != id || order.OwnerID != ownerID {
		return nil, database.ErrOrderNotFound
	}

	err := database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return saveOrder(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Orders) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Orders) Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*Page[*models.Order], error) {
	pageNumber, pageSize = NormalizePage(pageNumber, pageSize)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders `+where.SQL(), where.Args()...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (pageNumber - 1) * pageSize
	args := append(append([]any{}, where.Args()...), pageSize, offset)
	query := `SELECT ` + orderColumns + `
		FROM orders ` + where.SQL() + `
		ORDER BY created_at DESC, id DESC
		LIMIT ` + where.Placeholder(1) + ` OFFSET ` + where.Placeholder(2)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	return newPage(orders, total, pageNumber, pageSize), nil
}

func (s *Orders) ListCursor(ctx context.Context, ownerID uuid.UUID, cursor string, limit int) (*CursorPage[*models.Order], error) {
	cursorData, ok, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	_, limit = NormalizePage(1, limit)

	where := &database.Where{}
	where.And("owner_id = ?", ownerID)
	if ok {
		where.And("(created_at, id) < (?, ?)", cursorData.CreatedAt, cursorData.ID)
	}

	query := `SELECT ` + orderColumns + `
		FROM orders ` + where.SQL() + `
		ORDER BY created_at DESC, id DESC
		LIMIT ` + where.Placeholder(1)

	rows, err := s.db.QueryContext(ctx, query, append(where.Args(), limit+1)...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	if orders == nil {
		orders = []*models.Order{}
	}

	return &CursorPage[*models.Order]{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (s *Orders) Stats(ctx context.Context, ownerID uuid.UUID) (*models.OrderStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		 FROM orders
		 WHERE owner_id = $1
		 GROUP BY status`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &models.OrderStats{Counts: make(map[models.OrderStatus]int64)}
	for rows.Next() {
		var (
			status models.OrderStatus
			count  int64
			amount decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.Counts[status] = count
		stats.TotalOrders += count
		if status == models.OrderStatusFinished {
			stats.FinishedAmount = amount
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}
