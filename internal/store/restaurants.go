package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
)

const restaurantColumns = `id, owner_id, name, description, address, city, enabled,
	opening_time, closing_time, created_at, updated_at, version`

type Restaurants struct {
	db *sql.DB
}

func NewRestaurants(db *sql.DB) *Restaurants {
	return &Restaurants{db: db}
}

func scanRestaurant(row rowScanner) (*models.Restaurant, error) {
	r := &models.Restaurant{}
	err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Name,
		&r.Description,
		&r.Address,
		&r.City,
		&r.Enabled,
		&r.OpeningTime,
		&r.ClosingTime,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Restaurants) get(ctx context.Context, where string, args ...any) (*models.Restaurant, error) {
	r, err := scanRestaurant(s.db.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

func (s *Restaurants) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Restaurant, error) {
	return s.get(ctx, `WHERE id = $1 AND owner_id = $2`, id, ownerID)
}

func (s *Restaurants) GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Restaurants) Add(ctx context.Context, r *models.Restaurant) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO restaurants (id, owner_id, name, description, address, city, enabled,
		                          opening_time, closing_time, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), 1)
		 RETURNING created_at, updated_at, version`,
		r.ID, r.OwnerID, r.Name, r.Description, r.Address, r.City, r.Enabled,
		r.OpeningTime, r.ClosingTime,
	).Scan(&r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}

	return nil
}

func (s *Restaurants) Update(ctx context.Context, id, ownerID uuid.UUID, r *models.Restaurant) (*models.Restaurant, error) {
	err := s.db.QueryRowContext(ctx,
		`UPDATE restaurants
		 SET name = $1, description = $2, address = $3, city = $4, enabled = $5,
		     opening_time = $6, closing_time = $7, updated_at = NOW(), version = version + 1
		 WHERE id = $8 AND owner_id = $9 AND version = $10
		 RETURNING updated_at, version`,
		r.Name, r.Description, r.Address, r.City, r.Enabled, r.OpeningTime, r.ClosingTime,
		id, ownerID, r.Version,
	).Scan(&r.UpdatedAt, &r.Version)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update restaurant: %w", err)
		}
		if _, getErr := s.GetByID(ctx, id, ownerID); getErr != nil {
			return nil, getErr
		}
		return nil, database.ErrOptimisticLockFailed
	}

	r.ID, r.OwnerID = id, ownerID
	return r, nil
}

func (s *Restaurants) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM restaurants WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete restaurant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Restaurants) Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*Page[*models.Restaurant], error) {
	pageNumber, pageSize = NormalizePage(pageNumber, pageSize)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM restaurants `+where.SQL(), where.Args()...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count restaurants: %w", err)
	}

	offset := (pageNumber - 1) * pageSize
	args := append(append([]any{}, where.Args()...), pageSize, offset)
	query := `SELECT ` + restaurantColumns + `
		FROM restaurants ` + where.SQL() + `
		ORDER BY name, id
		LIMIT ` + where.Placeholder(1) + ` OFFSET ` + where.Placeholder(2)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []*models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newPage(restaurants, total, pageNumber, pageSize), nil
}
