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

const productColumns = `id, restaurant_id, owner_id, name, description, price, vat_rate,
	image_ref, enabled, created_at, updated_at, version`

type Products struct {
	db *sql.DB
}

func NewProducts(db *sql.DB) *Products {
	return &Products{db: db}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(
		&p.ID,
		&p.RestaurantID,
		&p.OwnerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.VATRate,
		&p.ImageRef,
		&p.Enabled,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Products) get(ctx context.Context, where string, args ...any) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *Products) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Product, error) {
	return s.get(ctx, `WHERE id = $1 AND owner_id = $2`, id, ownerID)
}

func (s *Products) GetByIDPublic(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Products) Add(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO products (id, restaurant_id, owner_id, name, description, price, vat_rate,
		                       image_ref, enabled, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), 1)
		 RETURNING created_at, updated_at, version`,
		p.ID, p.RestaurantID, p.OwnerID, p.Name, p.Description, p.Price, p.VATRate,
		p.ImageRef, p.Enabled,
	).Scan(&p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

// Update is guarded by the product version; a stale version yields
// ErrOptimisticLockFailed.
func (s *Products) Update(ctx context.Context, id, ownerID uuid.UUID, p *models.Product) (*models.Product, error) {
	err := s.db.QueryRowContext(ctx,
		`UPDATE products
		 SET name = $1, description = $2, price = $3, vat_rate = $4, image_ref = $5,
		     enabled = $6, updated_at = NOW(), version = version + 1
		 WHERE id = $7 AND owner_id = $8 AND version = $9
		 RETURNING updated_at, version`,
		p.Name, p.Description, p.Price, p.VATRate, p.ImageRef, p.Enabled,
		id, ownerID, p.Version,
	).Scan(&p.UpdatedAt, &p.Version)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update product: %w", err)
		}
		if _, getErr := s.GetByID(ctx, id, ownerID); getErr != nil {
			return nil, getErr
		}
		return nil, database.ErrOptimisticLockFailed
	}

	p.ID, p.OwnerID = id, ownerID
	return p, nil
}

func (s *Products) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Products) Filter(ctx context.Context, where *database.Where, pageSize, pageNumber int) (*Page[*models.Product], error) {
	pageNumber, pageSize = NormalizePage(pageNumber, pageSize)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products `+where.SQL(), where.Args()...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (pageNumber - 1) * pageSize
	args := append(append([]any{}, where.Args()...), pageSize, offset)
	query := `SELECT ` + productColumns + `
		FROM products ` + where.SQL() + `
		ORDER BY created_at DESC, id
		LIMIT ` + where.Placeholder(1) + ` OFFSET ` + where.Placeholder(2)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newPage(products, total, pageNumber, pageSize), nil
}
