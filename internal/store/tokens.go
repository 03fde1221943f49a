package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/models"
)

const tokenColumns = `id, restaurant_id, owner_id, client_name, client_email, delivery_address,
	line_items, total, expires_at, used, created_at`

type Tokens struct {
	db *sql.DB
}

func NewTokens(db *sql.DB) *Tokens {
	return &Tokens{db: db}
}

func scanToken(row rowScanner) (*models.ConfirmationToken, error) {
	var (
		token   models.ConfirmationToken
		address []byte
		items   []byte
	)

	err := row.Scan(
		&token.ID,
		&token.RestaurantID,
		&token.OwnerID,
		&token.ClientName,
		&token.ClientEmail,
		&address,
		&items,
		&token.Total,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(address, &token.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode delivery address: %w", err)
	}
	if err := json.Unmarshal(items, &token.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}

	return &token, nil
}

func (s *Tokens) Add(ctx context.Context, token *models.ConfirmationToken) error {
	address, err := json.Marshal(token.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("encode delivery address: %w", err)
	}
	items, err := json.Marshal(token.LineItems)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO confirmation_tokens (id, restaurant_id, owner_id, client_name, client_email,
		                                  delivery_address, line_items, total, expires_at, used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		token.ID, token.RestaurantID, token.OwnerID, token.ClientName, token.ClientEmail,
		address, items, token.Total, token.ExpiresAt, token.Used, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("create confirmation token: %w", err)
	}

	return nil
}

func (s *Tokens) GetByID(ctx context.Context, id uuid.UUID) (*models.ConfirmationToken, error) {
	token, err := scanToken(s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM confirmation_tokens WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get confirmation token: %w", err)
	}
	return token, nil
}

func expiredTokens(ctx context.Context, q database.Querier, now time.Time, lock bool) ([]*models.ConfirmationToken, error) {
	query := `SELECT ` + tokenColumns + `
		FROM confirmation_tokens
		WHERE expires_at < $1 AND used = FALSE
		ORDER BY expires_at`
	if lock {
		query += ` FOR UPDATE SKIP LOCKED`
	}

	rows, err := q.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.ConfirmationToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan confirmation token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tokens, nil
}

func deleteTokens(ctx context.Context, q database.Querier, tokens []*models.ConfirmationToken) (bool, error) {
	if len(tokens) == 0 {
		return false, nil
	}

	ids := make([]string, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.ID.String())
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM confirmation_tokens WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return false, fmt.Errorf("delete confirmation tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// GetExpired returns unused tokens whose expiry is before now.
func (s *Tokens) GetExpired(ctx context.Context, now time.Time) ([]*models.ConfirmationToken, error) {
	return expiredTokens(ctx, s.db, now, false)
}

func (s *Tokens) DeleteRange(ctx context.Context, tokens []*models.ConfirmationToken) (bool, error) {
	return deleteTokens(ctx, s.db, tokens)
}

// Redeem marks the token used and stores the order built from it in one
// transaction. A token redeemed concurrently yields ErrTokenAlreadyUsed.
func (s *Tokens) Redeem(ctx context.Context, tokenID uuid.UUID, order *models.Order) error {
	return database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE confirmation_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`, tokenID)
		if err != nil {
			return fmt.Errorf("mark token used: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrTokenAlreadyUsed
		}

		return insertOrder(ctx, tx, order)
	})
}
