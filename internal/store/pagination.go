package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        uuid.UUID `json:"id"`
}

// NormalizePage clamps paging input to a usable range.
func NormalizePage(pageNumber, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return pageNumber, pageSize
}

func newPage[T any](items []T, total int64, pageNumber, pageSize int) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &Page[T]{
		Items:      items,
		TotalCount: total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor returns ok=false for the empty cursor, meaning "from the top".
func DecodeCursor(encoded string) (OrderCursor, bool, error) {
	var cursor OrderCursor
	if encoded == "" {
		return cursor, false, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, false, fmt.Errorf("decode cursor: %w", err)
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, false, fmt.Errorf("unmarshal cursor: %w", err)
	}
	return cursor, true, nil
}
