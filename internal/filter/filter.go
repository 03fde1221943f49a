// Package filter turns list requests into a composed specification for
// in-memory matching and an equivalent SQL condition for the store. Both are
// produced by the same walk over the request so they cannot drift apart.
package filter

import (
	"strings"

	"github.com/safar/go-order-engine/internal/database"
	"github.com/safar/go-order-engine/internal/specification"
)

type Filter[T any] struct {
	Spec  specification.Specification[T]
	Where *database.Where
}

type builder[T any] struct {
	expr  specification.Expr[T]
	where *database.Where
}

func newBuilder[T any](pred func(T) bool, cond string, args ...any) *builder[T] {
	b := &builder[T]{
		expr:  specification.Of[T](specification.Func[T](pred)),
		where: &database.Where{},
	}
	b.where.And(cond, args...)
	return b
}

func (b *builder[T]) and(pred func(T) bool, cond string, args ...any) {
	b.expr = b.expr.And(specification.Func[T](pred))
	b.where.And(cond, args...)
}

func (b *builder[T]) build() Filter[T] {
	return Filter[T]{Spec: b.expr, Where: b.where}
}

// searchTerm returns the trimmed key, or false when the key is absent or blank.
func searchTerm(key *string) (string, bool) {
	if key == nil {
		return "", false
	}
	term := strings.TrimSpace(*key)
	if term == "" {
		return "", false
	}
	return term, true
}

func containsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

func containsAny(term string, values ...string) bool {
	for _, v := range values {
		if containsFold(v, term) {
			return true
		}
	}
	return false
}

// ilikeAny builds "(a ILIKE ? OR b ILIKE ? ...)" and the matching args.
func ilikeAny(term string, columns ...string) (string, []any) {
	pattern := database.ContainsPattern(term)
	parts := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" ILIKE ?")
		args = append(args, pattern)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
