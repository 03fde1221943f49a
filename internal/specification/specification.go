package specification

// Specification is a predicate over T.
type Specification[T any] interface {
	IsSatisfiedBy(entity T) bool
}

// Func adapts a plain function to Specification.
type Func[T any] func(entity T) bool

func (f Func[T]) IsSatisfiedBy(entity T) bool {
	return f(entity)
}

type andSpecification[T any] struct {
	left, right Specification[T]
}

func (s andSpecification[T]) IsSatisfiedBy(entity T) bool {
	return s.left.IsSatisfiedBy(entity) && s.right.IsSatisfiedBy(entity)
}

func And[T any](left, right Specification[T]) Specification[T] {
	return andSpecification[T]{left: left, right: right}
}

// Expr is a Specification that can be extended left to right with And.
type Expr[T any] struct {
	spec Specification[T]
}

func Of[T any](base Specification[T]) Expr[T] {
	return Expr[T]{spec: base}
}

func (e Expr[T]) And(other Specification[T]) Expr[T] {
	return Expr[T]{spec: And(e.spec, other)}
}

func (e Expr[T]) IsSatisfiedBy(entity T) bool {
	return e.spec.IsSatisfiedBy(entity)
}

// Select returns the items accepted by spec, preserving order.
func Select[T any](items []T, spec Specification[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if spec.IsSatisfiedBy(item) {
			out = append(out, item)
		}
	}
	return out
}
