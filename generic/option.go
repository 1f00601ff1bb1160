package generic

// Option is a value that may be absent, e.g. a setting whose zero value differs from its default.
type Option[T any] struct {
	Value    T
	hasValue bool
}

// Some constructs an Option holding value.
func Some[T any](value T) Option[T] {
	return Option[T]{Value: value, hasValue: true}
}

// Expect returns the value, or panics with msg if there is none.
func (o Option[T]) Expect(msg string) T {
	if !o.hasValue {
		panic(msg)
	}
	return o.Value
}

// UnwrapOr returns the value, or fallback if there is none.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.hasValue {
		return o.Value
	}
	return fallback
}
