package generic

import "fmt"

// Result carries a (T, error) return value through a channel.
type Result[T any] struct {
	Value T
	Error error
}

func NewResult[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Error: err}
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

// Parts splits the Result back into its (T, error) pair.
func (r Result[T]) Parts() (T, error) {
	return r.Value, r.Error
}

// Expect returns the value, or panics with msg wrapping the error.
func (r Result[T]) Expect(msg string) T {
	if r.Error != nil {
		panic(fmt.Errorf("%s: %w", msg, r.Error))
	}
	return r.Value
}

func (r Result[T]) Unwrap() T {
	return r.Expect("unwrapped an error result")
}

// Unwrap returns value, panicking if err is set. Only for errors that mean a programming mistake, e.g. a failing
// random source.
func Unwrap[T any](value T, err error) T {
	return NewResult(value, err).Unwrap()
}
