package backend

// Kind classifies a failed backend call by origin.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindPermission      Kind = "permission"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnknown         Kind = "unknown"
)

// Failure is the error half of a Result. Message is safe to show to the user.
type Failure struct {
	Kind    Kind
	Message string
	// Code is the originating database or auth error code, if any.
	Code string
}

func NewFailure(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func (f *Failure) Error() string {
	return f.Message
}

// Result is either Ok(value) or Err(kind, message).
type Result[T any] struct {
	value   T
	failure *Failure
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Err[T any](kind Kind, message string) Result[T] {
	return Result[T]{failure: NewFailure(kind, message)}
}

func Fail[T any](failure *Failure) Result[T] {
	if failure == nil {
		failure = NewFailure(KindUnknown, unknownMessage)
	}
	return Result[T]{failure: failure}
}

// From converts a Go (value, error) pair into a Result, classifying the error.
func From[T any](value T, err error) Result[T] {
	if err != nil {
		return Fail[T](Classify(err))
	}
	return Ok(value)
}

func (r Result[T]) IsOk() bool {
	return r.failure == nil
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Failure() *Failure {
	return r.failure
}

func (r Result[T]) Unwrap() (T, *Failure) {
	return r.value, r.failure
}
