// Package errors carries coded domain errors. Every package declares its own
// ErrorCode constants and registers their messages from init.
package errors

// ErrorCode represents a unique identifier for each error type
type ErrorCode string

// Error represents a domain-specific error with context. Codes survive
// wrapping: HasCode looks through the whole Unwrap chain, CodeOf reports the
// outermost code.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory defines methods for creating domain errors. Wrap keeps the cause
// reachable through Unwrap; WithData only records its formatted value.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
