// Package errs provides structured error envelopes shared across the gateway.
package errs

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Code identifies a gateway error category.
type Code string

const (
	// CodeInvalid indicates a malformed or unsupported request shape.
	CodeInvalid Code = "invalid_request"
	// CodeNotFound indicates a missing resource or unknown exchange identifier.
	CodeNotFound Code = "not_found"
	// CodeUnavailable indicates the exchange does not offer the requested capability.
	CodeUnavailable Code = "unavailable"
	// CodeExchange indicates an exchange-side failure.
	CodeExchange Code = "exchange_error"
	// CodeNetwork indicates a network transport failure.
	CodeNetwork Code = "network"
)

// CanonicalCode captures exchange-agnostic failure categories.
type CanonicalCode string

const (
	// CanonicalUnknown captures uncategorized failures.
	CanonicalUnknown CanonicalCode = "unknown"
	// CanonicalCapabilityMissing indicates the exchange lacks the required capability.
	CanonicalCapabilityMissing CanonicalCode = "capability_missing"
	// CanonicalUnsupportedOrderType indicates an order shape the exchange cannot accept.
	CanonicalUnsupportedOrderType CanonicalCode = "unsupported_order_type"
	// CanonicalOrderNotFound indicates that the referenced order does not exist.
	CanonicalOrderNotFound CanonicalCode = "order_not_found"
)

// E captures structured error information produced across the gateway stack.
type E struct {
	Exchange  string
	Code      Code
	HTTP      int
	Message   string
	RawMsg    string
	Canonical CanonicalCode

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the exchange and error code.
func New(exchange string, code Code, opts ...Option) *E {
	e := &E{
		Exchange:  strings.TrimSpace(exchange),
		Code:      code,
		Canonical: CanonicalUnknown,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithHTTP records the associated HTTP status code.
func WithHTTP(status int) Option {
	return func(e *E) {
		e.HTTP = status
	}
}

// WithRawMessage captures the raw exchange error message.
func WithRawMessage(msg string) Option {
	return func(e *E) {
		e.RawMsg = msg
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

// WithCanonicalCode sets the canonical code describing the failure category.
func WithCanonicalCode(code CanonicalCode) Option {
	trimmed := strings.TrimSpace(string(code))
	return func(e *E) {
		if trimmed == "" {
			e.Canonical = CanonicalUnknown
			return
		}
		e.Canonical = CanonicalCode(trimmed)
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	exchange := strings.TrimSpace(e.Exchange)
	if exchange == "" {
		exchange = "unknown"
	}
	parts = append(parts, "exchange="+exchange)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if cc := strings.TrimSpace(string(e.Canonical)); cc != "" && cc != string(CanonicalUnknown) {
		parts = append(parts, "canonical="+cc)
	}
	if e.HTTP > 0 {
		parts = append(parts, "http="+strconv.Itoa(e.HTTP))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.RawMsg != "" {
		parts = append(parts, "raw_msg="+strconv.Quote(e.RawMsg))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// NotSupported returns a standardized error for capabilities the exchange does not offer.
func NotSupported(exchange, msg string) *E {
	return New(exchange, CodeUnavailable,
		WithMessage(strings.TrimSpace(msg)),
		WithCanonicalCode(CanonicalCapabilityMissing))
}

// UnsupportedOrderType returns a validation error for order shapes an exchange rejects.
func UnsupportedOrderType(exchange, msg string) *E {
	return New(exchange, CodeInvalid,
		WithMessage(strings.TrimSpace(msg)),
		WithCanonicalCode(CanonicalUnsupportedOrderType))
}

// AsE extracts a structured envelope from err, reporting whether one was found.
func AsE(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the error code carried by err, or CodeExchange when unclassified.
func CodeOf(err error) Code {
	if e, ok := AsE(err); ok && e.Code != "" {
		return e.Code
	}
	return CodeExchange
}

// HTTPStatus maps an error to the status the transport layer should report.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if e, ok := AsE(err); ok {
		if e.HTTP > 0 {
			return e.HTTP
		}
		switch e.Code {
		case CodeInvalid:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeUnavailable:
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}
