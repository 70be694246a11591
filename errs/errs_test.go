package errs

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestErrorStringIncludesParts(t *testing.T) {
	cause := errors.New("connection reset")
	err := New("binance", CodeExchange,
		WithMessage("failed to submit order"),
		WithRawMessage("code -1013"),
		WithCause(cause),
	)

	text := err.Error()
	for _, want := range []string{"exchange=binance", "code=exchange_error", "failed to submit order", "code -1013", "connection reset"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}

func TestNotSupportedCarriesCanonicalCode(t *testing.T) {
	err := NotSupported("bitmex", "stop orders not offered")
	if err.Code != CodeUnavailable {
		t.Fatalf("expected unavailable code, got %s", err.Code)
	}
	if err.Canonical != CanonicalCapabilityMissing {
		t.Fatalf("expected capability_missing, got %s", err.Canonical)
	}
}

func TestUnsupportedOrderType(t *testing.T) {
	err := UnsupportedOrderType("bitfinex", "stop limit orders not supported")
	if err.Code != CodeInvalid {
		t.Fatalf("expected invalid code, got %s", err.Code)
	}
	if err.Canonical != CanonicalUnsupportedOrderType {
		t.Fatalf("expected unsupported_order_type, got %s", err.Canonical)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New("kraken", CodeNetwork, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
}

func TestCodeOfUnclassified(t *testing.T) {
	if got := CodeOf(errors.New("opaque")); got != CodeExchange {
		t.Fatalf("expected exchange_error fallback, got %s", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{New("x", CodeInvalid), http.StatusBadRequest},
		{New("x", CodeNotFound), http.StatusNotFound},
		{New("x", CodeUnavailable), http.StatusServiceUnavailable},
		{New("x", CodeExchange), http.StatusInternalServerError},
		{New("x", CodeExchange, WithHTTP(502)), 502},
		{errors.New("opaque"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
