package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	t.Parallel()

	err := New(CodeCapacity, "maximum concurrent carts reached")
	if err.Code() != CodeCapacity {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if err.Message() != "maximum concurrent carts reached" {
		t.Fatalf("unexpected message: %s", err.Message())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "persisting sale records")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Unwrap() != cause {
		t.Fatal("expected Unwrap to return cause")
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	t.Parallel()

	typed := New(CodePaymentIncomplete, "cart is not settled")
	wrapped := fmt.Errorf("finalize: %w", typed)

	got := As(wrapped)
	if got == nil || got.Code() != CodePaymentIncomplete {
		t.Fatalf("expected typed error in chain, got %v", got)
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
}

func TestMetadataForCapacityMapsToConflict(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(CodeCapacity)
	if meta.HTTPStatus != http.StatusConflict {
		t.Fatalf("unexpected status: %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatal("capacity errors must not be retryable")
	}
}
