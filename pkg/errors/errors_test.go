package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAsFindsWrappedTypedError(t *testing.T) {
	t.Parallel()

	inner := New(CodeNotFound, "coupon not found")
	wrapped := fmt.Errorf("resolving coupon: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatalf("expected typed error, got nil")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("expected code %s, got %s", CodeNotFound, typed.Code())
	}
}

func TestAsReturnsNilForUntyped(t *testing.T) {
	t.Parallel()

	if typed := As(fmt.Errorf("plain error")); typed != nil {
		t.Fatalf("expected nil, got %v", typed)
	}
}

func TestWrapNilBehavesLikeNew(t *testing.T) {
	t.Parallel()

	err := Wrap(CodeValidation, nil, "missing pincode")
	if err.Unwrap() != nil {
		t.Fatalf("expected no cause, got %v", err.Unwrap())
	}
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", meta.HTTPStatus)
	}
}

func TestMetadataForPayment(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(CodePayment)
	if meta.HTTPStatus != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", meta.HTTPStatus)
	}
	if !meta.Retryable {
		t.Fatalf("payment failures should be retryable")
	}
}

func TestWithDetailsRoundTrip(t *testing.T) {
	t.Parallel()

	details := map[string]any{"field": "pincode"}
	err := New(CodeValidation, "bad pincode").WithDetails(details)

	got, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected map details, got %T", err.Details())
	}
	if got["field"] != "pincode" {
		t.Fatalf("unexpected details: %v", got)
	}
}
