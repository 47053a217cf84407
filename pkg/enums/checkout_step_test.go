package enums

import "testing"

func TestCheckoutStepOrder(t *testing.T) {
	t.Parallel()

	next, ok := CheckoutStepContact.Next()
	if !ok || next != CheckoutStepAddress {
		t.Fatalf("contact should advance to address, got %s ok=%v", next, ok)
	}

	next, ok = CheckoutStepPayment.Next()
	if !ok || next != CheckoutStepSummary {
		t.Fatalf("payment should advance to summary, got %s ok=%v", next, ok)
	}

	if _, ok := CheckoutStepSummary.Next(); ok {
		t.Fatal("summary should have no successor")
	}

	prev, ok := CheckoutStepSummary.Prev()
	if !ok || prev != CheckoutStepPayment {
		t.Fatalf("summary should back up to payment, got %s ok=%v", prev, ok)
	}

	if _, ok := CheckoutStepContact.Prev(); ok {
		t.Fatal("contact should have no predecessor")
	}
}

func TestParseCheckoutStep(t *testing.T) {
	t.Parallel()

	got, err := ParseCheckoutStep("address")
	if err != nil || got != CheckoutStepAddress {
		t.Fatalf("unexpected result %s / %v", got, err)
	}
	if _, err := ParseCheckoutStep("review"); err == nil {
		t.Fatal("expected error for unknown step")
	}
}
