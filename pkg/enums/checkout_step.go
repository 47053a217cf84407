package enums

import "fmt"

// CheckoutStep is a state of the four-step checkout machine.
type CheckoutStep string

const (
	CheckoutStepContact CheckoutStep = "contact"
	CheckoutStepAddress CheckoutStep = "address"
	CheckoutStepPayment CheckoutStep = "payment"
	CheckoutStepSummary CheckoutStep = "summary"
)

var checkoutStepOrder = []CheckoutStep{
	CheckoutStepContact,
	CheckoutStepAddress,
	CheckoutStepPayment,
	CheckoutStepSummary,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range checkoutStepOrder {
		if candidate == c {
			return true
		}
	}
	return false
}

// Next returns the step after c. The summary step has no successor.
func (c CheckoutStep) Next() (CheckoutStep, bool) {
	for i, candidate := range checkoutStepOrder {
		if candidate == c && i+1 < len(checkoutStepOrder) {
			return checkoutStepOrder[i+1], true
		}
	}
	return "", false
}

// Prev returns the step before c. The contact step has no predecessor.
func (c CheckoutStep) Prev() (CheckoutStep, bool) {
	for i, candidate := range checkoutStepOrder {
		if candidate == c && i > 0 {
			return checkoutStepOrder[i-1], true
		}
	}
	return "", false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range checkoutStepOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
