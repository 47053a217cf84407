package checkout

import (
	"net/mail"
	"strings"

	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/internal/settings"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

// contactGuard validates the contact step. Returns every problem at once so
// the client can render the full list.
func contactGuard(contact types.ContactInfo) []string {
	var problems []string
	if strings.TrimSpace(contact.Name) == "" {
		problems = append(problems, "name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(contact.Email)); err != nil {
		problems = append(problems, "email is invalid")
	}
	if len(types.PhoneDigits(contact.Phone)) != 10 {
		problems = append(problems, "phone must have 10 digits")
	}
	return problems
}

// addressGuard validates the address step. A selected saved address skips
// the street-level checks; city, state, and pincode are always required.
func addressGuard(address types.Address, usingSavedAddress bool) []string {
	var problems []string
	if strings.TrimSpace(address.City) == "" {
		problems = append(problems, "city is required")
	}
	if strings.TrimSpace(address.State) == "" {
		problems = append(problems, "state is required")
	}
	if !types.IsValidPincode(address.Pincode) {
		problems = append(problems, "pincode must be 6 digits")
	}
	if !usingSavedAddress {
		if strings.TrimSpace(address.PlotHouse) == "" {
			problems = append(problems, "plot/house is required")
		}
		if strings.TrimSpace(address.Street) == "" {
			problems = append(problems, "street is required")
		}
	}
	return problems
}

// paymentGuard validates the payment step. COD is only selectable while the
// payable amount stays at or under the effective COD threshold.
func paymentGuard(method enums.PaymentMethod, payable pricing.Snapshot, stg settings.Settings) []string {
	var problems []string
	if !method.IsValid() {
		problems = append(problems, "payment method is required")
		return problems
	}
	if method == enums.PaymentMethodCOD {
		base := payable.Total.Sub(payable.CODFee)
		if !stg.CODEnabled {
			problems = append(problems, "cash on delivery is not available")
		} else if !pricing.CODAvailable(base, stg) {
			problems = append(problems, "cash on delivery is not available for this order amount")
		}
	}
	return problems
}
