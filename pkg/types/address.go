package types

import (
	"regexp"
	"strings"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Address is the delivery address shape shared by checkout sessions, saved
// addresses, and placed orders.
type Address struct {
	PlotHouse string `json:"plot_house"`
	Street    string `json:"street"`
	Landmark  string `json:"landmark,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
}

// ContactInfo carries the customer-facing contact fields captured during
// checkout.
type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// IsValidPincode reports whether value is a six-digit Indian PIN code.
func IsValidPincode(value string) bool {
	return pincodePattern.MatchString(strings.TrimSpace(value))
}

// PhoneDigits strips every non-digit rune from a phone input.
func PhoneDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
