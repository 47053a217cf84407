package types

import "testing"

func TestIsValidPincode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{"110001", true},
		{" 110001 ", true},
		{"11000", false},
		{"1100011", false},
		{"11000a", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsValidPincode(tc.in); got != tc.want {
			t.Fatalf("IsValidPincode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPhoneDigits(t *testing.T) {
	t.Parallel()

	if got := PhoneDigits("+91 98765-43210"); got != "919876543210" {
		t.Fatalf("unexpected digits: %q", got)
	}
	if got := PhoneDigits("abc"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
