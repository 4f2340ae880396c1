package monetbil

import (
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"677123456", "237677123456"},
		{"0677123456", "237677123456"},
		{"237677123456", "237677123456"},
		{"+237 677 123 456", "237677123456"},
		{"6 77-12-34-56", "237677123456"},
		{"", ""},
	}
	for _, c := range cases {
		got := NormalizePhone(c.in)
		if got != c.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"677123456", "0699887766", "+237 655 44 33 22", "(237)677000111"}
	for _, in := range inputs {
		once := NormalizePhone(in)
		twice := NormalizePhone(once)
		if once != twice {
			t.Fatalf("normalization not idempotent for %q: %q != %q", in, once, twice)
		}
		if !strings.HasPrefix(once, CountryCallingCode) {
			t.Fatalf("normalized number %q missing country code", once)
		}
	}
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1000, "1000"},
		{999.4, "999"},
		{999.5, "1000"},
		{0, "0"},
	}
	for _, c := range cases {
		if got := NormalizeAmount(c.in); got != c.want {
			t.Fatalf("NormalizeAmount(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
