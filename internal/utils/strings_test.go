package utils

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Jane@Example.COM ": "jane@example.com",
		"plain@x.com":         "plain@x.com",
		"   ":                 "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "  Jane@Example.COM ", "first.last@sub.domain.org"}
	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = false, want true", e)
		}
	}

	invalid := []string{"", "no-at-sign", "two@@x.com", "a@b", "@x.com"}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("IsValidEmail(%q) = true, want false", e)
		}
	}
}
