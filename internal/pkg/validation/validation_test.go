package validation

import (
	"strings"
	"testing"
)

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Aa1!aaaa":   true,
		"Passw0rd#":  true,
		"Aa1!aaa":    false, // too short
		"aa1!aaaa":   false, // no upper
		"AA1!AAAA":   false, // no lower
		"Aa!!aaaa":   false, // no digit
		"Aa11aaaa":   false, // no special
		"":           false,
		"Ünïcødé1$x": true,
	}
	for in, want := range cases {
		if got := StrongPassword(in); got != want {
			t.Errorf("StrongPassword(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStrongPassword_ByteLimit(t *testing.T) {
	atLimit := "Aa1!" + strings.Repeat("a", MaxPasswordBytes-4)
	if !StrongPassword(atLimit) {
		t.Fatalf("expected %d-byte password to be accepted", len(atLimit))
	}
	if StrongPassword(atLimit + "a") {
		t.Fatal("expected password over the bcrypt limit to be rejected")
	}
	// multi-byte runes count by their encoded size
	if StrongPassword("Aa1!" + strings.Repeat("é", 35)) {
		t.Fatal("expected 74-byte password to be rejected")
	}
}

func TestEmail(t *testing.T) {
	if !Email("a@b.com") {
		t.Fatal("expected a@b.com to be valid")
	}
	for _, bad := range []string{"", "a@", "not-an-email", "@b.com"} {
		if Email(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestStructTag(t *testing.T) {
	type req struct {
		Password string `json:"password" validate:"strongpassword"`
	}
	v := New()
	if err := v.Struct(req{Password: "Aa1!aaaa"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Struct(req{Password: "weak"}); err == nil {
		t.Fatal("expected weak password to fail")
	}
}
