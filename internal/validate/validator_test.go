package validate

import "testing"

func TestEVMAddress(t *testing.T) {
	cases := map[string]bool{
		"0x1234567890123456789012345678901234567890": true,
		"0x0000000000000000000000000000000000000000": false,
		"not-an-address": false,
		"":               false,
	}
	for addr, wantOK := range cases {
		err := EVMAddress(addr)
		if (err == nil) != wantOK {
			t.Errorf("EVMAddress(%q) error = %v, want ok=%v", addr, err, wantOK)
		}
	}
}

func TestAmount(t *testing.T) {
	if err := Amount("100"); err != nil {
		t.Errorf("Amount(100) unexpected error: %v", err)
	}
	if err := Amount("0"); err == nil {
		t.Error("Amount(0) expected error")
	}
	if err := Amount("-5"); err == nil {
		t.Error("Amount(-5) expected error")
	}
	if err := Amount("not-a-number"); err == nil {
		t.Error("Amount(not-a-number) expected error")
	}
}

func TestSanitizeInput_RejectsInjectionPatterns(t *testing.T) {
	if _, err := SanitizeInput("DROP TABLE users"); err == nil {
		t.Error("expected rejection of SQL-like input")
	}
	clean, err := SanitizeInput("  My Account  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean != "My Account" {
		t.Errorf("got %q, want trimmed string", clean)
	}
}

func TestPrincipalText(t *testing.T) {
	if err := PrincipalText("rdmx6-jaaaa-aaaaa-aaadq-cai"); err != nil {
		t.Errorf("unexpected error for well-formed principal text: %v", err)
	}
	if err := PrincipalText(""); err == nil {
		t.Error("expected error for empty principal text")
	}
}
