package refcode

import (
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	tests := []struct {
		id, name string
	}{
		{"abc123", "João"},
		{"1", ""},
		{"", "Ana"},
		{"987654321", "Maria da Conceição Souza Lima"},
		{"42", "   "},
		{"7", "Ñandú Álvarez"},
	}
	for _, tt := range tests {
		code, err := Generate(tt.id, tt.name)
		if err != nil {
			t.Fatalf("Generate(%q, %q): %v", tt.id, tt.name, err)
		}
		if !Valid(code) {
			t.Errorf("Generate(%q, %q) = %q, does not match format", tt.id, tt.name, code)
		}
	}
}

func TestGeneratePrefix(t *testing.T) {
	code, err := Generate("abc123", "João")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(code, "JC123") {
		t.Errorf("code = %q, want prefix JC123", code)
	}
}

func TestGenerateInitialsCapped(t *testing.T) {
	code, err := Generate("5", "ana beatriz carla dora")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(code, "ABC5") {
		t.Errorf("code = %q, want prefix ABC5", code)
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := Generate("1", "Ana")
		if err != nil {
			t.Fatal(err)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("expected random suffix to vary")
	}
}

func TestValid(t *testing.T) {
	tests := map[string]bool{
		"ABCD1234":      true,
		"ABCDEFGH1234":  true,
		"ABC123":        false,
		"abcd1234":      false,
		"ABCD-1234":     false,
		"ABCDEFGH12345": false,
	}
	for code, want := range tests {
		if got := Valid(code); got != want {
			t.Errorf("Valid(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  jc123abc "); got != "JC123ABC" {
		t.Errorf("Normalize = %q", got)
	}
}
