package queryapi

import "testing"

func TestParseIntOrUsesFallbackOnEmpty(t *testing.T) {
	if got := parseIntOr("", 50); got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestParseIntOrUsesFallbackOnGarbage(t *testing.T) {
	if got := parseIntOr("not-a-number", 50); got != 50 {
		t.Fatalf("got %d, want 50", got)
	}
}

func TestParseIntOrParsesValidInt(t *testing.T) {
	if got := parseIntOr("25", 50); got != 25 {
		t.Fatalf("got %d, want 25", got)
	}
}

func TestParseIntOrParsesNegativeInt(t *testing.T) {
	if got := parseIntOr("-1", 50); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}
