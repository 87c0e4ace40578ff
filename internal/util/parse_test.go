package util

import "testing"

func TestParseCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"plain integer", "1200", 120000},
		{"dollar sign and separator", "$1,200", 120000},
		{"with cents", "1,200.50", 120050},
		{"single decimal digit", "$3.5", 350},
		{"surrounding space", "  $80 ", 8000},
		{"empty", "", 0},
		{"no digits", "Contact for price", 0},
		{"range", "$1,000 - $2,000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCents(tt.input); got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeAtoi(t *testing.T) {
	if got := SafeAtoi(" 42 "); got != 42 {
		t.Errorf("SafeAtoi(\" 42 \") = %d, want 42", got)
	}
	if got := SafeAtoi("n/a"); got != 0 {
		t.Errorf("SafeAtoi(\"n/a\") = %d, want 0", got)
	}
}
