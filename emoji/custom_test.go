package emoji

import (
	"errors"
	"testing"
)

func TestParseCustom_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"pictograph", "\U0001F984"},           // unicorn
		{"symbol", "☕"},                   // hot beverage (So, below 1F300)
		{"vs16 sequence", "❤️"},      // red heart with emoji presentation
		{"modifier sequence", "\U0001F44B\U0001F3FB"}, // waving hand, light skin
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseCustom(tt.input)
			if err != nil {
				t.Fatalf("ParseCustom(%q) error = %v", tt.input, err)
			}
			if g.String() != tt.input {
				t.Errorf("String() = %q, want %q", g.String(), tt.input)
			}
			if !g.Custom {
				t.Error("Custom = false, want true")
			}
			if g.Name == "" {
				t.Error("empty glyph name")
			}

			// Re-validation of the extracted glyph is idempotent.
			again, err := ParseCustom(g.String())
			if err != nil {
				t.Fatalf("re-validation error = %v", err)
			}
			if again.String() != g.String() {
				t.Errorf("re-validation changed glyph: %q != %q", again.String(), g.String())
			}
		})
	}
}

func TestParseCustom_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain letter", "a"},
		{"digits", "42"},
		{"multi grapheme", "\U0001F600\U0001F603"},
		{"emoji plus text", "\U0001F600x"},
		{"control character", "\x07"},
		{"whitespace", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCustom(tt.input)
			if !errors.Is(err, ErrInvalidGlyph) {
				t.Errorf("ParseCustom(%q) error = %v, want ErrInvalidGlyph", tt.input, err)
			}
		})
	}
}
