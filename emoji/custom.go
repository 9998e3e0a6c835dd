package emoji

import (
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/npillmayer/uax/grapheme"
	"golang.org/x/text/unicode/runenames"
)

// ErrInvalidGlyph indicates that a custom-glyph input is not exactly one
// pictographic grapheme. Multi-character paste, control characters and plain
// text all fail with this error.
var ErrInvalidGlyph = errors.New("emoji: not a single pictographic grapheme")

// graphemeSetup loads the UAX#29 grapheme break classes once.
var graphemeSetup sync.Once

// ParseCustom validates a user-supplied string as a custom glyph.
//
// The input must segment to exactly one grapheme whose re-extraction yields
// the identical string, and its lead scalar must be pictographic (Unicode
// category So or Sk, or at or above U+1F300). The glyph name is derived from
// the Unicode character name of the lead scalar.
func ParseCustom(input string) (Glyph, error) {
	if input == "" {
		return Glyph{}, ErrInvalidGlyph
	}

	graphemeSetup.Do(grapheme.SetupGraphemeClasses)

	gstr := grapheme.StringFromString(input)
	if gstr.Len() != 1 || gstr.Nth(0) != input {
		return Glyph{}, ErrInvalidGlyph
	}

	runes := []rune(input)
	if !pictographic(runes[0]) {
		return Glyph{}, ErrInvalidGlyph
	}

	return Glyph{
		Codepoints: runes,
		Name:       strings.ToLower(runenames.Name(runes[0])),
		Custom:     true,
	}, nil
}

// pictographic reports whether r plausibly has an emoji rendering.
// Mirrors the symbol-category check used for gallery input validation.
func pictographic(r rune) bool {
	if r >= 0x1F300 {
		return true
	}
	return unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r)
}
