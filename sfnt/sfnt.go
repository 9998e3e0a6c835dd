// Package sfnt assembles color-bitmap emoji fonts.
//
// The assembler takes an ordered set of (glyph, bitmap) pairs and produces a
// TrueType-flavored font carrying the same glyph data in two parallel tables:
// CBDT/CBLC for renderers with color-bitmap support and an SVG table wrapping
// each bitmap for renderers without it. Both tables are serialized from one
// canonical glyph ordering, so they are index-consistent by construction.
package sfnt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/internal/logging"
)

// Errors returned by the assembler.
var (
	// ErrEmptyCaptureSet indicates assembly was attempted with no entries.
	ErrEmptyCaptureSet = errors.New("sfnt: no captures to assemble")

	// ErrInvalidBitmap indicates an entry's bitmap is missing or not of the
	// canonical size. This is an internal-consistency fault: the capture
	// store only hands out canonical bitmaps.
	ErrInvalidBitmap = errors.New("sfnt: invalid bitmap")
)

// Font design constants. The em box is square so square bitmap glyphs are not
// stretched, and the strike ppem equals the canonical bitmap size.
const (
	unitsPerEm = 1024
	ascent     = 819 // int(unitsPerEm * 0.8)
	descent    = ascent - unitsPerEm
	ppem       = bitmap.CanonicalSize
)

// Variation selectors are never mapped to glyphs in cmap.
const (
	vs15 = 0xFE0E // text presentation
	vs16 = 0xFE0F // emoji presentation
)

// Entry is one glyph of the font to assemble, in final glyph order.
type Entry struct {
	Glyph  emoji.Glyph
	Bitmap *bitmap.Bitmap
}

// Options configures assembly.
type Options struct {
	// Family is the font family name. Defaults to "FaceFont".
	Family string

	// SubfamilyToken overrides the generated cache-busting subfamily token.
	// Leave empty outside of tests: the random token is what defeats
	// client-side font caching across regenerations.
	SubfamilyToken string
}

// Table is one sfnt table, tagged and serialized.
type Table struct {
	Tag  string
	Data []byte
}

// Font is an assembled font prior to container compression.
type Font struct {
	family    string
	subfamily string
	numGlyphs int
	tables    []Table // sorted by tag
}

// Family returns the font family name.
func (f *Font) Family() string { return f.family }

// Subfamily returns the cache-busting subfamily token.
func (f *Font) Subfamily() string { return f.subfamily }

// NumGlyphs returns the glyph count including the .notdef glyph.
func (f *Font) NumGlyphs() int { return f.numGlyphs }

// Tables returns the font's tables in directory (tag) order.
func (f *Font) Tables() []Table { return f.tables }

// glyphSource carries one entry's derived data through table building.
type glyphSource struct {
	id    uint16 // glyph index; 0 is reserved for .notdef
	glyph emoji.Glyph
	png   []byte
}

// Assemble builds a font from the given entries. Glyph index 0 is the .notdef
// glyph; each entry gets the next index in input order, so assembling the
// same ordered entry set twice yields identical glyph data tables.
//
// Assembly is all-or-nothing: any malformed bitmap fails the whole call with
// ErrInvalidBitmap and nothing is returned.
func Assemble(entries []Entry, opts Options) (*Font, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyCaptureSet
	}

	family := opts.Family
	if family == "" {
		family = "FaceFont"
	}
	token := opts.SubfamilyToken
	if token == "" {
		token = newCacheToken()
	}

	glyphs := make([]glyphSource, 0, len(entries))
	for i, e := range entries {
		if e.Bitmap == nil || e.Bitmap.Width() != ppem || e.Bitmap.Height() != ppem {
			return nil, fmt.Errorf("%w: glyph %s", ErrInvalidBitmap, e.Glyph.HexKey())
		}
		var png bytes.Buffer
		if err := e.Bitmap.EncodePNG(&png); err != nil {
			return nil, fmt.Errorf("%w: glyph %s: %v", ErrInvalidBitmap, e.Glyph.HexKey(), err)
		}
		glyphs = append(glyphs, glyphSource{
			id:    uint16(i + 1),
			glyph: e.Glyph,
			png:   png.Bytes(),
		})
	}

	numGlyphs := len(glyphs) + 1
	mapping := buildMapping(glyphs)

	f := &Font{
		family:    family,
		subfamily: token,
		numGlyphs: numGlyphs,
	}
	glyfData, locaData := buildGlyf(numGlyphs)
	f.tables = []Table{
		{"CBDT", buildCBDT(glyphs)},
		{"CBLC", buildCBLC(glyphs)},
		{"OS/2", buildOS2(mapping)},
		{"SVG ", buildSVG(glyphs)},
		{"cmap", buildCmap(mapping)},
		{"glyf", glyfData},
		{"head", buildHead()},
		{"hhea", buildHhea(numGlyphs)},
		{"hmtx", buildHmtx(numGlyphs)},
		{"loca", locaData},
		{"maxp", buildMaxp(numGlyphs)},
		{"name", buildName(family, token)},
		{"post", buildPost()},
	}

	logging.Logger().Debug("assembled font",
		"family", family, "glyphs", numGlyphs, "token", token)
	return f, nil
}

// buildMapping assigns a glyph index to every mappable scalar. Every scalar
// of a glyph's sequence is mapped except variation selectors; when two glyphs
// share a scalar, the first in glyph order wins.
func buildMapping(glyphs []glyphSource) map[rune]uint16 {
	mapping := make(map[rune]uint16)
	for _, g := range glyphs {
		for _, r := range g.glyph.Codepoints {
			if r == vs15 || r == vs16 {
				continue
			}
			if _, taken := mapping[r]; !taken {
				mapping[r] = g.id
			}
		}
	}
	return mapping
}

// newCacheToken returns a fresh ULID string for the subfamily name.
func newCacheToken() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// ulid.New only fails if the entropy source does.
		panic(err)
	}
	return id.String()
}
