// Package emoji maps glyph identities to Unicode codepoint sequences.
//
// The package carries the standard glyph registry (the face subgroups of the
// Unicode emoji-test data, embedded at build time) and validates arbitrary
// user-supplied custom glyphs down to a single pictographic grapheme.
package emoji

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

//go:embed data/emoji-test.txt
var emojiTestData string

// Glyph identifies one glyph of the font: a codepoint sequence forming a
// single user-perceived character, plus a human-readable name.
type Glyph struct {
	// Codepoints contains all scalar values forming this glyph.
	Codepoints []rune

	// Name is the human-readable name ("grinning face").
	Name string

	// Custom marks glyphs added by the user rather than the registry.
	Custom bool
}

// String returns the glyph as a Go string.
func (g Glyph) String() string {
	return string(g.Codepoints)
}

// Lead returns the first scalar value of the glyph.
func (g Glyph) Lead() rune {
	if len(g.Codepoints) == 0 {
		return 0
	}
	return g.Codepoints[0]
}

// HexKey returns the storage key for the glyph: the lowercase hex form of
// each scalar value, joined with "-". A single-scalar glyph yields the plain
// lead-scalar form, e.g. "1f600".
func (g Glyph) HexKey() string {
	parts := make([]string, len(g.Codepoints))
	for i, r := range g.Codepoints {
		parts[i] = strconv.FormatUint(uint64(r), 16)
	}
	return strings.Join(parts, "-")
}

// GlyphName returns the stable internal glyph name used in font tables,
// e.g. "emoji_1F600" or "emoji_2764_FE0F".
func (g Glyph) GlyphName() string {
	parts := make([]string, len(g.Codepoints))
	for i, r := range g.Codepoints {
		parts[i] = fmt.Sprintf("%04X", r)
	}
	return "emoji_" + strings.Join(parts, "_")
}

// Category groups registry glyphs the way the emoji-test data does.
type Category struct {
	// ID is the emoji-test subgroup identifier ("face-smiling").
	ID string

	// Name is the display name ("Smiling Faces").
	Name string

	// Glyphs lists the category's glyphs in registry order.
	Glyphs []Glyph
}

// Registry is the ordered set of standard glyphs available for capture.
type Registry struct {
	categories []Category
	glyphs     []Glyph
	byString   map[string]int
	byKey      map[string]int
}

// faceSubgroups maps the emoji-test face subgroup IDs to display names.
// Subgroups not listed here are ignored by the parser.
var faceSubgroups = map[string]string{
	"face-smiling":           "Smiling Faces",
	"face-affection":         "Affectionate Faces",
	"face-tongue":            "Faces with Tongue",
	"face-hand":              "Faces with Hand",
	"face-neutral-skeptical": "Neutral & Skeptical Faces",
	"face-sleepy":            "Sleepy Faces",
	"face-unwell":            "Unwell Faces",
	"face-hat":               "Faces with Hat",
	"face-glasses":           "Faces with Glasses",
	"face-concerned":         "Concerned Faces",
	"face-negative":          "Negative Faces",
	"face-costume":           "Costume Faces",
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry parsed from the embedded emoji-test excerpt.
// The result is shared and read-only.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := ParseRegistry(strings.NewReader(emojiTestData))
		if err != nil {
			// The embedded data is validated by the package tests;
			// a parse failure here is a build defect.
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// ParseRegistry reads emoji-test.txt formatted data and keeps the
// fully-qualified, single-codepoint entries of the face subgroups.
// Multi-codepoint sequences (ZWJ, modifier and flag sequences) are skipped.
func ParseRegistry(r io.Reader) (*Registry, error) {
	reg := &Registry{
		byString: make(map[string]int),
		byKey:    make(map[string]int),
	}

	var current *Category
	flush := func() {
		if current != nil && len(current.Glyphs) > 0 {
			reg.categories = append(reg.categories, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if sub, ok := strings.CutPrefix(line, "# subgroup:"); ok {
			flush()
			id := strings.TrimSpace(sub)
			if name, face := faceSubgroups[id]; face {
				current = &Category{ID: id, Name: name}
			}
			continue
		}
		if strings.HasPrefix(line, "# group:") {
			flush()
			continue
		}
		if current == nil || line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		glyph, ok, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("emoji: line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}
		if _, dup := reg.byKey[glyph.HexKey()]; dup {
			return nil, fmt.Errorf("emoji: line %d: duplicate glyph %s", lineNo, glyph.HexKey())
		}
		reg.byString[glyph.String()] = len(reg.glyphs)
		reg.byKey[glyph.HexKey()] = len(reg.glyphs)
		reg.glyphs = append(reg.glyphs, glyph)
		current.Glyphs = append(current.Glyphs, glyph)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("emoji: %w", err)
	}
	return reg, nil
}

// parseLine parses one emoji-test entry. The second return value is false for
// lines that are valid but excluded (not fully qualified, multi-codepoint).
func parseLine(line string) (Glyph, bool, error) {
	fieldPart, comment, found := strings.Cut(line, "#")
	if !found {
		return Glyph{}, false, nil
	}
	codes, qualifier, found := strings.Cut(fieldPart, ";")
	if !found {
		return Glyph{}, false, nil
	}
	if strings.TrimSpace(qualifier) != "fully-qualified" {
		return Glyph{}, false, nil
	}

	codes = strings.TrimSpace(codes)
	if strings.ContainsRune(codes, ' ') {
		// Multi-codepoint sequence.
		return Glyph{}, false, nil
	}
	value, err := strconv.ParseUint(codes, 16, 32)
	if err != nil {
		return Glyph{}, false, fmt.Errorf("bad codepoint %q: %w", codes, err)
	}

	// Comment layout: "<emoji> E<version> <name>".
	fields := strings.Fields(comment)
	if len(fields) < 3 {
		return Glyph{}, false, fmt.Errorf("short comment %q", comment)
	}
	name := strings.Join(fields[2:], " ")

	return Glyph{Codepoints: []rune{rune(value)}, Name: name}, true, nil
}

// Categories returns the registry's categories in order.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Glyphs returns all standard glyphs in registry order.
func (r *Registry) Glyphs() []Glyph {
	return r.glyphs
}

// Len returns the number of standard glyphs.
func (r *Registry) Len() int {
	return len(r.glyphs)
}

// Lookup resolves input to a standard glyph. The input may be the glyph
// string itself or its hex storage key.
func (r *Registry) Lookup(input string) (Glyph, bool) {
	if i, ok := r.byString[input]; ok {
		return r.glyphs[i], true
	}
	if i, ok := r.byKey[strings.ToLower(input)]; ok {
		return r.glyphs[i], true
	}
	return Glyph{}, false
}
