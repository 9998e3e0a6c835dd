package facefont

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/segmenter"
	"github.com/emojiworks/facefont/sfnt"
	"github.com/emojiworks/facefont/store"
	"github.com/emojiworks/facefont/woff2"
)

// DefaultFamily is the font family used by Export when no name is given.
const DefaultFamily = "FaceFont"

// Engine errors.
var (
	// ErrNoSegmenter indicates Preview was called on an Engine built
	// without a segmentation backend.
	ErrNoSegmenter = errors.New("facefont: no segmenter configured")

	// ErrInvalidImage indicates a capture payload could not be decoded.
	ErrInvalidImage = errors.New("facefont: invalid image")
)

// Engine wires the registry, segmenter, and capture store into the capture
// and export workflow. All methods are safe for concurrent use; concurrent
// writes to the same capture are serialized by the store.
type Engine struct {
	store     *store.Store
	registry  *emoji.Registry
	segmenter segmenter.Segmenter
	family    string
}

// NewEngine creates an Engine on top of an open store.
func NewEngine(st *store.Store, opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		store:     st,
		registry:  o.registry,
		segmenter: o.segmenter,
		family:    o.family,
	}
}

// Registry returns the engine's standard glyph registry.
func (e *Engine) Registry() *emoji.Registry { return e.registry }

// Preview crops img to a canonical face bitmap without storing anything.
// The result is what Accept would persist for the same frame and settings.
func (e *Engine) Preview(ctx context.Context, img image.Image, settings segmenter.Settings) (*bitmap.Bitmap, error) {
	if e.segmenter == nil {
		return nil, ErrNoSegmenter
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segmenter.Crop(e.segmenter, img, settings)
}

// Accept stores png as the session's capture for the glyph named by input.
// Input is resolved against the standard registry first (by emoji string or
// hex key); anything else must parse as a custom single-grapheme emoji.
// Non-canonical images are scaled to the canonical size before storage.
func (e *Engine) Accept(ctx context.Context, session, input string, png []byte) (emoji.Glyph, error) {
	glyph, err := e.resolve(input)
	if err != nil {
		return emoji.Glyph{}, err
	}

	bm, err := bitmap.DecodePNG(bytes.NewReader(png))
	if err != nil {
		return emoji.Glyph{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if bm.Width() != bitmap.CanonicalSize || bm.Height() != bitmap.CanonicalSize {
		bm = bm.FitSquare(bitmap.CanonicalSize)
	}

	if err := e.store.Put(ctx, session, glyph, bm); err != nil {
		return emoji.Glyph{}, err
	}
	return glyph, nil
}

// resolve maps user input to a glyph: standard registry first, then custom.
func (e *Engine) resolve(input string) (emoji.Glyph, error) {
	if glyph, ok := e.registry.Lookup(input); ok {
		return glyph, nil
	}
	return emoji.ParseCustom(input)
}

// GalleryItem is one glyph slot in the gallery: a standard registry glyph or
// a stored custom capture, with its capture state.
type GalleryItem struct {
	Glyph     emoji.Glyph
	Captured  bool
	UpdatedAt time.Time // zero when not captured
}

// GalleryCategory groups gallery items under a registry category name.
type GalleryCategory struct {
	Name  string
	Items []GalleryItem
}

// CustomCategory is the name of the synthetic category holding custom
// captures in Gallery output.
const CustomCategory = "custom"

// Gallery returns every standard glyph grouped by registry category, marked
// with its capture state, followed by a synthetic category holding the
// session's custom captures in capture order.
func (e *Engine) Gallery(ctx context.Context, session string) ([]GalleryCategory, error) {
	captures, err := e.store.List(ctx, session)
	if err != nil {
		return nil, err
	}

	type state struct {
		updatedAt time.Time
	}
	captured := make(map[string]state, len(captures))
	var custom []GalleryItem
	for _, c := range captures {
		if c.Glyph.Custom {
			custom = append(custom, GalleryItem{Glyph: c.Glyph, Captured: true, UpdatedAt: c.UpdatedAt})
			continue
		}
		captured[c.Glyph.HexKey()] = state{updatedAt: c.UpdatedAt}
	}

	var out []GalleryCategory
	for _, cat := range e.registry.Categories() {
		items := make([]GalleryItem, 0, len(cat.Glyphs))
		for _, g := range cat.Glyphs {
			item := GalleryItem{Glyph: g}
			if st, ok := captured[g.HexKey()]; ok {
				item.Captured = true
				item.UpdatedAt = st.updatedAt
			}
			items = append(items, item)
		}
		out = append(out, GalleryCategory{Name: cat.Name, Items: items})
	}
	if len(custom) > 0 {
		out = append(out, GalleryCategory{Name: CustomCategory, Items: custom})
	}
	return out, nil
}

// DeleteCapture removes the capture named by input. It reports whether a
// capture was removed.
func (e *Engine) DeleteCapture(ctx context.Context, session, input string) (bool, error) {
	glyph, err := e.resolve(input)
	if err != nil {
		return false, err
	}
	return e.store.Delete(ctx, session, glyph.HexKey())
}

// ClearCaptures removes every capture and the session's font artifact,
// returning the number of captures removed.
func (e *Engine) ClearCaptures(ctx context.Context, session string) (int, error) {
	return e.store.Clear(ctx, session)
}

// Settings returns the session's stored crop settings, or defaults.
func (e *Engine) Settings(ctx context.Context, session string) (segmenter.Settings, error) {
	return e.store.Settings(ctx, session)
}

// SaveSettings validates and stores the session's crop settings.
func (e *Engine) SaveSettings(ctx context.Context, session string, settings segmenter.Settings) error {
	return e.store.SaveSettings(ctx, session, settings)
}

// Export assembles the session's captures into a WOFF2 font and stores it as
// the session's artifact. The capture set is snapshotted up front; captures
// stored after the snapshot do not appear in the font and leave it stale.
// On failure the previous artifact is left untouched.
//
// fontName overrides the engine's default family for this export only.
func (e *Engine) Export(ctx context.Context, session, fontName string) (*store.Artifact, error) {
	captures, err := e.store.List(ctx, session)
	if err != nil {
		return nil, err
	}
	generatedAt := time.Now()

	entries := make([]sfnt.Entry, len(captures))
	for i, c := range captures {
		entries[i] = sfnt.Entry{Glyph: c.Glyph, Bitmap: c.Bitmap}
	}

	family := fontName
	if family == "" {
		family = e.family
	}
	font, err := sfnt.Assemble(entries, sfnt.Options{Family: family})
	if err != nil {
		return nil, err
	}
	container, err := woff2.Compress(font)
	if err != nil {
		return nil, err
	}

	artifact := store.Artifact{
		FontName:    family,
		WOFF2:       container,
		GeneratedAt: generatedAt,
	}
	if err := e.store.SaveArtifact(ctx, session, artifact); err != nil {
		return nil, err
	}
	Logger().Info("font exported",
		"session", session, "family", family,
		"glyphs", font.NumGlyphs(), "bytes", len(container))
	return &artifact, nil
}

// Artifact returns the session's current font artifact, or
// store.ErrNotFound when none has been exported.
func (e *Engine) Artifact(ctx context.Context, session string) (*store.Artifact, error) {
	return e.store.Artifact(ctx, session)
}

// Stale reports whether the session's captures have changed since the last
// export. A session with captures but no artifact is stale.
func (e *Engine) Stale(ctx context.Context, session string) (bool, error) {
	return e.store.Stale(ctx, session)
}

// Archive writes a ZIP of the session's capture PNGs to w, one file per
// capture named by its hex key.
func (e *Engine) Archive(ctx context.Context, session string, w io.Writer) error {
	captures, err := e.store.List(ctx, session)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, c := range captures {
		f, err := zw.Create(c.Glyph.HexKey() + ".png")
		if err != nil {
			return fmt.Errorf("facefont: archive: %w", err)
		}
		if _, err := f.Write(c.PNG); err != nil {
			return fmt.Errorf("facefont: archive: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("facefont: archive: %w", err)
	}
	return nil
}
