package facefont

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/segmenter"
	"github.com/emojiworks/facefont/store"
	"github.com/emojiworks/facefont/woff2"
)

const testSession = "abcd1234"

// faceSegmenter labels every pixel as face skin, so previews keep the whole
// frame.
type faceSegmenter struct{}

func (faceSegmenter) Segment(img image.Image) (*segmenter.LabelMap, error) {
	b := img.Bounds()
	labels := segmenter.NewLabelMap(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			labels.Set(x, y, segmenter.FaceSkin)
		}
	}
	return labels, nil
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "facefont.db")})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewEngine(st, opts...)
}

// capturePNG encodes a solid canonical-size bitmap.
func capturePNG(t *testing.T, c color.NRGBA) []byte {
	t.Helper()
	bm := bitmap.New(bitmap.CanonicalSize, bitmap.CanonicalSize)
	for y := 0; y < bm.Height(); y++ {
		for x := 0; x < bm.Width(); x++ {
			bm.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := bm.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	return buf.Bytes()
}

func TestPreviewNoSegmenter(t *testing.T) {
	eng := newTestEngine(t)
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	_, err := eng.Preview(context.Background(), img, segmenter.DefaultSettings())
	if !errors.Is(err, ErrNoSegmenter) {
		t.Fatalf("Preview: err=%v, want ErrNoSegmenter", err)
	}
}

func TestPreviewDoesNotWrite(t *testing.T) {
	eng := newTestEngine(t, WithSegmenter(faceSegmenter{}))
	ctx := context.Background()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	bm, err := eng.Preview(ctx, img, segmenter.DefaultSettings())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if bm.Width() != bitmap.CanonicalSize || bm.Height() != bitmap.CanonicalSize {
		t.Errorf("preview is %dx%d, want canonical", bm.Width(), bm.Height())
	}

	gallery, err := eng.Gallery(ctx, testSession)
	if err != nil {
		t.Fatalf("Gallery: %v", err)
	}
	for _, cat := range gallery {
		for _, item := range cat.Items {
			if item.Captured {
				t.Fatalf("glyph %s captured after Preview", item.Glyph.HexKey())
			}
		}
	}
}

func TestAcceptResolvesInput(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	png := capturePNG(t, color.NRGBA{R: 255, A: 255})

	tests := []struct {
		name    string
		input   string
		wantKey string
		custom  bool
	}{
		{"emoji string", "\U0001F600", "1f600", false},
		{"hex key", "1F603", "1f603", false},
		{"custom emoji", "\U0001F984", "1f984", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			glyph, err := eng.Accept(ctx, testSession, tt.input, png)
			if err != nil {
				t.Fatalf("Accept(%q): %v", tt.input, err)
			}
			if glyph.HexKey() != tt.wantKey {
				t.Errorf("HexKey() = %q, want %q", glyph.HexKey(), tt.wantKey)
			}
			if glyph.Custom != tt.custom {
				t.Errorf("Custom = %v, want %v", glyph.Custom, tt.custom)
			}
		})
	}
}

func TestAcceptInvalidInput(t *testing.T) {
	eng := newTestEngine(t)
	png := capturePNG(t, color.NRGBA{A: 255})
	_, err := eng.Accept(context.Background(), testSession, "xyz", png)
	if !errors.Is(err, emoji.ErrInvalidGlyph) {
		t.Fatalf("Accept(xyz): err=%v, want ErrInvalidGlyph", err)
	}
}

func TestAcceptInvalidImage(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.Accept(context.Background(), testSession, "\U0001F600", []byte("not a png"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("Accept: err=%v, want ErrInvalidImage", err)
	}
}

func TestAcceptScalesNonCanonical(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	bm := bitmap.New(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			bm.Set(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := bm.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	if _, err := eng.Accept(ctx, testSession, "\U0001F600", buf.Bytes()); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	gallery, err := eng.Gallery(ctx, testSession)
	if err != nil {
		t.Fatalf("Gallery: %v", err)
	}
	found := false
	for _, cat := range gallery {
		for _, item := range cat.Items {
			if item.Glyph.HexKey() == "1f600" && item.Captured {
				found = true
			}
		}
	}
	if !found {
		t.Error("scaled capture not stored")
	}
}

func TestGalleryCustomCategory(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	png := capturePNG(t, color.NRGBA{G: 255, A: 255})

	if _, err := eng.Accept(ctx, testSession, "\U0001F984", png); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	gallery, err := eng.Gallery(ctx, testSession)
	if err != nil {
		t.Fatalf("Gallery: %v", err)
	}
	last := gallery[len(gallery)-1]
	if last.Name != CustomCategory {
		t.Fatalf("last category = %q, want %q", last.Name, CustomCategory)
	}
	if len(last.Items) != 1 || last.Items[0].Glyph.HexKey() != "1f984" {
		t.Errorf("custom category items = %+v", last.Items)
	}
	if last.Items[0].UpdatedAt.IsZero() {
		t.Error("custom capture has zero UpdatedAt")
	}
}

func TestDeleteCapture(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	png := capturePNG(t, color.NRGBA{R: 128, A: 255})

	if _, err := eng.Accept(ctx, testSession, "\U0001F600", png); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	deleted, err := eng.DeleteCapture(ctx, testSession, "\U0001F600")
	if err != nil || !deleted {
		t.Fatalf("DeleteCapture = (%v, %v), want (true, nil)", deleted, err)
	}
	deleted, err = eng.DeleteCapture(ctx, testSession, "\U0001F600")
	if err != nil || deleted {
		t.Fatalf("second DeleteCapture = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	got, err := eng.Settings(ctx, testSession)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got != segmenter.DefaultSettings() {
		t.Errorf("initial settings = %+v, want defaults", got)
	}

	want := segmenter.Settings{Padding: 0.25, KeepBackground: true, KeepClothes: true}
	if err := eng.SaveSettings(ctx, testSession, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err = eng.Settings(ctx, testSession)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

// TestExportWorkflow runs the full capture-to-font path: two standard
// captures and a custom one become a four-glyph font, staleness tracks
// subsequent edits, and a failed export leaves the prior artifact intact.
func TestExportWorkflow(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for _, in := range []string{"\U0001F600", "\U0001F603", "\U0001F984"} {
		if _, err := eng.Accept(ctx, testSession, in, capturePNG(t, color.NRGBA{R: 200, A: 255})); err != nil {
			t.Fatalf("Accept(%q): %v", in, err)
		}
	}

	stale, err := eng.Stale(ctx, testSession)
	if err != nil || !stale {
		t.Fatalf("Stale before export = (%v, %v), want (true, nil)", stale, err)
	}

	artifact, err := eng.Export(ctx, testSession, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if artifact.FontName != DefaultFamily {
		t.Errorf("FontName = %q, want %q", artifact.FontName, DefaultFamily)
	}

	tables, err := woff2.Decompress(artifact.WOFF2)
	if err != nil {
		t.Fatalf("Decompress(artifact): %v", err)
	}
	tags := make(map[string]bool, len(tables))
	for _, tab := range tables {
		tags[tab.Tag] = true
	}
	for _, tag := range []string{"CBDT", "CBLC", "SVG ", "cmap", "glyf", "head"} {
		if !tags[tag] {
			t.Errorf("artifact is missing table %q", tag)
		}
	}

	stale, err = eng.Stale(ctx, testSession)
	if err != nil || stale {
		t.Fatalf("Stale after export = (%v, %v), want (false, nil)", stale, err)
	}

	// Editing a capture makes the artifact stale but keeps it available.
	if _, err := eng.Accept(ctx, testSession, "\U0001F600", capturePNG(t, color.NRGBA{B: 200, A: 255})); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	stale, err = eng.Stale(ctx, testSession)
	if err != nil || !stale {
		t.Fatalf("Stale after edit = (%v, %v), want (true, nil)", stale, err)
	}

	// A failing export must not clobber the stored artifact.
	for _, in := range []string{"\U0001F600", "\U0001F603", "\U0001F984"} {
		if _, err := eng.DeleteCapture(ctx, testSession, in); err != nil {
			t.Fatalf("DeleteCapture(%q): %v", in, err)
		}
	}
	if _, err := eng.Export(ctx, testSession, ""); err == nil {
		t.Fatal("Export with no captures succeeded, want error")
	}
	prev, err := eng.Artifact(ctx, testSession)
	if err != nil {
		t.Fatalf("Artifact after failed export: %v", err)
	}
	if !bytes.Equal(prev.WOFF2, artifact.WOFF2) {
		t.Error("failed export replaced the previous artifact")
	}
}

// TestExportDeterministicModuloToken exports the same two captures twice and
// checks the artifacts agree on every table except name, which carries the
// fresh cache-busting token.
func TestExportDeterministicModuloToken(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for _, in := range []string{"\U0001F600", "\U0001F603"} {
		if _, err := eng.Accept(ctx, testSession, in, capturePNG(t, color.NRGBA{R: 90, G: 60, A: 255})); err != nil {
			t.Fatalf("Accept(%q): %v", in, err)
		}
	}

	first, err := eng.Export(ctx, testSession, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := eng.Export(ctx, testSession, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	tablesOf := func(artifact *store.Artifact) map[string][]byte {
		tables, err := woff2.Decompress(artifact.WOFF2)
		if err != nil {
			t.Fatalf("Decompress: %v", err)
		}
		m := make(map[string][]byte, len(tables))
		for _, tab := range tables {
			m[tab.Tag] = tab.Data
		}
		return m
	}
	a, b := tablesOf(first), tablesOf(second)

	// Two captures plus .notdef.
	if got := binary.BigEndian.Uint16(a["maxp"][4:]); got != 3 {
		t.Errorf("maxp numGlyphs = %d, want 3", got)
	}

	for tag, data := range a {
		if tag == "name" {
			if bytes.Equal(data, b[tag]) {
				t.Error("name tables are identical, want distinct cache tokens")
			}
			continue
		}
		if !bytes.Equal(data, b[tag]) {
			t.Errorf("table %q differs between exports", tag)
		}
	}

	stale, err := eng.Stale(ctx, testSession)
	if err != nil || stale {
		t.Fatalf("Stale after re-export = (%v, %v), want (false, nil)", stale, err)
	}
}

func TestExportCustomFamily(t *testing.T) {
	eng := newTestEngine(t, WithFamily("HouseStyle"))
	ctx := context.Background()

	if _, err := eng.Accept(ctx, testSession, "\U0001F600", capturePNG(t, color.NRGBA{A: 255})); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	artifact, err := eng.Export(ctx, testSession, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if artifact.FontName != "HouseStyle" {
		t.Errorf("FontName = %q, want engine default", artifact.FontName)
	}

	artifact, err = eng.Export(ctx, testSession, "OneOff")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if artifact.FontName != "OneOff" {
		t.Errorf("FontName = %q, want explicit override", artifact.FontName)
	}
}

func TestArchive(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	want := map[string][]byte{
		"1f600.png": capturePNG(t, color.NRGBA{R: 255, A: 255}),
		"1f603.png": capturePNG(t, color.NRGBA{G: 255, A: 255}),
	}
	for name, png := range want {
		input := name[:len(name)-len(".png")]
		if _, err := eng.Accept(ctx, testSession, input, png); err != nil {
			t.Fatalf("Accept(%q): %v", input, err)
		}
	}

	var buf bytes.Buffer
	if err := eng.Archive(ctx, testSession, &buf); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != len(want) {
		t.Fatalf("archive has %d files, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		wantPNG, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected archive entry %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %q: %v", f.Name, err)
		}
		got := new(bytes.Buffer)
		if _, err := got.ReadFrom(rc); err != nil {
			t.Fatalf("read %q: %v", f.Name, err)
		}
		_ = rc.Close()
		if !bytes.Equal(got.Bytes(), wantPNG) {
			t.Errorf("archive entry %q does not match the stored PNG", f.Name)
		}
	}
}
