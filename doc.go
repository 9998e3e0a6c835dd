// Package facefont turns per-glyph face captures into installable color
// emoji fonts.
//
// The package is a facade over the pipeline packages: emoji resolves user
// input to glyphs, segmenter crops captured frames to canonical face
// bitmaps, store persists captures per session, sfnt assembles the dual
// CBDT/CBLC and SVG color tables, and woff2 wraps the result for the web.
//
// Typical use:
//
//	st, err := store.Open(store.Config{Path: "facefont.db"})
//	if err != nil { ... }
//	eng := facefont.NewEngine(st, facefont.WithSegmenter(seg))
//
//	bm, err := eng.Preview(ctx, frame, settings)   // crop, never stored
//	_, err = eng.Accept(ctx, session, "😀", png)   // store a capture
//	art, err := eng.Export(ctx, session, "MyFace") // build the font
//
// By default facefont produces no log output; call SetLogger to enable it.
package facefont
