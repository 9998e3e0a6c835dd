package sfnt

// Every glyph, .notdef included, carries the same box contour spanning the em
// square. The contour gives renderers without color-table support something to
// hit-test and keeps the bitmap tables authoritative for appearance.
//
// Points in contour order: (0,descent) (0,ascent) (unitsPerEm,ascent)
// (unitsPerEm,descent), all on-curve.

// buildGlyf serializes the glyf table and its matching long-format loca.
func buildGlyf(numGlyphs int) (glyf, loca []byte) {
	var box writer
	box.i16(1) // numberOfContours
	box.i16(0)
	box.i16(descent)
	box.i16(unitsPerEm)
	box.i16(ascent)
	box.u16(3) // endPtsOfContours[0]
	box.u16(0) // instructionLength
	for i := 0; i < 4; i++ {
		box.u8(0x01) // on-curve, full deltas
	}
	for _, dx := range []int16{0, 0, unitsPerEm, 0} {
		box.i16(dx)
	}
	for _, dy := range []int16{descent, ascent - descent, 0, descent - ascent} {
		box.i16(dy)
	}
	box.pad4()

	g := &writer{}
	l := &writer{}
	for i := 0; i < numGlyphs; i++ {
		l.u32(uint32(g.len()))
		g.bytes(box.buf)
	}
	l.u32(uint32(g.len()))
	return g.buf, l.buf
}
