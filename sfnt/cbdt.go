package sfnt

// Color bitmap tables. One strike at the canonical ppem, image format 17
// (small glyph metrics followed by PNG data) indexed by a single format 1
// subtable covering the contiguous glyph range.

// Strike metrics scaled from font units to the strike's pixel size.
const (
	strikeAscent  = (ascent*ppem + unitsPerEm/2) / unitsPerEm
	strikeDescent = -((-descent*ppem + unitsPerEm/2) / unitsPerEm)
)

// smallGlyphMetrics appends the 5-byte metrics record for one bitmap glyph.
func smallGlyphMetrics(w *writer, width, height int) {
	w.u8(uint8(height))
	w.u8(uint8(width))
	w.i8(0) // bearingX
	w.i8(strikeAscent)
	w.u8(uint8(width)) // advance
}

// buildCBDT serializes the bitmap data table: a version header followed by
// each glyph's metrics, PNG length, and PNG bytes in glyph order.
func buildCBDT(glyphs []glyphSource) []byte {
	w := &writer{}
	w.u32(0x00030000)
	for _, g := range glyphs {
		smallGlyphMetrics(w, ppem, ppem)
		w.u32(uint32(len(g.png)))
		w.bytes(g.png)
	}
	return w.buf
}

// buildCBLC serializes the bitmap location table for the single strike. The
// index subtable stores offsets relative to the first glyph record, so the
// CBDT version header is skipped via imageDataOffset.
func buildCBLC(glyphs []glyphSource) []byte {
	firstGlyph := glyphs[0].id
	lastGlyph := glyphs[len(glyphs)-1].id

	const (
		bitmapSizeTableSize     = 48
		indexSubTableArrayEntry = 8
		indexSubTableHeaderSize = 8
		imageDataOffset         = 4 // CBDT version header
	)
	indexTablesSize := indexSubTableArrayEntry + indexSubTableHeaderSize + (len(glyphs)+1)*4

	w := &writer{}
	w.u32(0x00030000)
	w.u32(1) // numSizes

	// bitmapSize record
	w.u32(8 + bitmapSizeTableSize) // indexSubTableArrayOffset
	w.u32(uint32(indexTablesSize))
	w.u32(1) // numberOfIndexSubTables
	w.u32(0) // colorRef
	for i := 0; i < 2; i++ {
		// hori and vert sbitLineMetrics
		w.i8(strikeAscent)
		w.i8(strikeDescent)
		w.u8(ppem) // widthMax
		w.skip(9)
	}
	w.u16(firstGlyph) // startGlyphIndex
	w.u16(lastGlyph)  // endGlyphIndex
	w.u8(ppem)        // ppemX
	w.u8(ppem)        // ppemY
	w.u8(32)          // bitDepth
	w.i8(0x01)        // flags: horizontal metrics

	// indexSubTableArray
	w.u16(firstGlyph)
	w.u16(lastGlyph)
	w.u32(indexSubTableArrayEntry) // additionalOffsetToIndexSubtable

	// indexSubTable format 1 header
	w.u16(1)  // indexFormat
	w.u16(17) // imageFormat
	w.u32(imageDataOffset)

	offset := uint32(0)
	for _, g := range glyphs {
		w.u32(offset)
		offset += 5 + 4 + uint32(len(g.png)) // metrics, length, data
	}
	w.u32(offset)
	return w.buf
}
