package sfnt

import "sort"

// buildHead serializes the font header table. The created/modified dates are
// pinned so that repeated assembly of the same entry set stays byte-identical
// outside the name table's cache token.
func buildHead() []byte {
	w := &writer{}
	w.u32(0x00010000) // version 1.0
	w.u32(0x00010000) // fontRevision
	w.u32(0)          // checkSumAdjustment, patched during serialization
	w.u32(0x5F0F3CF5) // magicNumber
	w.u16(0x0003)     // flags: baseline at y=0, lsb at x=0
	w.u16(unitsPerEm)
	w.i64(0) // created
	w.i64(0) // modified
	w.i16(0)          // xMin
	w.i16(descent)    // yMin
	w.i16(unitsPerEm) // xMax
	w.i16(ascent)     // yMax
	w.u16(0)          // macStyle
	w.u16(8)          // lowestRecPPEM
	w.i16(2)          // fontDirectionHint
	w.i16(1)          // indexToLocFormat: long
	w.i16(0)          // glyphDataFormat
	return w.buf
}

// buildHhea serializes the horizontal header table.
func buildHhea(numGlyphs int) []byte {
	w := &writer{}
	w.u32(0x00010000) // version 1.0
	w.i16(ascent)
	w.i16(descent)
	w.i16(0)          // lineGap
	w.u16(unitsPerEm) // advanceWidthMax
	w.i16(0)          // minLeftSideBearing
	w.i16(0)          // minRightSideBearing
	w.i16(unitsPerEm) // xMaxExtent
	w.i16(1)          // caretSlopeRise
	w.i16(0)          // caretSlopeRun
	w.i16(0)          // caretOffset
	w.skip(8)         // reserved
	w.i16(0)          // metricDataFormat
	w.u16(uint16(numGlyphs))
	return w.buf
}

// buildMaxp serializes the maximum profile. Every glyph is the same
// four-point box contour, so the maxima are trivial.
func buildMaxp(numGlyphs int) []byte {
	w := &writer{}
	w.u32(0x00010000) // version 1.0
	w.u16(uint16(numGlyphs))
	w.u16(4) // maxPoints
	w.u16(1) // maxContours
	w.u16(0) // maxCompositePoints
	w.u16(0) // maxCompositeContours
	w.u16(2) // maxZones
	w.u16(0) // maxTwilightPoints
	w.u16(0) // maxStorage
	w.u16(0) // maxFunctionDefs
	w.u16(0) // maxInstructionDefs
	w.u16(0) // maxStackElements
	w.u16(0) // maxSizeOfInstructions
	w.u16(0) // maxComponentElements
	w.u16(0) // maxComponentDepth
	return w.buf
}

// buildHmtx serializes the horizontal metrics: a fixed-width font, every
// glyph advances one em with zero side bearing.
func buildHmtx(numGlyphs int) []byte {
	w := &writer{}
	for i := 0; i < numGlyphs; i++ {
		w.u16(unitsPerEm) // advanceWidth
		w.i16(0)          // leftSideBearing
	}
	return w.buf
}

// buildOS2 serializes a version 4 OS/2 table.
func buildOS2(mapping map[rune]uint16) []byte {
	first, last := bmpRange(mapping)

	w := &writer{}
	w.u16(4)          // version
	w.i16(unitsPerEm) // xAvgCharWidth
	w.u16(400)        // usWeightClass
	w.u16(5)          // usWidthClass
	w.u16(0)          // fsType
	w.i16(650)        // ySubscriptXSize
	w.i16(699)        // ySubscriptYSize
	w.i16(0)          // ySubscriptXOffset
	w.i16(140)        // ySubscriptYOffset
	w.i16(650)        // ySuperscriptXSize
	w.i16(699)        // ySuperscriptYSize
	w.i16(0)          // ySuperscriptXOffset
	w.i16(479)        // ySuperscriptYOffset
	w.i16(49)         // yStrikeoutSize
	w.i16(258)        // yStrikeoutPosition
	w.i16(0)          // sFamilyClass
	w.skip(10)        // panose
	w.u32(0)          // ulUnicodeRange1
	w.u32(0)          // ulUnicodeRange2
	w.u32(0)          // ulUnicodeRange3
	w.u32(0)          // ulUnicodeRange4
	w.tag("NONE")     // achVendID
	w.u16(0x0040)     // fsSelection: regular
	w.u16(first)      // usFirstCharIndex
	w.u16(last)       // usLastCharIndex
	w.i16(ascent)     // sTypoAscender
	w.i16(descent)    // sTypoDescender
	w.i16(0)          // sTypoLineGap
	w.u16(ascent)     // usWinAscent
	w.u16(-descent)   // usWinDescent
	w.u32(1)          // ulCodePageRange1: Latin 1
	w.u32(0)          // ulCodePageRange2
	w.i16(512)        // sxHeight
	w.i16(700)        // sCapHeight
	w.u16(0)          // usDefaultChar
	w.u16(32)         // usBreakChar
	w.u16(0)          // usMaxContext
	return w.buf
}

// bmpRange returns the lowest and highest mapped codepoints clipped to the
// BMP, with 0xFFFF for supplementary-only fonts.
func bmpRange(mapping map[rune]uint16) (first, last uint16) {
	min, max := rune(-1), rune(-1)
	for r := range mapping {
		if min < 0 || r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	clip := func(r rune) uint16 {
		if r < 0 || r > 0xFFFF {
			return 0xFFFF
		}
		return uint16(r)
	}
	return clip(min), clip(max)
}

// buildPost serializes a version 3.0 post table (no glyph names).
func buildPost() []byte {
	w := &writer{}
	w.u32(0x00030000) // version 3.0
	w.u32(0)          // italicAngle
	w.i16(0)          // underlinePosition
	w.i16(0)          // underlineThickness
	w.u32(0)          // isFixedPitch
	w.u32(0)          // minMemType42
	w.u32(0)          // maxMemType42
	w.u32(0)          // minMemType1
	w.u32(0)          // maxMemType1
	return w.buf
}

// Name IDs emitted in the name table.
const (
	nameFamily     = 1
	nameSubfamily  = 2
	nameUniqueID   = 3
	nameFullName   = 4
	nameVersion    = 5
	namePostScript = 6
)

// buildName serializes a format 0 name table with Windows Unicode records.
// The subfamily carries the cache-busting token so every regeneration has a
// distinct identity.
func buildName(family, token string) []byte {
	records := map[uint16]string{
		nameFamily:     family,
		nameSubfamily:  token,
		nameUniqueID:   family + " " + token,
		nameFullName:   family + " " + token,
		nameVersion:    "Version 1.0",
		namePostScript: postScriptName(family, token),
	}

	ids := make([]int, 0, len(records))
	for id := range records {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var pool writer
	type record struct {
		id     uint16
		offset uint16
		length uint16
	}
	recs := make([]record, 0, len(ids))
	for _, id := range ids {
		offset := uint16(pool.len())
		for _, r := range []rune(records[uint16(id)]) {
			pool.u16(uint16(r)) // UTF-16BE; all name strings are BMP
		}
		recs = append(recs, record{uint16(id), offset, uint16(pool.len()) - offset})
	}

	w := &writer{}
	w.u16(0) // format
	w.u16(uint16(len(recs)))
	w.u16(uint16(6 + 12*len(recs))) // stringOffset
	for _, r := range recs {
		w.u16(3)      // platformID: Windows
		w.u16(1)      // encodingID: Unicode BMP
		w.u16(0x0409) // languageID: en-US
		w.u16(r.id)
		w.u16(r.length)
		w.u16(r.offset)
	}
	w.bytes(pool.buf)
	return w.buf
}

// postScriptName builds nameID 6: no spaces, family and token joined.
func postScriptName(family, token string) string {
	out := make([]rune, 0, len(family)+1+len(token))
	for _, r := range family {
		if r != ' ' {
			out = append(out, r)
		}
	}
	out = append(out, '-')
	out = append(out, []rune(token)...)
	return string(out)
}
