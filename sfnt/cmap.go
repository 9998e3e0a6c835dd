package sfnt

import "sort"

// buildCmap serializes a cmap with two Windows subtables: format 4 for BMP
// scalars and format 12 covering the full mapping. Emoji live almost entirely
// in the supplementary planes, so format 12 does the real work; format 4 is
// required by validators and covers whatever BMP scalars are mapped.
func buildCmap(mapping map[rune]uint16) []byte {
	runes := make([]rune, 0, len(mapping))
	for r := range mapping {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	f4 := buildCmapFormat4(runes, mapping)
	f12 := buildCmapFormat12(runes, mapping)

	const headerSize = 4 + 2*8 // version, numTables, 2 encoding records
	w := &writer{}
	w.u16(0) // version
	w.u16(2) // numTables
	w.u16(3) // platformID: Windows
	w.u16(1) // encodingID: Unicode BMP
	w.u32(headerSize)
	w.u16(3)  // platformID: Windows
	w.u16(10) // encodingID: Unicode full
	w.u32(uint32(headerSize + len(f4)))
	w.bytes(f4)
	w.bytes(f12)
	return w.buf
}

// buildCmapFormat4 maps BMP scalars with one segment per scalar plus the
// mandatory 0xFFFF terminator. The mapped set is small, so segment-per-scalar
// keeps the encoding trivial without meaningful size cost.
func buildCmapFormat4(runes []rune, mapping map[rune]uint16) []byte {
	var bmp []rune
	for _, r := range runes {
		if r <= 0xFFFF && r != 0xFFFF {
			bmp = append(bmp, r)
		}
	}

	segCount := len(bmp) + 1
	searchRange, entrySelector := binarySearchParams(segCount)

	w := &writer{}
	w.u16(4) // format
	w.u16(uint16(16 + 8*segCount))
	w.u16(0) // language
	w.u16(uint16(segCount * 2))
	w.u16(uint16(searchRange * 2))
	w.u16(uint16(entrySelector))
	w.u16(uint16((segCount - searchRange) * 2))
	for _, r := range bmp {
		w.u16(uint16(r)) // endCode
	}
	w.u16(0xFFFF)
	w.u16(0) // reservedPad
	for _, r := range bmp {
		w.u16(uint16(r)) // startCode
	}
	w.u16(0xFFFF)
	for _, r := range bmp {
		w.u16(mapping[r] - uint16(r)) // idDelta, mod 65536
	}
	w.u16(1)
	for i := 0; i < segCount; i++ {
		w.u16(0) // idRangeOffset
	}
	return w.buf
}

// buildCmapFormat12 maps every scalar with a one-scalar sequential group.
func buildCmapFormat12(runes []rune, mapping map[rune]uint16) []byte {
	w := &writer{}
	w.u16(12)
	w.u16(0) // reserved
	w.u32(uint32(16 + 12*len(runes)))
	w.u32(0) // language
	w.u32(uint32(len(runes)))
	for _, r := range runes {
		w.u32(uint32(r)) // startCharCode
		w.u32(uint32(r)) // endCharCode
		w.u32(uint32(mapping[r]))
	}
	return w.buf
}

// binarySearchParams returns the largest power of two not exceeding n and its
// log2, as prescribed for sfnt binary-search headers.
func binarySearchParams(n int) (pow2, log2 int) {
	pow2, log2 = 1, 0
	for pow2*2 <= n {
		pow2 *= 2
		log2++
	}
	return pow2, log2
}
