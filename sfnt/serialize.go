package sfnt

import "encoding/binary"

// Bytes serializes the font as an uncompressed TrueType-flavored sfnt: offset
// table, directory entries in tag order, then each table padded to a 4-byte
// boundary, with head's checkSumAdjustment patched last.
func (f *Font) Bytes() []byte {
	numTables := len(f.tables)
	searchRange, entrySelector := binarySearchParams(numTables)

	w := &writer{}
	w.u32(0x00010000) // sfnt version: TrueType outlines
	w.u16(uint16(numTables))
	w.u16(uint16(searchRange * 16))
	w.u16(uint16(entrySelector))
	w.u16(uint16((numTables - searchRange) * 16))

	offset := uint32(12 + 16*numTables)
	headOffset := uint32(0)
	for _, t := range f.tables {
		if t.Tag == "head" {
			headOffset = offset
		}
		w.tag(t.Tag)
		w.u32(tableChecksum(t.Data))
		w.u32(offset)
		w.u32(uint32(len(t.Data)))
		offset += uint32(padded(len(t.Data)))
	}
	for _, t := range f.tables {
		w.bytes(t.Data)
		w.pad4()
	}

	adjustment := 0xB1B0AFBA - tableChecksum(w.buf)
	binary.BigEndian.PutUint32(w.buf[headOffset+8:], adjustment)
	return w.buf
}

// tableChecksum sums the data as big-endian uint32s, zero-padding the tail.
func tableChecksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var v uint32
		for j := 0; j < 4; j++ {
			v <<= 8
			if i+j < len(data) {
				v |= uint32(data[i+j])
			}
		}
		sum += v
	}
	return sum
}

// padded rounds n up to a 4-byte boundary.
func padded(n int) int { return (n + 3) &^ 3 }
