// Package woff2 wraps an assembled font in the WOFF2 container format.
//
// Tables are carried untransformed: glyf and loca use the explicit null
// transform (version 3), so the compressed stream is the raw table data of
// every table back to back under one brotli stream. Compression uses brotli
// quality 5, which is close to the default's ratio at a fraction of the cost.
package woff2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/emojiworks/facefont/sfnt"
)

// Errors returned by this package.
var (
	// ErrCompressionFailed indicates the brotli stream could not be written.
	ErrCompressionFailed = errors.New("woff2: compression failed")

	// ErrNotWOFF2 indicates the data does not start with the WOFF2 signature.
	ErrNotWOFF2 = errors.New("woff2: not a WOFF2 container")

	// ErrMalformed indicates the container is structurally invalid.
	ErrMalformed = errors.New("woff2: malformed container")

	// ErrTransformedTable indicates a table uses a preprocessing transform,
	// which this reader does not implement.
	ErrTransformedTable = errors.New("woff2: transformed table not supported")
)

const (
	signature    = 0x774F4632 // "wOF2"
	flavorSfnt   = 0x00010000
	headerSize   = 48
	brotliLevel  = 5
	arbitraryTag = 63 // flags value meaning a 4-byte tag follows
)

// knownTags is the WOFF2 known-table-tags list. A table whose tag appears
// here is identified in the directory by its index instead of raw bytes.
var knownTags = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

func knownTagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return -1
}

// streamOrder returns the font's tables reordered so loca immediately
// follows glyf, as WOFF2 readers expect for the glyf/loca pair.
func streamOrder(tables []sfnt.Table) []sfnt.Table {
	var loca *sfnt.Table
	hasGlyf := false
	for i := range tables {
		switch tables[i].Tag {
		case "loca":
			loca = &tables[i]
		case "glyf":
			hasGlyf = true
		}
	}

	out := make([]sfnt.Table, 0, len(tables))
	for i := range tables {
		if tables[i].Tag == "loca" && hasGlyf {
			continue
		}
		out = append(out, tables[i])
		if tables[i].Tag == "glyf" && loca != nil {
			out = append(out, *loca)
		}
	}
	return out
}

// Compress serializes the font into a WOFF2 container.
func Compress(f *sfnt.Font) ([]byte, error) {
	tables := streamOrder(f.Tables())

	var stream bytes.Buffer
	for _, t := range tables {
		stream.Write(t.Data)
	}
	var compressed bytes.Buffer
	bw := brotli.NewWriterLevel(&compressed, brotliLevel)
	if _, err := bw.Write(stream.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}

	var dir bytes.Buffer
	totalSfntSize := uint32(12 + 16*len(tables))
	for _, t := range tables {
		writeDirectoryEntry(&dir, t)
		totalSfntSize += uint32((len(t.Data) + 3) &^ 3)
	}

	length := headerSize + dir.Len() + compressed.Len()
	length = (length + 3) &^ 3 // container padded to 4 bytes

	var out bytes.Buffer
	out.Grow(length)
	be := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		out.Write(b[:])
	}
	be16 := func(v uint16) {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], v)
		out.Write(b[:])
	}

	be(signature)
	be(flavorSfnt)
	be(uint32(length))
	be16(uint16(len(tables)))
	be16(0) // reserved
	be(totalSfntSize)
	be(uint32(compressed.Len()))
	be16(1) // majorVersion
	be16(0) // minorVersion
	be(0)   // metaOffset
	be(0)   // metaLength
	be(0)   // metaOrigLength
	be(0)   // privOffset
	be(0)   // privLength
	out.Write(dir.Bytes())
	out.Write(compressed.Bytes())
	for out.Len() < length {
		out.WriteByte(0)
	}
	return out.Bytes(), nil
}

// writeDirectoryEntry emits one table's flags, optional tag, and origLength.
// glyf and loca carry the null transform (version 3); everything else uses
// version 0, which is the null transform for all other tables.
func writeDirectoryEntry(w *bytes.Buffer, t sfnt.Table) {
	flags := knownTagIndex(t.Tag)
	known := flags >= 0
	if !known {
		flags = arbitraryTag
	}
	if t.Tag == "glyf" || t.Tag == "loca" {
		flags |= 3 << 6
	}
	w.WriteByte(byte(flags))
	if !known {
		w.WriteString(t.Tag)
	}
	writeBase128(w, uint32(len(t.Data)))
}

// writeBase128 emits a UIntBase128: 7 bits per byte, most significant first,
// high bit set on all but the last byte.
func writeBase128(w *bytes.Buffer, v uint32) {
	var tmp [5]byte
	n := 0
	for {
		tmp[n] = byte(v & 0x7F)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		w.WriteByte(tmp[i] | 0x80)
	}
	w.WriteByte(tmp[0])
}

// Decompress reads a WOFF2 container produced by Compress and returns its
// tables in stream order. Only untransformed tables are supported.
func Decompress(data []byte) ([]sfnt.Table, error) {
	if len(data) < headerSize || binary.BigEndian.Uint32(data) != signature {
		return nil, ErrNotWOFF2
	}
	numTables := int(binary.BigEndian.Uint16(data[12:]))
	compressedSize := binary.BigEndian.Uint32(data[20:])

	type entry struct {
		tag    string
		length uint32
	}
	entries := make([]entry, 0, numTables)
	pos := headerSize
	for i := 0; i < numTables; i++ {
		if pos >= len(data) {
			return nil, ErrMalformed
		}
		flags := data[pos]
		pos++
		var tag string
		if idx := flags & 0x3F; idx == arbitraryTag {
			if pos+4 > len(data) {
				return nil, ErrMalformed
			}
			tag = string(data[pos : pos+4])
			pos += 4
		} else {
			tag = knownTags[idx]
		}
		transform := flags >> 6
		if null := tag == "glyf" || tag == "loca"; (null && transform != 3) || (!null && transform != 0) {
			return nil, fmt.Errorf("%w: %s transform %d", ErrTransformedTable, tag, transform)
		}
		length, n, err := readBase128(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		entries = append(entries, entry{tag, length})
	}

	if pos+int(compressedSize) > len(data) {
		return nil, ErrMalformed
	}
	stream, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data[pos : pos+int(compressedSize)])))
	if err != nil {
		return nil, fmt.Errorf("woff2: decompress: %w", err)
	}

	tables := make([]sfnt.Table, 0, numTables)
	offset := uint32(0)
	for _, e := range entries {
		if offset+e.length > uint32(len(stream)) {
			return nil, ErrMalformed
		}
		tables = append(tables, sfnt.Table{Tag: e.tag, Data: stream[offset : offset+e.length]})
		offset += e.length
	}
	return tables, nil
}

// readBase128 decodes a UIntBase128, returning the value and bytes consumed.
func readBase128(data []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < 5 && i < len(data); i++ {
		b := data[i]
		if v&0xFE000000 != 0 {
			return 0, 0, fmt.Errorf("%w: UIntBase128 overflow", ErrMalformed)
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: unterminated UIntBase128", ErrMalformed)
}
