package woff2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/color"
	"testing"

	"github.com/emojiworks/facefont/bitmap"
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/sfnt"
)

func testFont(t *testing.T) *sfnt.Font {
	t.Helper()
	bm := bitmap.New(bitmap.CanonicalSize, bitmap.CanonicalSize)
	for y := 0; y < bm.Height(); y++ {
		for x := 0; x < bm.Width(); x++ {
			bm.Set(x, y, color.NRGBA{R: 200, G: 100, A: 255})
		}
	}
	entries := []sfnt.Entry{
		{Glyph: emoji.Glyph{Codepoints: []rune{0x1F600}, Name: "grinning face"}, Bitmap: bm},
		{Glyph: emoji.Glyph{Codepoints: []rune{0x1F603}, Name: "grinning face with big eyes"}, Bitmap: bm.Clone()},
	}
	f, err := sfnt.Assemble(entries, sfnt.Options{SubfamilyToken: "01ARZ3NDEKTSV4RRFFQ69G5FAV"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return f
}

func TestCompressHeader(t *testing.T) {
	f := testFont(t)
	data, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if got := binary.BigEndian.Uint32(data); got != 0x774F4632 {
		t.Errorf("signature = %#08x, want wOF2", got)
	}
	if got := binary.BigEndian.Uint32(data[4:]); got != 0x00010000 {
		t.Errorf("flavor = %#08x, want 0x00010000", got)
	}
	if got := binary.BigEndian.Uint32(data[8:]); got != uint32(len(data)) {
		t.Errorf("length field = %d, want %d", got, len(data))
	}
	if got := int(binary.BigEndian.Uint16(data[12:])); got != len(f.Tables()) {
		t.Errorf("numTables = %d, want %d", got, len(f.Tables()))
	}
	if len(data)%4 != 0 {
		t.Errorf("container length %d is not 4-byte aligned", len(data))
	}
}

func TestCompressSmallerThanSfnt(t *testing.T) {
	f := testFont(t)
	data, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if sfntLen := len(f.Bytes()); len(data) >= sfntLen {
		t.Errorf("container is %d bytes, uncompressed sfnt is %d", len(data), sfntLen)
	}
}

func TestRoundTrip(t *testing.T) {
	f := testFont(t)
	data, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	tables, err := Decompress(data)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	want := make(map[string][]byte, len(f.Tables()))
	for _, tab := range f.Tables() {
		want[tab.Tag] = tab.Data
	}
	if len(tables) != len(want) {
		t.Fatalf("got %d tables, want %d", len(tables), len(want))
	}
	for _, tab := range tables {
		orig, ok := want[tab.Tag]
		if !ok {
			t.Errorf("unexpected table %q", tab.Tag)
			continue
		}
		if !bytes.Equal(tab.Data, orig) {
			t.Errorf("table %q does not round-trip", tab.Tag)
		}
	}
}

func TestStreamOrderLocaFollowsGlyf(t *testing.T) {
	f := testFont(t)
	data, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	tables, err := Decompress(data)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	glyfAt := -1
	for i, tab := range tables {
		if tab.Tag == "glyf" {
			glyfAt = i
		}
	}
	if glyfAt < 0 || glyfAt+1 >= len(tables) || tables[glyfAt+1].Tag != "loca" {
		t.Error("loca does not immediately follow glyf in the stream")
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotWOFF2},
		{"short", []byte("wOF2"), ErrNotWOFF2},
		{"wrong signature", bytes.Repeat([]byte{0xAB}, 64), ErrNotWOFF2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decompress: err=%v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecompressTruncated(t *testing.T) {
	f := testFont(t)
	data, err := Compress(f)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(data[:len(data)/2]); err == nil {
		t.Error("Decompress(truncated) succeeded, want error")
	}
}
