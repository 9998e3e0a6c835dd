package sfnt

import (
	"encoding/base64"
	"fmt"
)

// svgDocument wraps one glyph's PNG in a minimal SVG. The image is placed at
// y = -ascent so the bitmap fills the em box above the baseline, matching the
// placement the CBDT strike metrics describe.
const svgDocument = `<svg version="1.1" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
<g id="glyph%d">
<image x="0" y="%d" width="%d" height="%d" xlink:href="data:image/png;base64,%s"/>
</g>
</svg>`

// buildSVG serializes the SVG table: one document per glyph, each covering a
// single-glyph ID range. Glyph IDs are assigned in entry order, so the
// document list is already sorted.
func buildSVG(glyphs []glyphSource) []byte {
	docs := make([][]byte, len(glyphs))
	for i, g := range glyphs {
		b64 := base64.StdEncoding.EncodeToString(g.png)
		docs[i] = []byte(fmt.Sprintf(svgDocument, g.id, -ascent, unitsPerEm, unitsPerEm, b64))
	}

	const headerSize = 10 // version, offsetToSVGDocumentList, reserved
	listSize := 2 + 12*len(docs)

	w := &writer{}
	w.u16(0) // version
	w.u32(headerSize)
	w.u32(0) // reserved

	w.u16(uint16(len(docs)))
	offset := listSize
	for i, g := range glyphs {
		w.u16(g.id) // startGlyphID
		w.u16(g.id) // endGlyphID
		w.u32(uint32(offset))
		w.u32(uint32(len(docs[i])))
		offset += len(docs[i])
	}
	for _, doc := range docs {
		w.bytes(doc)
	}
	return w.buf
}
