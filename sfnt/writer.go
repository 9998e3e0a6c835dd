package sfnt

import "encoding/binary"

// writer accumulates big-endian table data.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)  { w.buf = append(w.buf, v) }
func (w *writer) i8(v int8)   { w.buf = append(w.buf, uint8(v)) }
func (w *writer) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}
func (w *writer) i16(v int16) { w.u16(uint16(v)) }
func (w *writer) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}
func (w *writer) i64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// tag appends a 4-byte table tag.
func (w *writer) tag(t string) {
	w.buf = append(w.buf, t[0], t[1], t[2], t[3])
}

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

// skip appends n zero bytes.
func (w *writer) skip(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// pad4 pads the buffer to a 4-byte boundary.
func (w *writer) pad4() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) len() int { return len(w.buf) }
