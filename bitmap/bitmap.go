// Package bitmap provides the fixed-size RGBA pixel buffers shared by the
// segmentation cropper, the capture store and the font assembler.
//
// A Bitmap stores straight (non-premultiplied) RGBA bytes, 4 per pixel, so
// that color information survives under fully transparent pixels the same way
// it does in a PNG file. Operations that resample convert to premultiplied
// alpha first; see FitSquare.
package bitmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// CanonicalSize is the side length, in pixels, of every stored capture and
// every assembled glyph bitmap. 127 is the largest value representable in the
// signed byte fields of CBDT small glyph metrics.
const CanonicalSize = 127

// Bitmap represents a rectangular RGBA pixel buffer with straight alpha.
type Bitmap struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// New creates a new transparent bitmap with the given dimensions.
func New(width, height int) *Bitmap {
	return &Bitmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the bitmap in pixels.
func (b *Bitmap) Width() int {
	return b.width
}

// Height returns the height of the bitmap in pixels.
func (b *Bitmap) Height() int {
	return b.height
}

// Data returns the raw pixel data (straight-alpha RGBA).
func (b *Bitmap) Data() []uint8 {
	return b.data
}

// Set sets the color of a single pixel. Out-of-range coordinates are ignored.
func (b *Bitmap) Set(x, y int, c color.NRGBA) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := (y*b.width + x) * 4
	b.data[i+0] = c.R
	b.data[i+1] = c.G
	b.data[i+2] = c.B
	b.data[i+3] = c.A
}

// At returns the color of a single pixel. Out-of-range coordinates return
// transparent black.
func (b *Bitmap) At(x, y int) color.NRGBA {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return color.NRGBA{}
	}
	i := (y*b.width + x) * 4
	return color.NRGBA{R: b.data[i+0], G: b.data[i+1], B: b.data[i+2], A: b.data[i+3]}
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	c := New(b.width, b.height)
	copy(c.data, b.data)
	return c
}

// Image converts the bitmap to an image.NRGBA sharing no memory with b.
func (b *Bitmap) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// FromImage creates a bitmap from an arbitrary image.
func FromImage(img image.Image) *Bitmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Fast path for NRGBA images with a zero-origin, stride-tight layout.
	if n, ok := img.(*image.NRGBA); ok && n.Stride == width*4 && bounds.Min == (image.Point{}) {
		bm := New(width, height)
		copy(bm.data, n.Pix)
		return bm
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	bm := New(width, height)
	copy(bm.data, nrgba.Pix)
	return bm
}

// EncodePNG writes the bitmap to w in PNG format.
func (b *Bitmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.Image())
}

// DecodePNG reads a PNG image from r and converts it to a bitmap.
func DecodePNG(r io.Reader) (*Bitmap, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("bitmap: decode png: %w", err)
	}
	return FromImage(img), nil
}

// FitSquare scales the bitmap to fit within a size x size square, preserving
// its aspect ratio, and centers the result on a transparent canvas of exactly
// that size.
//
// Resampling happens in premultiplied-alpha space (image.RGBA) with a
// Catmull-Rom kernel, so opaque color never bleeds into transparent
// neighborhoods. The result is converted back to straight alpha.
func (b *Bitmap) FitSquare(size int) *Bitmap {
	if b.width == size && b.height == size {
		return b.Clone()
	}

	scaleX := float64(size) / float64(b.width)
	scaleY := float64(size) / float64(b.height)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	newW := int(float64(b.width) * scale)
	newH := int(float64(b.height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	src := b.premultiplied()
	scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	offsetX := (size - newW) / 2
	offsetY := (size - newH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+newW, offsetY+newH)
	draw.Draw(canvas, target, scaled, image.Point{}, draw.Src)

	return fromPremultiplied(canvas)
}

// premultiplied converts the bitmap to a premultiplied-alpha image.RGBA.
func (b *Bitmap) premultiplied() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	draw.Draw(img, img.Bounds(), b.Image(), image.Point{}, draw.Src)
	return img
}

// fromPremultiplied converts a premultiplied image.RGBA back to a
// straight-alpha bitmap.
func fromPremultiplied(img *image.RGBA) *Bitmap {
	bounds := img.Bounds()
	nrgba := image.NewNRGBA(bounds)
	draw.Draw(nrgba, bounds, img, bounds.Min, draw.Src)
	bm := New(bounds.Dx(), bounds.Dy())
	copy(bm.data, nrgba.Pix)
	return bm
}
