package segmenter

import (
	"fmt"
	"image"
	"image/color"

	"github.com/emojiworks/facefont/bitmap"
)

// Crop segments img, crops it around the detected face and returns an
// alpha-composited bitmap of the canonical capture size.
//
// The crop box is the bounding box of the face-skin pixels, expanded on every
// side by settings.Padding times the box's larger dimension and clipped to the
// image bounds. Hair, body-skin and face-skin pixels are always kept; clothes
// and accessories follow the settings. Excluded pixels keep their original
// color but become fully transparent, unless KeepBackground leaves everything
// opaque.
//
// Crop is pure: it never touches storage and can run concurrently for
// different images.
func Crop(seg Segmenter, img image.Image, settings Settings) (*bitmap.Bitmap, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	labels, err := seg.Segment(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentationFailed, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if labels.Width() != w || labels.Height() != h {
		return nil, fmt.Errorf("%w: label map is %dx%d for a %dx%d image",
			ErrSegmentationFailed, labels.Width(), labels.Height(), w, h)
	}

	box, ok := FaceBox(labels, settings.Padding)
	if !ok {
		return nil, ErrNoFaceDetected
	}

	cropped := bitmap.New(box.Dx(), box.Dy())
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			if settings.KeepBackground || keep(labels.At(x, y), settings) {
				c.A = 0xFF
			} else {
				c.A = 0
			}
			cropped.Set(x-box.Min.X, y-box.Min.Y, c)
		}
	}

	return cropped.FitSquare(bitmap.CanonicalSize), nil
}

// FaceBox returns the bounding box of the face-skin pixels in labels,
// expanded symmetrically by padding times its larger dimension and clipped to
// the label map bounds. The second return value is false when no face-skin
// pixel exists.
func FaceBox(labels *LabelMap, padding float64) (image.Rectangle, bool) {
	minX, minY := labels.Width(), labels.Height()
	maxX, maxY := -1, -1
	for y := 0; y < labels.Height(); y++ {
		for x := 0; x < labels.Width(); x++ {
			if labels.At(x, y) != FaceSkin {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}

	// Max is exclusive.
	box := image.Rect(minX, minY, maxX+1, maxY+1)

	larger := box.Dx()
	if box.Dy() > larger {
		larger = box.Dy()
	}
	pad := int(padding * float64(larger))
	box = image.Rect(box.Min.X-pad, box.Min.Y-pad, box.Max.X+pad, box.Max.Y+pad)

	return box.Intersect(image.Rect(0, 0, labels.Width(), labels.Height())), true
}

// keep reports whether a class stays opaque under the given settings.
// Background is handled separately by KeepBackground.
func keep(c Class, settings Settings) bool {
	switch c {
	case Hair, BodySkin, FaceSkin:
		return true
	case Clothes:
		return settings.KeepClothes
	case Accessories:
		return settings.KeepAccessories
	default:
		return false
	}
}
