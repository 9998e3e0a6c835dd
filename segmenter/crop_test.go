package segmenter

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/emojiworks/facefont/bitmap"
)

// fakeSegmenter returns a fixed label map or error, standing in for the
// external segmentation model.
type fakeSegmenter struct {
	labels *LabelMap
	err    error
}

func (f fakeSegmenter) Segment(image.Image) (*LabelMap, error) {
	return f.labels, f.err
}

// frameScene builds a size x size red image whose face pixels sit at the two
// opposite corners, so the face bounding box covers the whole image while its
// interior stays background.
func frameScene(size int) (image.Image, *LabelMap) {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	labels := NewLabelMap(size, size)
	labels.Set(0, 0, FaceSkin)
	labels.Set(size-1, size-1, FaceSkin)
	return img, labels
}

func TestCrop_CanonicalSize(t *testing.T) {
	img, labels := frameScene(60)
	got, err := Crop(fakeSegmenter{labels: labels}, img, DefaultSettings())
	if err != nil {
		t.Fatalf("Crop() error = %v", err)
	}
	if got.Width() != bitmap.CanonicalSize || got.Height() != bitmap.CanonicalSize {
		t.Errorf("Crop() size = %dx%d, want %dx%d",
			got.Width(), got.Height(), bitmap.CanonicalSize, bitmap.CanonicalSize)
	}
}

func TestCrop_BackgroundTransparency(t *testing.T) {
	// A 127x127 face box passes through FitSquare untouched, so pixel
	// values can be checked exactly.
	img, labels := frameScene(bitmap.CanonicalSize)

	t.Run("background removed", func(t *testing.T) {
		got, err := Crop(fakeSegmenter{labels: labels}, img, DefaultSettings())
		if err != nil {
			t.Fatalf("Crop() error = %v", err)
		}
		if a := got.At(60, 60).A; a != 0 {
			t.Errorf("background pixel alpha = %d, want 0", a)
		}
		if a := got.At(0, 0).A; a != 255 {
			t.Errorf("face pixel alpha = %d, want 255", a)
		}
	})

	t.Run("background kept", func(t *testing.T) {
		settings := DefaultSettings()
		settings.KeepBackground = true
		got, err := Crop(fakeSegmenter{labels: labels}, img, settings)
		if err != nil {
			t.Fatalf("Crop() error = %v", err)
		}
		want := color.NRGBA{R: 200, A: 255}
		if c := got.At(60, 60); c != want {
			t.Errorf("background pixel = %v, want %v", c, want)
		}
	})
}

func TestCrop_ClassToggles(t *testing.T) {
	img, labels := frameScene(bitmap.CanonicalSize)
	labels.Set(10, 10, Clothes)
	labels.Set(20, 20, Accessories)
	labels.Set(30, 30, Hair)

	tests := []struct {
		name      string
		settings  Settings
		x, y      int
		wantAlpha uint8
	}{
		{"clothes excluded by default", DefaultSettings(), 10, 10, 0},
		{"clothes kept", Settings{KeepClothes: true, KeepAccessories: true}, 10, 10, 255},
		{"accessories kept by default", DefaultSettings(), 20, 20, 255},
		{"accessories excluded", Settings{}, 20, 20, 0},
		{"hair always kept", Settings{}, 30, 30, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Crop(fakeSegmenter{labels: labels}, img, tt.settings)
			if err != nil {
				t.Fatalf("Crop() error = %v", err)
			}
			if a := got.At(tt.x, tt.y).A; a != tt.wantAlpha {
				t.Errorf("alpha at (%d,%d) = %d, want %d", tt.x, tt.y, a, tt.wantAlpha)
			}
		})
	}
}

func TestCrop_NoFace(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	labels := NewLabelMap(10, 10)
	labels.Set(3, 3, Hair) // hair alone is not a face

	_, err := Crop(fakeSegmenter{labels: labels}, img, DefaultSettings())
	if !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Crop() error = %v, want ErrNoFaceDetected", err)
	}
}

func TestCrop_SegmenterError(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	_, err := Crop(fakeSegmenter{err: errors.New("model exploded")}, img, DefaultSettings())
	if !errors.Is(err, ErrSegmentationFailed) {
		t.Errorf("Crop() error = %v, want ErrSegmentationFailed", err)
	}
}

func TestCrop_LabelMapMismatch(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	labels := NewLabelMap(4, 4)
	labels.Set(1, 1, FaceSkin)

	_, err := Crop(fakeSegmenter{labels: labels}, img, DefaultSettings())
	if !errors.Is(err, ErrSegmentationFailed) {
		t.Errorf("Crop() error = %v, want ErrSegmentationFailed", err)
	}
}

func TestCrop_InvalidPadding(t *testing.T) {
	img, labels := frameScene(20)
	_, err := Crop(fakeSegmenter{labels: labels}, img, Settings{Padding: 1.5})
	if err == nil {
		t.Fatal("Crop() should reject padding > 1")
	}
}

func TestFaceBox_PaddingMonotonic(t *testing.T) {
	labels := NewLabelMap(100, 100)
	for y := 45; y < 55; y++ {
		for x := 45; x < 55; x++ {
			labels.Set(x, y, FaceSkin)
		}
	}

	small, ok := FaceBox(labels, 0.2)
	if !ok {
		t.Fatal("no face box found")
	}
	large, ok := FaceBox(labels, 0.5)
	if !ok {
		t.Fatal("no face box found")
	}

	if !small.In(large) || small == large {
		t.Errorf("padded box %v does not strictly contain %v", large, small)
	}
}

func TestFaceBox_ClipsToBounds(t *testing.T) {
	labels := NewLabelMap(20, 20)
	labels.Set(0, 0, FaceSkin)
	labels.Set(19, 19, FaceSkin)

	box, ok := FaceBox(labels, 1.0)
	if !ok {
		t.Fatal("no face box found")
	}
	want := image.Rect(0, 0, 20, 20)
	if box != want {
		t.Errorf("FaceBox() = %v, want clipped %v", box, want)
	}
}
