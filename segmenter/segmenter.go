// Package segmenter crops face captures out of raw photos.
//
// The face-segmentation model itself is an external collaborator consumed
// through the Segmenter interface: it classifies every pixel of an image into
// one of six classes. This package turns one classified image plus a keep
// policy into a tightly cropped, alpha-composited bitmap of the canonical
// capture size.
package segmenter

import (
	"errors"
	"image"
)

// Errors returned by the cropper.
var (
	// ErrNoFaceDetected indicates the label map contains no face-skin pixel.
	ErrNoFaceDetected = errors.New("segmenter: no face detected in image")

	// ErrSegmentationFailed indicates the external segmentation model errored.
	ErrSegmentationFailed = errors.New("segmenter: segmentation failed")
)

// Class is a per-pixel segmentation label.
type Class uint8

// Segmentation classes, matching the selfie multiclass model.
const (
	Background Class = iota
	Hair
	BodySkin
	FaceSkin
	Clothes
	Accessories

	numClasses
)

// classNames maps Class to string names.
var classNames = [...]string{
	Background:  "Background",
	Hair:        "Hair",
	BodySkin:    "BodySkin",
	FaceSkin:    "FaceSkin",
	Clothes:     "Clothes",
	Accessories: "Accessories",
}

// String returns the string name of the class.
func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Unknown"
}

// LabelMap holds one segmentation class per pixel.
type LabelMap struct {
	width  int
	height int
	labels []Class
}

// NewLabelMap creates an all-background label map with the given dimensions.
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{
		width:  width,
		height: height,
		labels: make([]Class, width*height),
	}
}

// Width returns the width of the label map in pixels.
func (m *LabelMap) Width() int {
	return m.width
}

// Height returns the height of the label map in pixels.
func (m *LabelMap) Height() int {
	return m.height
}

// Set assigns the class of a single pixel. Out-of-range coordinates are
// ignored.
func (m *LabelMap) Set(x, y int, c Class) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.labels[y*m.width+x] = c
}

// At returns the class of a single pixel. Out-of-range coordinates return
// Background.
func (m *LabelMap) At(x, y int) Class {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return Background
	}
	return m.labels[y*m.width+x]
}

// Segmenter classifies every pixel of an image. Implementations wrap the
// external segmentation model and must be safe for concurrent use.
type Segmenter interface {
	Segment(img image.Image) (*LabelMap, error)
}
