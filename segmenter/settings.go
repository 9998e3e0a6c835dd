package segmenter

import "fmt"

// Settings is the per-session capture policy: how much context to keep
// around the face and which segmentation classes stay opaque.
type Settings struct {
	// Padding expands the face bounding box on every side by this fraction
	// of the box's larger dimension. Must be in [0, 1].
	Padding float64 `json:"padding"`

	// KeepBackground keeps background pixels opaque instead of transparent.
	KeepBackground bool `json:"keep_background"`

	// KeepClothes includes clothes pixels in the keep mask.
	KeepClothes bool `json:"keep_clothes"`

	// KeepAccessories includes accessory pixels (glasses, earrings) in the
	// keep mask.
	KeepAccessories bool `json:"keep_accessories"`
}

// DefaultSettings returns the settings used when a session has none stored.
func DefaultSettings() Settings {
	return Settings{
		Padding:         0,
		KeepBackground:  false,
		KeepClothes:     false,
		KeepAccessories: true,
	}
}

// Validate checks that all fields are within range.
func (s Settings) Validate() error {
	if s.Padding < 0 || s.Padding > 1 {
		return fmt.Errorf("segmenter: padding %v out of range [0, 1]", s.Padding)
	}
	return nil
}
