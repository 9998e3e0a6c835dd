package facefont

import (
	"github.com/emojiworks/facefont/emoji"
	"github.com/emojiworks/facefont/segmenter"
)

// Option configures an Engine during creation.
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	family    string
	registry  *emoji.Registry
	segmenter segmenter.Segmenter
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		family:   DefaultFamily,
		registry: emoji.Default(),
	}
}

// WithFamily sets the default font family name used by Export when the
// caller does not provide one.
func WithFamily(name string) Option {
	return func(o *engineOptions) {
		if name != "" {
			o.family = name
		}
	}
}

// WithRegistry replaces the built-in face emoji registry. Use this to offer
// a different standard glyph set.
func WithRegistry(r *emoji.Registry) Option {
	return func(o *engineOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithSegmenter sets the segmentation backend used by Preview. Without one,
// Preview returns ErrNoSegmenter; the capture path (Accept) does not need it.
func WithSegmenter(s segmenter.Segmenter) Option {
	return func(o *engineOptions) {
		o.segmenter = s
	}
}
