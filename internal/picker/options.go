package picker

import "github.com/UnendingLoop/MediaPicker/internal/model"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAll   MediaType = "all"
)

// Options is the narrowed configuration the resize step consumes plus the selection
// limits the picker UI is expected to honour.
type Options struct {
	MediaType          MediaType
	MaxSelectedAssets  int
	SingleSelectedMode bool
	SelectedAssets     []model.Asset

	MaxWidth  int
	MaxHeight int
	Quality   int
	Strategy  model.OrientationStrategy

	HaveThumbnail   bool
	ThumbnailWidth  int
	ThumbnailHeight int
	ThumbnailDir    string

	Parallelism int
}

// Option - функциональная опция поверх дефолтов
type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		MediaType:         MediaAll,
		MaxSelectedAssets: 20,
		MaxWidth:          1080,
		MaxHeight:         1920,
		Quality:           80,
		Strategy:          model.StrategyTagPassthrough,
		HaveThumbnail:     true,
		ThumbnailWidth:    200,
		ThumbnailHeight:   200,
	}
}

// NewOptions merges opts over DefaultOptions. Single selection mode drops preselected assets.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.SingleSelectedMode {
		o.SelectedAssets = nil
	}
	return o
}

func WithMediaType(t MediaType) Option {
	return func(o *Options) { o.MediaType = t }
}

func WithMaxSelectedAssets(n int) Option {
	return func(o *Options) { o.MaxSelectedAssets = n }
}

func WithSingleSelectedMode() Option {
	return func(o *Options) { o.SingleSelectedMode = true }
}

func WithSelectedAssets(assets []model.Asset) Option {
	return func(o *Options) { o.SelectedAssets = assets }
}

func WithBounds(maxWidth, maxHeight int) Option {
	return func(o *Options) {
		o.MaxWidth = maxWidth
		o.MaxHeight = maxHeight
	}
}

func WithQuality(q int) Option {
	return func(o *Options) { o.Quality = q }
}

func WithStrategy(s model.OrientationStrategy) Option {
	return func(o *Options) { o.Strategy = s }
}

// WithThumbnail enables a w x h thumbnail per picked image, written into dir.
func WithThumbnail(w, h int, dir string) Option {
	return func(o *Options) {
		o.HaveThumbnail = true
		o.ThumbnailWidth = w
		o.ThumbnailHeight = h
		o.ThumbnailDir = dir
	}
}

func WithoutThumbnail() Option {
	return func(o *Options) { o.HaveThumbnail = false }
}

func WithParallelism(n int) Option {
	return func(o *Options) { o.Parallelism = n }
}
