// Package picker glues a platform media picker to the resize core: whatever the picker
// returns is resized as a post-selection step before it reaches the application.
package picker

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/MediaPicker/internal/batch"
	"github.com/UnendingLoop/MediaPicker/internal/imageproc"
	"github.com/UnendingLoop/MediaPicker/internal/model"
)

// Picker presents the platform UI and returns the user's selection.
type Picker interface {
	PresentPicker(ctx context.Context, opts Options) ([]model.Asset, error)
}

var (
	ErrNoPicker           = errors.New("picker adapter is not configured")
	ErrTooManyAssets      = errors.New("selection exceeds the maximum number of assets")
	ErrMediaTypeForbidden = errors.New("selection contains a media type that was not requested")
)

// Open presents the picker and resizes every selected image. Videos are passed through.
// A failure on any asset aborts the whole selection.
func Open(ctx context.Context, p Picker, opts Options) ([]model.Asset, error) {
	if p == nil {
		return nil, ErrNoPicker
	}

	assets, err := p.PresentPicker(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("present picker: %w", err)
	}
	if len(assets) == 0 {
		return []model.Asset{}, nil
	}

	if opts.SingleSelectedMode {
		assets = assets[:1]
	}
	if opts.MaxSelectedAssets > 0 && len(assets) > opts.MaxSelectedAssets {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyAssets, len(assets), opts.MaxSelectedAssets)
	}

	// работаем с копией, чтобы не менять слайс адаптера
	picked := make([]model.Asset, len(assets))
	copy(picked, assets)

	imgIdx := make([]int, 0, len(picked))
	for i, a := range picked {
		if err := checkMediaType(a, opts.MediaType); err != nil {
			return nil, err
		}
		// ассет без пути ресайзить нечем, отдаем как есть
		if a.Type == model.AssetImage && a.Path != "" {
			imgIdx = append(imgIdx, i)
		}
	}

	reqs := make([]model.ResizeRequest, 0, len(imgIdx))
	for _, i := range imgIdx {
		reqs = append(reqs, model.ResizeRequest{
			Source:    picked[i].Descriptor(),
			MaxWidth:  opts.MaxWidth,
			MaxHeight: opts.MaxHeight,
			Quality:   opts.Quality,
		})
	}

	results, err := batch.Run(ctx, imageproc.NewResizer(opts.Strategy), reqs, opts.Parallelism)
	if err != nil {
		return nil, err
	}
	for k, i := range imgIdx {
		picked[i].Width = results[k].Width
		picked[i].Height = results[k].Height
		picked[i].Size = results[k].SizeBytes
		picked[i].Mime = "image/jpeg"
	}

	if opts.HaveThumbnail {
		if err := attachThumbnails(ctx, picked, imgIdx, opts); err != nil {
			return nil, err
		}
	}

	return picked, nil
}

func checkMediaType(a model.Asset, want MediaType) error {
	switch want {
	case "", MediaAll:
		return nil
	case MediaImage:
		if a.Type == model.AssetImage {
			return nil
		}
	case MediaVideo:
		if a.Type == model.AssetVideo {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s", ErrMediaTypeForbidden, a.Path, a.Type)
}

// thumbResizer adapts Thumbnailer to the batch runner.
type thumbResizer struct {
	w, h int
}

func (t thumbResizer) Resize(_ context.Context, req model.ResizeRequest) (model.ResizeResult, error) {
	return imageproc.Thumbnailer(req.Source.Path, req.OutputPath, t.w, t.h, req.Quality)
}

func attachThumbnails(ctx context.Context, picked []model.Asset, imgIdx []int, opts Options) error {
	reqs := make([]model.ResizeRequest, 0, len(imgIdx))
	for _, i := range imgIdx {
		dir := opts.ThumbnailDir
		if dir == "" {
			dir = filepath.Dir(picked[i].Path)
		}
		reqs = append(reqs, model.ResizeRequest{
			Source:     picked[i].Descriptor(),
			Quality:    opts.Quality,
			OutputPath: filepath.Join(dir, thumbName(picked[i].Path)),
		})
	}

	results, err := batch.Run(ctx, thumbResizer{w: opts.ThumbnailWidth, h: opts.ThumbnailHeight}, reqs, opts.Parallelism)
	if err != nil {
		return fmt.Errorf("thumbnails: %w", err)
	}
	for k, i := range imgIdx {
		thumb := results[k]
		picked[i].Thumbnail = &thumb
	}
	return nil
}

func thumbName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_thumb.jpg"
}

// StaticPicker returns a fixed selection. It stands in for a UI when the selection is
// already known, e.g. files passed on the command line. Preselected assets from
// Options come first, then Assets not already preselected.
type StaticPicker struct {
	Assets []model.Asset
}

func (s StaticPicker) PresentPicker(_ context.Context, opts Options) ([]model.Asset, error) {
	out := make([]model.Asset, 0, len(opts.SelectedAssets)+len(s.Assets))
	seen := make(map[string]bool, len(opts.SelectedAssets))
	for _, a := range opts.SelectedAssets {
		out = append(out, a)
		seen[a.Path] = true
	}
	for _, a := range s.Assets {
		if a.Path != "" && seen[a.Path] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// NewImageAsset probes the image at path and describes it as a picked asset.
func NewImageAsset(path string) (model.Asset, error) {
	desc, size, err := imageproc.Probe(path)
	if err != nil {
		return model.Asset{}, err
	}

	return model.Asset{
		Path:     path,
		FileName: filepath.Base(path),
		Type:     model.AssetImage,
		Mime:     mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Width:    desc.Width,
		Height:   desc.Height,
		Size:     size,
	}, nil
}
