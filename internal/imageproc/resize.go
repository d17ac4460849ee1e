package imageproc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/UnendingLoop/MediaPicker/internal/exifmeta"
	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // webp-исходники с камеры тоже должны декодироваться
)

// Resizer downsizes JPEG/raster files on disk. It holds no state between calls and is
// safe for concurrent use.
type Resizer struct {
	strategy model.OrientationStrategy
}

func NewResizer(strategy model.OrientationStrategy) *Resizer {
	if strategy == "" {
		strategy = model.StrategyTagPassthrough
	}
	return &Resizer{strategy: strategy}
}

// Resize fits the source into the request bounds, re-encodes it as JPEG and writes it to
// the output path (the source path when none is given). The result carries the
// dimensions and size of what was actually written.
func (r *Resizer) Resize(ctx context.Context, req model.ResizeRequest) (model.ResizeResult, error) {
	src := req.Source

	// пустой путь - ничего не делаем, отдаем как есть
	if src.Path == "" {
		return model.ResizeResult{Path: src.Path, Width: src.Width, Height: src.Height}, nil
	}

	if err := validateRequest(req); err != nil {
		return model.ResizeResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.ResizeResult{}, err
	}

	// тег читаем до декодирования, после него исходник уже не нужен
	orientation := exifmeta.ReadOrientation(src.Path)
	bake := r.strategy == model.StrategyBakePixels

	maxW, maxH := req.MaxWidth, req.MaxHeight
	if bake && orientation.SwapsDimensions() {
		maxW, maxH = maxH, maxW
	}

	targetW, targetH := ComputeTargetDimensions(src.Width, src.Height, maxW, maxH)

	divisor := 1
	if src.Width > maxW || src.Height > maxH {
		divisor = ChooseDecodeScale(src.Width, src.Height, targetW, targetH)
	}

	out, err := loadScaled(src.Path, divisor, targetW, targetH)
	if err != nil {
		return model.ResizeResult{}, err
	}

	var tag model.Orientation
	switch {
	case bake:
		out = ApplyOrientation(out, orientation)
	case orientation.ShouldPropagate():
		tag = orientation
	}

	data, err := encodeJPEG(out, req.Quality, tag)
	if err != nil {
		return model.ResizeResult{}, err
	}

	dst := req.OutputPath
	if dst == "" {
		dst = src.Path
	}

	size, err := writeFileAtomic(dst, data)
	if err != nil {
		return model.ResizeResult{}, err
	}

	b := out.Bounds()
	return model.ResizeResult{
		Path:      dst,
		Width:     b.Dx(),
		Height:    b.Dy(),
		SizeBytes: size,
	}, nil
}

func validateRequest(req model.ResizeRequest) error {
	switch {
	case req.Source.Width <= 0 || req.Source.Height <= 0:
		return fmt.Errorf("%w: original dimensions must be positive, got %dx%d", model.ErrInvalidRequest, req.Source.Width, req.Source.Height)
	case req.MaxWidth <= 0 || req.MaxHeight <= 0:
		return fmt.Errorf("%w: bounds must be positive, got %dx%d", model.ErrInvalidRequest, req.MaxWidth, req.MaxHeight)
	case req.Quality < 0 || req.Quality > 100:
		return fmt.Errorf("%w: quality %d out of range", model.ErrInvalidRequest, req.Quality)
	}
	return nil
}

// loadScaled decodes the file, subsamples it by divisor and resamples to the exact target.
// The full-size decode buffer does not outlive this call.
func loadScaled(path string, divisor, targetW, targetH int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", model.ErrDecode, path, err)
	}

	if divisor > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, max(1, b.Dx()/divisor), max(1, b.Dy()/divisor), imaging.Box)
	}

	return scaleTo(img, targetW, targetH), nil
}

func scaleTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int, tag model.Orientation) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrEncode, err)
	}

	if !tag.ShouldPropagate() {
		return buf.Bytes(), nil
	}

	tagged, err := exifmeta.WithOrientation(buf.Bytes(), tag)
	if err != nil {
		return nil, fmt.Errorf("%w: orientation tag: %w", model.ErrEncode, err)
	}
	return tagged, nil
}
