// Package imageproc provides the resize core: bounding-box fit, subsampled decode,
// orientation handling and JPEG re-encoding, plus thumbnails for picked images.
package imageproc

import (
	"fmt"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/disintegration/imaging"
)

// Thumbnailer cuts a centered w x h thumbnail out of the image at src and writes it to dst
// as JPEG. The source orientation is applied so the thumbnail is always upright.
func Thumbnailer(src, dst string, w, h, quality int) (model.ResizeResult, error) {
	if src == "" || dst == "" {
		return model.ResizeResult{}, fmt.Errorf("%w: empty thumbnail path", model.ErrInvalidRequest)
	}
	if w <= 0 || h <= 0 {
		return model.ResizeResult{}, fmt.Errorf("%w: thumbnail size %dx%d", model.ErrInvalidRequest, w, h)
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return model.ResizeResult{}, fmt.Errorf("%w: thumbnail source: %w", model.ErrDecode, err)
	}
	thumb := imaging.Thumbnail(img, w, h, imaging.Lanczos)

	data, err := encodeJPEG(thumb, quality, model.OrientationUndefined)
	if err != nil {
		return model.ResizeResult{}, err
	}

	size, err := writeFileAtomic(dst, data)
	if err != nil {
		return model.ResizeResult{}, err
	}

	return model.ResizeResult{Path: dst, Width: w, Height: h, SizeBytes: size}, nil
}
