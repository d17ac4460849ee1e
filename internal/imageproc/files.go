package imageproc

import (
	"fmt"
	"image"
	"os"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/google/renameio/v2"
)

// Probe reads only the image header and the file size, without decoding pixels.
func Probe(path string) (model.ImageDescriptor, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ImageDescriptor{}, 0, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return model.ImageDescriptor{}, 0, fmt.Errorf("%w: %q: %w", model.ErrDecode, path, err)
	}

	st, err := f.Stat()
	if err != nil {
		return model.ImageDescriptor{}, 0, fmt.Errorf("%w: %w", model.ErrIO, err)
	}

	return model.ImageDescriptor{Path: path, Width: cfg.Width, Height: cfg.Height}, st.Size(), nil
}

// writeFileAtomic пишет рядом с dst и переименовывает поверх, битый файл после падения не остается.
// Права существующего файла сохраняются.
func writeFileAtomic(dst string, data []byte) (int64, error) {
	if err := renameio.WriteFile(dst, data, 0o644, renameio.WithExistingPermissions()); err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	return int64(len(data)), nil
}
