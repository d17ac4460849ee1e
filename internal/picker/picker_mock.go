package picker

import (
	"context"

	"github.com/UnendingLoop/MediaPicker/internal/model"
)

type mockPicker struct {
	presentFn func(ctx context.Context, opts Options) ([]model.Asset, error)
}

func (m *mockPicker) PresentPicker(ctx context.Context, opts Options) ([]model.Asset, error) {
	return m.presentFn(ctx, opts)
}
