package worker

import (
	"context"

	"github.com/UnendingLoop/MediaPicker/internal/model"
)

type mockWorkerService struct {
	getFn        func(ctx context.Context, id string) (*model.Task, error)
	updateFn     func(ctx context.Context, id string, st model.Status) error
	markFailedFn func(ctx context.Context, id string, reason string) error
	saveResultFn func(ctx context.Context, task *model.Task) error
}

func (m *mockWorkerService) Get(ctx context.Context, id string) (*model.Task, error) {
	return m.getFn(ctx, id)
}

func (m *mockWorkerService) UpdateStatus(ctx context.Context, id string, st model.Status) error {
	return m.updateFn(ctx, id, st)
}

func (m *mockWorkerService) MarkFailed(ctx context.Context, id string, reason string) error {
	return m.markFailedFn(ctx, id, reason)
}

func (m *mockWorkerService) SaveResult(ctx context.Context, task *model.Task) error {
	return m.saveResultFn(ctx, task)
}

//----------------------------------

type mockStorage struct {
	downloadFn func(ctx context.Context, key, dst string) error
	uploadFn   func(ctx context.Context, key, src, ct string) (int64, error)
}

func (m *mockStorage) DownloadFile(ctx context.Context, key, dst string) error {
	return m.downloadFn(ctx, key, dst)
}

func (m *mockStorage) UploadFile(ctx context.Context, key, src, ct string) (int64, error) {
	return m.uploadFn(ctx, key, src, ct)
}
