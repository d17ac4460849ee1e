package worker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"
	"time"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestWorker_initProcessor(t *testing.T) {
	ctx := context.Background()
	id := uuid.New().String()
	fresh := time.Now().Add(-time.Minute)

	tests := []struct {
		name      string
		task      *model.Task
		getErr    error
		updateErr error
		wantErr   bool
	}{
		{
			name:    "already done",
			task:    &model.Task{Status: model.StatusDone},
			wantErr: false,
		},
		{
			name:    "already failed",
			task:    &model.Task{Status: model.StatusFailed},
			wantErr: false,
		},
		{
			name:    "in progress",
			task:    &model.Task{Status: model.StatusInProgress, UpdatedAt: &fresh},
			wantErr: true,
		},
		{
			name:    "in progress without timestamp",
			task:    &model.Task{Status: model.StatusInProgress},
			wantErr: true,
		},
		{
			name:    "task not found",
			getErr:  model.ErrTaskNotFound,
			wantErr: true,
		},
		{
			name:    "result already uploaded",
			task:    &model.Task{Status: model.StatusCreated, ResultKey: "res/x.jpg"},
			wantErr: false,
		},
		{
			name:      "update status error",
			task:      &model.Task{Status: model.StatusCreated},
			updateErr: errors.New("db down"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWorkerService{
				getFn: func(ctx context.Context, _ string) (*model.Task, error) {
					return tt.task, tt.getErr
				},
				updateFn: func(ctx context.Context, _ string, _ model.Status) error {
					return tt.updateErr
				},
			}

			w := &Worker{
				service:      svc,
				storage:      &mockStorage{},
				resultPrefix: "res/",
			}

			err := w.initProcessor(ctx, id)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWorker_initProcessor_MarksFailed(t *testing.T) {
	var reason string

	svc := &mockWorkerService{
		getFn: func(ctx context.Context, _ string) (*model.Task, error) {
			return &model.Task{UID: uuid.New(), Status: model.StatusCreated, SourceKey: "source/x.jpg"}, nil
		},
		updateFn: func(ctx context.Context, _ string, st model.Status) error {
			require.Equal(t, model.StatusInProgress, st)
			return nil
		},
		markFailedFn: func(ctx context.Context, _ string, r string) error {
			reason = r
			return nil
		},
	}

	w := &Worker{
		service: svc,
		storage: &mockStorage{
			downloadFn: func(ctx context.Context, key, dst string) error {
				return errors.New("storage down")
			},
		},
		resultPrefix: "res/",
		tmpDir:       t.TempDir(),
	}

	err := w.initProcessor(context.Background(), uuid.New().String())
	require.Error(t, err)
	require.Contains(t, reason, "storage down")
}

func TestWorker_initProcessor_ReprocessesOrphan(t *testing.T) {
	stale := time.Now().Add(-time.Hour)
	task := &model.Task{
		UID:        uuid.New(),
		Status:     model.StatusInProgress,
		SourceKey:  "source/orphan.jpg",
		OrigWidth:  80,
		OrigHeight: 40,
		MaxWidth:   40,
		MaxHeight:  40,
		Quality:    80,
		UpdatedAt:  &stale,
	}

	downloaded := false
	var saved *model.Task
	w := &Worker{
		storage: &mockStorage{
			downloadFn: func(ctx context.Context, key, dst string) error {
				downloaded = true
				return os.WriteFile(dst, validJPEG(80, 40), 0o644)
			},
			uploadFn: func(ctx context.Context, key, src, ct string) (int64, error) {
				return 0, nil
			},
		},
		service: &mockWorkerService{
			getFn: func(ctx context.Context, _ string) (*model.Task, error) {
				return task, nil
			},
			updateFn: func(ctx context.Context, _ string, st model.Status) error {
				require.Equal(t, model.StatusInProgress, st)
				return nil
			},
			saveResultFn: func(ctx context.Context, tk *model.Task) error {
				saved = tk
				return nil
			},
		},
		resultPrefix: "res/",
		tmpDir:       t.TempDir(),
	}

	require.NoError(t, w.initProcessor(context.Background(), task.UID.String()))
	require.True(t, downloaded)
	require.NotNil(t, saved)
	require.Equal(t, model.StatusDone, saved.Status)
	require.Equal(t, 40, *saved.ResultWidth)
	require.Equal(t, 20, *saved.ResultHeight)
}

func TestWorker_isOrphaned(t *testing.T) {
	now := time.Now()
	old := now.Add(-model.OrphanTimeout)
	recent := now.Add(-model.OrphanTimeout + time.Second)

	require.True(t, isOrphaned(&model.Task{UpdatedAt: &old}, now))
	require.False(t, isOrphaned(&model.Task{UpdatedAt: &recent}, now))
	require.False(t, isOrphaned(&model.Task{}, now))
}

func TestWorker_processTask_OK(t *testing.T) {
	ctx := context.Background()

	task := &model.Task{
		UID:         uuid.New(),
		Status:      model.StatusInProgress,
		SourceKey:   "source/1.jpg",
		OrigWidth:   400,
		OrigHeight:  300,
		MaxWidth:    100,
		MaxHeight:   100,
		Quality:     80,
		Strategy:    model.StrategyTagPassthrough,
		ThumbWidth:  ptr(20),
		ThumbHeight: ptr(20),
	}

	uploaded := map[string]image.Config{}

	storage := &mockStorage{
		downloadFn: func(ctx context.Context, key, dst string) error {
			require.Equal(t, task.SourceKey, key)
			return os.WriteFile(dst, validJPEG(400, 300), 0o644)
		},
		uploadFn: func(ctx context.Context, key, src, ct string) (int64, error) {
			require.Equal(t, model.JPEG, ct)
			f, err := os.Open(src)
			require.NoError(t, err)
			defer f.Close()
			cfg, err := jpeg.DecodeConfig(f)
			require.NoError(t, err)
			uploaded[key] = cfg
			return 0, nil
		},
	}

	svc := &mockWorkerService{
		saveResultFn: func(ctx context.Context, saved *model.Task) error {
			require.Equal(t, model.StatusDone, saved.Status)
			require.Equal(t, "res/"+task.UID.String()+".jpg", saved.ResultKey)
			require.Equal(t, "thumbnail/"+task.UID.String()+".jpg", saved.ThumbKey)
			require.Equal(t, 100, *saved.ResultWidth)
			require.Equal(t, 75, *saved.ResultHeight)
			require.Positive(t, *saved.ResultSize)
			return nil
		},
	}

	w := &Worker{
		storage:      storage,
		service:      svc,
		resultPrefix: "res/",
		thumbPrefix:  "thumbnail/",
		tmpDir:       t.TempDir(),
	}

	require.NoError(t, w.processTask(ctx, task))
	require.Equal(t, 100, uploaded["res/"+task.UID.String()+".jpg"].Width)
	require.Equal(t, 75, uploaded["res/"+task.UID.String()+".jpg"].Height)
	require.Equal(t, 20, uploaded["thumbnail/"+task.UID.String()+".jpg"].Width)
	require.Equal(t, 20, uploaded["thumbnail/"+task.UID.String()+".jpg"].Height)
}

func TestWorker_processTask_ProbesMissingDims(t *testing.T) {
	task := &model.Task{
		UID:       uuid.New(),
		SourceKey: "source/legacy.jpg",
		MaxWidth:  30,
		MaxHeight: 30,
		Quality:   70,
	}

	var saved *model.Task
	w := &Worker{
		storage: &mockStorage{
			downloadFn: func(ctx context.Context, key, dst string) error {
				return os.WriteFile(dst, validJPEG(60, 120), 0o644)
			},
			uploadFn: func(ctx context.Context, key, src, ct string) (int64, error) {
				return 0, nil
			},
		},
		service: &mockWorkerService{
			saveResultFn: func(ctx context.Context, tk *model.Task) error {
				saved = tk
				return nil
			},
		},
		resultPrefix: "res/",
		tmpDir:       t.TempDir(),
	}

	require.NoError(t, w.processTask(context.Background(), task))
	require.Equal(t, 15, *saved.ResultWidth)
	require.Equal(t, 30, *saved.ResultHeight)
	require.Empty(t, saved.ThumbKey)
}

func TestWorker_processTask_UnsupportedFormat(t *testing.T) {
	w := &Worker{
		storage: &mockStorage{
			downloadFn: func(ctx context.Context, key, dst string) error {
				return os.WriteFile(dst, []byte("not-an-image"), 0o644)
			},
		},
		tmpDir: t.TempDir(),
	}

	err := w.processTask(context.Background(), &model.Task{
		SourceKey: "source/bad.jpg",
		MaxWidth:  10,
		MaxHeight: 10,
	})
	require.Error(t, err)
}

func TestWorker_StartWorker_CommitsProcessed(t *testing.T) {
	queue := make(chan kafkago.Message, 2)
	queue <- kafkago.Message{Key: []byte(uuid.New().String())}
	queue <- kafkago.Message{Key: []byte(uuid.New().String())}
	close(queue)

	commits := 0
	w := &Worker{
		service: &mockWorkerService{
			getFn: func(ctx context.Context, _ string) (*model.Task, error) {
				return &model.Task{Status: model.StatusDone}, nil
			},
		},
		queue: queue,
		commit: func(ctx context.Context, msg kafkago.Message) error {
			commits++
			return nil
		},
	}

	w.StartWorker(context.Background())
	require.Equal(t, 2, commits)
}

func ptr[T any](v T) *T { return &v }

func validJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}
