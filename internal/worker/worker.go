// Package worker contains methods for worker to init at start, and to process resize tasks
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/UnendingLoop/MediaPicker/internal/imageproc"
	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/UnendingLoop/MediaPicker/internal/mwlogger"
	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
)

type TaskWorkerService interface {
	UpdateStatus(ctx context.Context, id string, newStat model.Status) error
	MarkFailed(ctx context.Context, id string, reason string) error
	SaveResult(ctx context.Context, res *model.Task) error
	Get(ctx context.Context, id string) (*model.Task, error)
}

// FileStorage - ресайзер работает с файлами, поэтому гоняем объекты через локальный диск
type FileStorage interface {
	DownloadFile(ctx context.Context, key, dstPath string) error
	UploadFile(ctx context.Context, key, srcPath, contentType string) (int64, error)
}

type Worker struct {
	storage      FileStorage
	service      TaskWorkerService
	queue        <-chan kafkago.Message
	commit       func(ctx context.Context, msg kafkago.Message) error
	resultPrefix string
	thumbPrefix  string
	tmpDir       string
}

func NewWorkerInstance(strg FileStorage, svc TaskWorkerService, q <-chan kafkago.Message, cons *wbfkafka.Consumer, resPr string) *Worker {
	if resPr == "" {
		resPr = "result/"
	}
	commit := func(ctx context.Context, msg kafkago.Message) error {
		return cons.Commit(ctx, msg)
	}
	return &Worker{
		storage:      strg,
		service:      svc,
		queue:        q,
		commit:       commit,
		resultPrefix: resPr,
		thumbPrefix:  "thumbnail/",
	}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				log.Println("Queue channel closed, stopping worker...")
				return
			}
			id := string(msg.Key)
			if err := w.initProcessor(mwlogger.WithTaskLogger(ctx, id), id); err != nil && !errors.Is(err, model.ErrTaskNotFound) {
				logger := mwlogger.LoggerFromContext(ctx)
				logger.Error().Err(err).Str("task_uid", id).Msg("Task failed")
				continue
			}
			if err := w.commit(ctx, msg); err != nil {
				log.Printf("Failed to commit queue-message: %v", err)
			}
		}
	}
}

func (w *Worker) initProcessor(ctx context.Context, id string) error {
	// считать из базы задачу
	task, err := w.service.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("worker failed to fetch task %q from DB: %w", id, err)
	}
	// проверить статус
	switch task.Status {
	case model.StatusDone, model.StatusFailed:
		return nil
	case model.StatusInProgress:
		if !isOrphaned(task, time.Now()) {
			return fmt.Errorf("already in progress")
		}
		// предыдущий воркер упал посреди ресайза, исходник не тронут - обрабатываем заново
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Str("task_uid", id).Msg("Reprocessing orphaned in_progress task")
	}

	// на всякий случай проверить поле с результатом
	if strings.HasPrefix(task.ResultKey, w.resultPrefix) {
		if err := w.service.UpdateStatus(ctx, id, model.StatusDone); err != nil {
			return fmt.Errorf("failed to update status of already-done task in DB: %w", err)
		}
		return nil
	}

	// обновить статус
	if err := w.service.UpdateStatus(ctx, id, model.StatusInProgress); err != nil {
		return fmt.Errorf("failed to update status of task %q to `in_progress` in DB: %w", id, err)
	}

	// выполняем саму операцию
	if pErr := w.processTask(ctx, task); pErr != nil {
		if uErr := w.service.MarkFailed(ctx, id, pErr.Error()); uErr != nil {
			return fmt.Errorf("failed to set status of task %q to `failed` in DB: %w \nAFTER\n error while processing task: %w", id, uErr, pErr)
		}
		return fmt.Errorf("failed to process task %q: %w", id, pErr)
	}

	return nil
}

func isOrphaned(task *model.Task, now time.Time) bool {
	return task.UpdatedAt != nil && now.Sub(*task.UpdatedAt) >= model.OrphanTimeout
}

func (w *Worker) processTask(ctx context.Context, task *model.Task) error {
	dir, err := os.MkdirTemp(w.tmpDir, "resize-*")
	if err != nil {
		return fmt.Errorf("worker failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Println("Worker failed to clean temp dir:", err)
		}
	}()

	// достать из storage исходник
	srcPath := filepath.Join(dir, "source"+filepath.Ext(task.SourceKey))
	if err := w.storage.DownloadFile(ctx, task.SourceKey, srcPath); err != nil {
		return fmt.Errorf("worker failed to fetch source image from storage: %w", err)
	}

	src := model.ImageDescriptor{Path: srcPath, Width: task.OrigWidth, Height: task.OrigHeight}
	if src.Width <= 0 || src.Height <= 0 {
		if src, _, err = imageproc.Probe(srcPath); err != nil {
			return fmt.Errorf("worker failed to probe source image: %w", err)
		}
	}

	// превью режем из исходника до того, как ресайз перезапишет файл
	var thumb *model.ResizeResult
	if task.HasThumbnail() {
		res, err := imageproc.Thumbnailer(srcPath, filepath.Join(dir, "thumb.jpg"), *task.ThumbWidth, *task.ThumbHeight, task.Quality)
		if err != nil {
			return fmt.Errorf("worker failed to generate thumbnail: %w", err)
		}
		thumb = &res
	}

	// ресайз на месте
	res, err := imageproc.NewResizer(task.Strategy).Resize(ctx, model.ResizeRequest{
		Source:    src,
		MaxWidth:  task.MaxWidth,
		MaxHeight: task.MaxHeight,
		Quality:   task.Quality,
	})
	if err != nil {
		return fmt.Errorf("worker failed to resize image: %w", err)
	}

	// положить результат в сторедж
	resKey := w.resultPrefix + task.UID.String() + model.GetImageFileExt[model.JPEG]
	if _, err := w.storage.UploadFile(ctx, resKey, res.Path, model.JPEG); err != nil {
		return fmt.Errorf("worker failed to put result image to storage: %w", err)
	}

	if thumb != nil {
		thumbKey := w.thumbPrefix + task.UID.String() + model.GetImageFileExt[model.JPEG]
		if _, err := w.storage.UploadFile(ctx, thumbKey, thumb.Path, model.JPEG); err != nil {
			return fmt.Errorf("worker failed to put thumbnail to storage: %w", err)
		}
		task.ThumbKey = thumbKey
	}

	task.Status = model.StatusDone
	task.ResultKey = resKey
	task.ResultWidth, task.ResultHeight = &res.Width, &res.Height
	task.ResultSize = &res.SizeBytes

	// обновить запись в БД
	if err := w.service.SaveResult(ctx, task); err != nil {
		return fmt.Errorf("worker failed to save result to DB: %w", err)
	}
	return nil
}
