// Package service provides business-logic for the app
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/UnendingLoop/MediaPicker/internal/mwlogger"
	"github.com/UnendingLoop/MediaPicker/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/retry"
	_ "golang.org/x/image/webp"
)

type TaskService struct {
	repo         repository.TaskRepo
	publisher    TaskPublisher
	storage      ObjectStorage
	srcKeyPrefix string
	defaults     Defaults
}

// Defaults - параметры ресайза, если клиент их не передал
type Defaults struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func NewTaskService(cfg *config.Config, repo repository.TaskRepo, pub TaskPublisher, strg ObjectStorage) *TaskService {
	return &TaskService{
		repo:         repo,
		publisher:    pub,
		storage:      strg,
		srcKeyPrefix: "source/",
		defaults:     DefaultsFromConfig(cfg),
	}
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

func (c TaskService) Create(ctx context.Context, data *model.TaskCreateData) (*model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	newTask := &model.Task{}

	// Валидируем параметры
	if err := validateNormalizeTaskInfo(data, newTask, c.defaults); err != nil {
		return nil, err
	}

	// вычитываем исходник целиком: нужны размеры до постановки в очередь
	raw, err := io.ReadAll(io.LimitReader(data.OrigImg, data.OrigImgSize))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read uploaded image")
		return nil, model.ErrEmptySource
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, model.ErrUnsupportedFormat
	}
	newTask.OrigWidth, newTask.OrigHeight = cfg.Width, cfg.Height

	newTask.UID = uuid.New()

	// кладем в хранилище сорсник
	newTask.SourceKey = c.srcKeyPrefix + newTask.UID.String() + model.GetImageFileExt[data.OrigContentType]
	if err := c.storage.Put(ctx, newTask.SourceKey, int64(len(raw)), data.OrigContentType, bytes.NewReader(raw)); err != nil {
		logger.Error().Err(err).Msg("Failed to save src-image in Storage")
		return nil, model.ErrCommon500
	}

	// ставим статус и таймстамп
	newTask.Status = model.StatusCreated
	now := time.Now().UTC()
	newTask.CreatedAt = &now

	// шлем в базу
	if err := c.repo.Create(ctx, newTask); err != nil {
		logger.Error().Err(err).Msg("Failed to create task in DB")
		return nil, model.ErrCommon500
	}

	// кладем в очередь задач(в кафку)
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(newTask.UID.String()), nil); err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to publish task %q to task-queue", newTask.UID))
		return nil, model.ErrCommon500
	}
	return newTask, nil
}

func (c TaskService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch tasks list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	res, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return nil, model.ErrTaskNotFound // 404
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch task %q from DB", id))
		return nil, model.ErrCommon500
	}

	return res, nil
}

// LoadResult - отдает результат или превьюшку готовой задачи
func (c TaskService) LoadResult(ctx context.Context, id, variant string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if variant == "" {
		variant = model.VariantResult
	}
	if variant != model.VariantResult && variant != model.VariantThumbnail {
		return nil, "", model.ErrIncorrectVariant
	}

	res, err := c.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if res.Status != model.StatusDone {
		return nil, "", model.ErrResultNotReady
	}

	key := res.ResultKey
	if variant == model.VariantThumbnail {
		if res.ThumbKey == "" {
			return nil, "", model.ErrNoThumbnail
		}
		key = res.ThumbKey
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch %s of task %q from Storage", variant, id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c TaskService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)

	// читаем из базы
	res, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrTaskNotFound) {
			return model.ErrTaskNotFound
		}
		logger.Error().Err(err).Msg("Failed to delete task from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища сорсник, результат и превью(если они есть)
	for _, key := range []string{res.SourceKey, res.ResultKey, res.ThumbKey} {
		if key == "" {
			continue
		}
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to delete object %q from Storage", key))
			return model.ErrCommon500
		}
	}

	return nil
}

func (c TaskService) UpdateStatus(ctx context.Context, id string, newStat model.Status) error {
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}
	if !model.StatusMap[newStat] {
		return model.ErrIncorrectStatus
	}

	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.UpdateStatus(ctx, id, newStat); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to update task status in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// MarkFailed - переводит задачу в failed и дописывает причину
func (c TaskService) MarkFailed(ctx context.Context, id string, reason string) error {
	logger := mwlogger.LoggerFromContext(ctx)

	if err := c.repo.MarkFailed(ctx, id, reason); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound
		default:
			logger.Error().Err(err).Msg("Failed to mark task as failed in DB")
			return model.ErrCommon500
		}
	}

	return nil
}

func (c TaskService) SaveResult(ctx context.Context, input *model.Task) error {
	logger := mwlogger.LoggerFromContext(ctx)
	t := time.Now().UTC()
	input.UpdatedAt = &t
	if err := c.repo.SaveResult(ctx, input); err != nil {
		switch {
		case errors.Is(err, model.ErrTaskNotFound):
			return model.ErrTaskNotFound // 404
		default:
			logger.Error().Err(err).Msg("Failed to save resize result in DB")
			return model.ErrCommon500 // 500
		}
	}

	return nil
}

// ReviveOrphans - переотправляет в очередь задачи, зависшие в created/in_progress
func (c TaskService) ReviveOrphans(ctx context.Context, limit int) {
	logger := mwlogger.LoggerFromContext(ctx)

	orphans, err := c.repo.FetchOrphans(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load orphans from DB")
		return
	}

	for _, v := range orphans {
		if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(v), nil); err != nil {
			logger.Error().Err(err).Msg("Failed to publish orphan to queue")
		}
	}
}
