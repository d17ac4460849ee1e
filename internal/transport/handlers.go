// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"log"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type TaskHandler struct {
	service TaskService
}

type TaskService interface {
	Create(ctx context.Context, data *model.TaskCreateData) (*model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)                          // метаданные задачи
	Delete(ctx context.Context, id string) error                                      // удалить как в базе, так и в minio
	LoadResult(ctx context.Context, id, variant string) (io.ReadCloser, string, error) // прям скачать результат
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Task, error)         // получить список
}

func NewTaskHandler(svc TaskService) *TaskHandler {
	return &TaskHandler{
		service: svc,
	}
}

func (h TaskHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h TaskHandler) Create(ctx *ginext.Context) {
	var raw model.TaskCreateData
	var err error

	// числовые поля опциональны, но если переданы - должны быть числами
	if raw.MaxWidth, err = optionalInt(ctx, "max_width"); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectBounds.Error()})
		return
	}
	if raw.MaxHeight, err = optionalInt(ctx, "max_height"); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectBounds.Error()})
		return
	}
	if raw.Quality, err = optionalInt(ctx, "quality"); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectQuality.Error()})
		return
	}
	if raw.ThumbWidth, err = optionalInt(ctx, "thumb_width"); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectBounds.Error()})
		return
	}
	if raw.ThumbHeight, err = optionalInt(ctx, "thumb_height"); err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrIncorrectBounds.Error()})
		return
	}
	raw.Strategy = ctx.PostForm("orientation_strategy")

	// парсинг исходника
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(imageFile)
	raw.OrigImg = imageFile
	raw.OrigContentType = imageHeader.Header.Get("Content-Type")
	raw.OrigImgSize = imageHeader.Size

	// передаем в сервис
	res, err := h.service.Create(ctx.Request.Context(), &raw)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

func (h TaskHandler) GetAllImages(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h TaskHandler) GetInfo(ctx *ginext.Context) {
	id := ctx.Param("id")

	res, err := h.service.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h TaskHandler) LoadResult(ctx *ginext.Context) {
	id := ctx.Param("id")
	variant := ctx.Query("variant")

	res, cType, err := h.service.LoadResult(ctx.Request.Context(), id, variant)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for task id %q: %v", n, id, err)
	}
}

func (h TaskHandler) Delete(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
