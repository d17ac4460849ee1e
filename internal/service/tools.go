package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/wb-go/wbf/config"
)

const (
	fallbackMaxWidth  = 1080
	fallbackMaxHeight = 1920
	fallbackQuality   = 80
)

// DefaultsFromConfig - читает DEFAULT_* из env, битые значения заменяются встроенными
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		MaxWidth:  positiveOr(cfg.GetString("DEFAULT_MAX_WIDTH"), fallbackMaxWidth),
		MaxHeight: positiveOr(cfg.GetString("DEFAULT_MAX_HEIGHT"), fallbackMaxHeight),
		Quality:   qualityOr(cfg.GetString("DEFAULT_QUALITY"), fallbackQuality),
	}
}

func positiveOr(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		if raw != "" {
			log.Printf("Incorrect bound value %q in config. Using default %d...", raw, fallback)
		}
		return fallback
	}
	return v
}

func qualityOr(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 || v > 100 {
		if raw != "" {
			log.Printf("Incorrect quality value %q in config. Using default %d...", raw, fallback)
		}
		return fallback
	}
	return v
}

func validateQueryParams(req *model.ListRequest) {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 30
	}

	// Валидируем поле типа сортировки
	req.Sort = strings.TrimSpace(strings.ToLower(req.Sort))
	switch {
	case strings.Contains(req.Sort, model.ByUUID):
		req.Sort = "task_uid"
	default:
		req.Sort = "created_at" // по дефолту ставим сортировку по времени создания
	}

	// Валидируем порядок
	req.Order = strings.TrimSpace(strings.ToLower(req.Order))
	switch {
	case strings.Contains(req.Order, model.OrderASC):
		req.Order = "ASC"
	default:
		req.Order = "DESC" // по дефолту ставим сортировку "новое-выше"
	}
}

func validateNormalizeTaskInfo(raw *model.TaskCreateData, clean *model.Task, def Defaults) error {
	// корректен ли исходник
	if raw.OrigImg == nil || raw.OrigImgSize <= 0 {
		return model.ErrEmptySource
	}
	if !model.InImageTypeMap[raw.OrigContentType] {
		return model.ErrUnsupportedFormat
	}

	// рамка: не передали - берем дефолт, передали мусор - ошибка
	clean.MaxWidth, clean.MaxHeight = def.MaxWidth, def.MaxHeight
	if raw.MaxWidth != nil {
		clean.MaxWidth = *raw.MaxWidth
	}
	if raw.MaxHeight != nil {
		clean.MaxHeight = *raw.MaxHeight
	}
	if clean.MaxWidth <= 0 || clean.MaxHeight <= 0 {
		return model.ErrIncorrectBounds
	}

	clean.Quality = def.Quality
	if raw.Quality != nil {
		clean.Quality = *raw.Quality
	}
	if clean.Quality < 0 || clean.Quality > 100 {
		return model.ErrIncorrectQuality
	}

	strategy, err := model.ParseStrategy(raw.Strategy)
	if err != nil {
		return err
	}
	clean.Strategy = strategy

	return validateNormalizeThumbnail(raw, clean)
}

func validateNormalizeThumbnail(raw *model.TaskCreateData, clean *model.Task) error {
	if raw.ThumbWidth == nil && raw.ThumbHeight == nil {
		return nil
	}

	w, h := 0, 0
	if raw.ThumbWidth != nil {
		w = *raw.ThumbWidth
	}
	if raw.ThumbHeight != nil {
		h = *raw.ThumbHeight
	}

	// кейс: обе оси - нули
	if w <= 0 && h <= 0 {
		return model.ErrIncorrectBounds
	}

	// кейс: одна из осей не задана - превью квадратное
	if w <= 0 {
		w = h
		clean.ErrMsg = append(clean.ErrMsg, fmt.Sprintf("thumbnail width missing: using height value %d", h))
	}
	if h <= 0 {
		h = w
		clean.ErrMsg = append(clean.ErrMsg, fmt.Sprintf("thumbnail height missing: using width value %d", w))
	}

	clean.ThumbWidth, clean.ThumbHeight = &w, &h
	return nil
}
