// Package model provides data-structs for internal app-usage
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusDone       Status = "done"
)

// OrphanTimeout - сколько задача может висеть в created/in_progress, прежде чем считается брошенной
const OrphanTimeout = 10 * time.Minute

var StatusMap = map[Status]bool{
	StatusCreated:    true,
	StatusInProgress: true,
	StatusFailed:     true,
	StatusDone:       true,
}

//---------------------

// Task - задача на ресайз одной картинки, как она лежит в базе
type Task struct {
	UID          uuid.UUID           `json:"uid"`
	SourceKey    string              `json:"-"`
	ResultKey    string              `json:"-"`
	ThumbKey     string              `json:"-"`
	OrigWidth    int                 `json:"orig_width"`
	OrigHeight   int                 `json:"orig_height"`
	MaxWidth     int                 `json:"max_width"`
	MaxHeight    int                 `json:"max_height"`
	Quality      int                 `json:"quality"`
	Strategy     OrientationStrategy `json:"orientation_strategy"`
	ThumbWidth   *int                `json:"thumb_width,omitempty"`
	ThumbHeight  *int                `json:"thumb_height,omitempty"`
	ResultWidth  *int                `json:"result_width,omitempty"`
	ResultHeight *int                `json:"result_height,omitempty"`
	ResultSize   *int64              `json:"result_size,omitempty"`
	Status       Status              `json:"status,omitempty"`
	ErrMsg       StringSlice         `json:"error,omitempty"`
	CreatedAt    *time.Time          `json:"created_at,omitempty"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`
}

// HasThumbnail - нужна ли превьюшка в дополнение к основному результату
func (t *Task) HasThumbnail() bool {
	return t.ThumbWidth != nil && t.ThumbHeight != nil && *t.ThumbWidth > 0 && *t.ThumbHeight > 0
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

// TaskCreateData - сырые данные из запроса на создание задачи
type TaskCreateData struct {
	MaxWidth        *int
	MaxHeight       *int
	Quality         *int
	Strategy        string
	ThumbWidth      *int
	ThumbHeight     *int
	OrigImg         multipart.File
	OrigContentType string
	OrigImgSize     int64
}

// Варианты результата для выгрузки
const (
	VariantResult    = "result"
	VariantThumbnail = "thumbnail"
)

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later") // 500
	ErrIncorrectQuery    error = errors.New("incorrect query parameters")            // 400
	ErrIncorrectID       error = errors.New("incorrect task UUID")                   // 400
	ErrTaskNotFound      error = errors.New("specified task UUID doesn't exist")     // 404
	ErrResultNotReady    error = errors.New("requested image is not processed yet")  // 404
	ErrEmptySource       error = errors.New("empty/incorrect source image provided") // 400
	ErrIncorrectBounds   error = errors.New("incorrect bounding box values provided") // 400
	ErrIncorrectQuality  error = errors.New("quality must be within 0..100")          // 400
	ErrIncorrectStrategy error = errors.New("unknown orientation strategy")           // 400
	ErrIncorrectVariant  error = errors.New("unknown result variant")                 // 400
	ErrIncorrectStatus   error = errors.New("incorrect status provided")              // 400
	ErrUnsupportedFormat error = errors.New("unsupported source image format")        // 400
	ErrNoThumbnail       error = errors.New("thumbnail was not requested for task")   // 404
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	WEBP: ".webp",
}

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
	WEBP: true,
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 || s == nil {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}
