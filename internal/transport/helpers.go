package transport

import (
	"errors"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrTaskNotFound),
		errors.Is(err, model.ErrResultNotReady),
		errors.Is(err, model.ErrNoThumbnail):
		return 404
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptySource),
		errors.Is(err, model.ErrIncorrectBounds),
		errors.Is(err, model.ErrIncorrectQuality),
		errors.Is(err, model.ErrIncorrectStrategy),
		errors.Is(err, model.ErrIncorrectVariant),
		errors.Is(err, model.ErrIncorrectStatus),
		errors.Is(err, model.ErrUnsupportedFormat):
		return 400
	default:
		return 500
	}
}

// optionalInt - пустое поле формы дает nil
func optionalInt(ctx *ginext.Context, key string) (*int, error) {
	raw := strings.TrimSpace(ctx.PostForm(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
