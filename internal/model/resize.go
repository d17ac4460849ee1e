package model

import (
	"errors"
	"strings"
)

// ImageDescriptor describes a decodable raster image on disk. Width and Height are the
// original pixel dimensions as reported by the caller.
type ImageDescriptor struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ResizeRequest is the input of a single resize call. An empty OutputPath means the
// source file is overwritten in place.
type ResizeRequest struct {
	Source     ImageDescriptor
	MaxWidth   int
	MaxHeight  int
	Quality    int
	OutputPath string
}

// ResizeResult carries what was actually written.
type ResizeResult struct {
	Path      string `json:"path"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size"`
}

// OrientationStrategy selects how the source orientation tag is honoured in the output.
type OrientationStrategy string

const (
	// StrategyTagPassthrough keeps pixels as stored and copies a meaningful tag to the output.
	StrategyTagPassthrough OrientationStrategy = "tag-passthrough"
	// StrategyBakePixels rotates/flips the raster upright and writes no tag.
	StrategyBakePixels OrientationStrategy = "bake-into-pixels"
)

func ParseStrategy(s string) (OrientationStrategy, error) {
	switch OrientationStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyTagPassthrough:
		return StrategyTagPassthrough, nil
	case StrategyBakePixels:
		return StrategyBakePixels, nil
	default:
		return "", ErrIncorrectStrategy
	}
}

var (
	ErrDecode         = errors.New("failed to decode source image")
	ErrEncode         = errors.New("failed to encode resized image")
	ErrIO             = errors.New("failed to write resized image")
	ErrInvalidRequest = errors.New("invalid resize request")
)
