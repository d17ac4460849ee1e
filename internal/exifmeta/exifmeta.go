// Package exifmeta reads and writes the EXIF orientation tag of JPEG files.
package exifmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	dexif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	markerPrefix = 0xFF
	markerSOI    = 0xD8
)

var ErrNotJPEG = errors.New("data is not a JPEG stream")

// ReadOrientation returns the orientation tag of the file at path.
// Missing file, missing metadata or a broken tag all give OrientationUndefined.
func ReadOrientation(path string) model.Orientation {
	f, err := os.Open(path)
	if err != nil {
		return model.OrientationUndefined
	}
	defer f.Close()

	return ReadOrientationFrom(f)
}

func ReadOrientationFrom(r io.Reader) model.Orientation {
	x, err := exif.Decode(r)
	if err != nil {
		return model.OrientationUndefined
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return model.OrientationUndefined
	}

	v, err := tag.Int(0)
	if err != nil {
		return model.OrientationUndefined
	}

	o := model.Orientation(v)
	if !o.Valid() {
		return model.OrientationUndefined
	}
	return o
}

// WithOrientation returns a copy of the JPEG stream carrying an Exif APP1 segment
// with only the orientation tag. Any Exif APP1 already present is replaced.
func WithOrientation(data []byte, o model.Orientation) (out []byte, err error) {
	if !o.Valid() {
		return nil, errors.New("invalid orientation value")
	}
	if len(data) < 4 || data[0] != markerPrefix || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}

	// dsoprea внутри построен на panic/recover, страхуемся от вылетов наружу
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrNotJPEG, r)
		}
	}()

	mc, err := jpegstructure.NewJpegMediaParser().ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJPEG, err)
	}
	sl, ok := mc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, ErrNotJPEG
	}

	ib, err := orientationIfd(o)
	if err != nil {
		return nil, err
	}
	if err := sl.SetExif(ib); err != nil {
		return nil, fmt.Errorf("set exif: %w", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, fmt.Errorf("write jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// orientationIfd - IFD0 с единственным тегом 0x0112
func orientationIfd(o model.Orientation) (*dexif.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("exif mapping: %w", err)
	}

	ib := dexif.NewIfdBuilder(im, dexif.NewTagIndex(), exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	if err := ib.SetStandardWithName("Orientation", []uint16{uint16(o)}); err != nil {
		return nil, fmt.Errorf("set orientation tag: %w", err)
	}
	return ib, nil
}
