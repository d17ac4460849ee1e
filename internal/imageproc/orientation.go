package imageproc

import (
	"image"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/disintegration/imaging"
)

// ApplyOrientation turns raw pixels upright according to the EXIF orientation.
// imaging rotates counter-clockwise, hence Rotate270 for a 90° clockwise tag.
func ApplyOrientation(img image.Image, o model.Orientation) image.Image {
	switch o {
	case model.OrientationFlipHorizontal:
		return imaging.FlipH(img)
	case model.OrientationRotate180:
		return imaging.Rotate180(img)
	case model.OrientationFlipVertical:
		return imaging.FlipV(img)
	case model.OrientationTranspose:
		return imaging.Transpose(img)
	case model.OrientationRotate90CW:
		return imaging.Rotate270(img)
	case model.OrientationTransverse:
		return imaging.Transverse(img)
	case model.OrientationRotate90CCW:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
