package imageproc

import "math"

// ComputeTargetDimensions fits (width, height) into the bounding box keeping the aspect ratio.
// The width is clamped first and the height check runs on the already clamped result,
// so an image too wide and too tall by different ratios ends up exactly where the
// sequential passes put it. Images that already fit are returned unchanged.
func ComputeTargetDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width > maxWidth {
		ratio := float64(maxWidth) / float64(width)
		height = scaleDim(height, ratio)
		width = maxWidth
	}
	if height > maxHeight {
		ratio := float64(maxHeight) / float64(height)
		width = scaleDim(width, ratio)
		height = maxHeight
	}
	return width, height
}

func scaleDim(v int, ratio float64) int {
	res := int(math.Round(float64(v) * ratio))
	if res < 1 {
		return 1
	}
	return res
}

// ChooseDecodeScale returns the largest power-of-two divisor that still decodes at or
// above the target resolution.
func ChooseDecodeScale(width, height, targetWidth, targetHeight int) int {
	if targetWidth <= 0 || targetHeight <= 0 {
		return 1
	}

	halfW := width / 2
	halfH := height / 2

	divisor := 1
	for halfW/divisor >= targetWidth && halfH/divisor >= targetHeight {
		divisor *= 2
	}
	return divisor
}
