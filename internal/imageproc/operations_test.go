package imageproc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/UnendingLoop/MediaPicker/internal/exifmeta"
	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// testImageFile пишет во временную папку JPEG w x h: левая половина красная, правая синяя
func testImageFile(t *testing.T, w, h int, tag model.Orientation) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 220, G: 20, B: 20, A: 255}
			if x >= w/2 {
				c = color.RGBA{R: 20, G: 20, B: 220, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))

	data := buf.Bytes()
	if tag != model.OrientationUndefined {
		var err error
		data, err = exifmeta.WithOrientation(data, tag)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "src.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func mustOpen(t *testing.T, path string) image.Image {
	t.Helper()

	img, err := imaging.Open(path)
	require.NoError(t, err)
	require.NotNil(t, img)

	return img
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()

	st, err := os.Stat(path)
	require.NoError(t, err)
	return st.Size()
}

func TestComputeTargetDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"fits already", 800, 600, 1000, 1000, 800, 600},
		{"exactly at bounds", 1000, 1000, 1000, 1000, 1000, 1000},
		{"too wide, height fits after", 4000, 3000, 1000, 1000, 1000, 750},
		{"too tall only", 1000, 4000, 1000, 1000, 250, 1000},
		{"too wide and too tall", 5000, 4000, 1000, 500, 625, 500},
		{"rounding on width pass", 3000, 2001, 1000, 1000, 1000, 667},
		{"rounding on height pass", 999, 3001, 2000, 1000, 333, 1000},
		{"extreme panorama keeps 1px", 100000, 10, 100, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ComputeTargetDimensions(tt.w, tt.h, tt.maxW, tt.maxH)
			require.Equal(t, tt.wantW, w)
			require.Equal(t, tt.wantH, h)
		})
	}
}

func TestComputeTargetDimensions_Properties(t *testing.T) {
	for w := 1; w <= 60; w += 7 {
		for h := 1; h <= 60; h += 5 {
			for maxW := 1; maxW <= 40; maxW += 3 {
				for maxH := 1; maxH <= 40; maxH += 4 {
					gotW, gotH := ComputeTargetDimensions(w, h, maxW, maxH)

					if w <= maxW && h <= maxH {
						require.Equal(t, w, gotW)
						require.Equal(t, h, gotH)
						continue
					}

					require.LessOrEqual(t, gotW, maxW)
					require.LessOrEqual(t, gotH, maxH)
					require.True(t, gotW == maxW || gotH == maxH, "%dx%d in %dx%d -> %dx%d", w, h, maxW, maxH, gotW, gotH)
				}
			}
		}
	}
}

func TestChooseDecodeScale(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		tw, th int
		want   int
	}{
		{"no downscale", 800, 600, 800, 600, 1},
		{"slightly smaller", 800, 600, 500, 375, 1},
		{"half", 800, 600, 400, 300, 2},
		{"large photo", 4000, 3000, 1000, 750, 4},
		{"panorama limited by height", 2000, 1000, 100, 50, 16},
		{"zero target", 800, 600, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ChooseDecodeScale(tt.w, tt.h, tt.tw, tt.th))
		})
	}
}

func TestChooseDecodeScale_Tight(t *testing.T) {
	for w := 10; w <= 5000; w += 317 {
		for h := 10; h <= 5000; h += 289 {
			tw, th := ComputeTargetDimensions(w, h, 300, 300)
			d := ChooseDecodeScale(w, h, tw, th)

			// следующее удвоение уже не проходит условие цикла
			require.True(t, (w/2)/d < tw || (h/2)/d < th)
			// и декодированный буфер не меньше цели
			require.GreaterOrEqual(t, w/d, tw)
			require.GreaterOrEqual(t, h/d, th)
		}
	}
}

func TestResizer_Resize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"downscale landscape", 400, 300, 100, 100, 100, 75},
		{"downscale portrait", 100, 400, 100, 100, 25, 100},
		{"subsampled decode", 2000, 1000, 100, 100, 100, 50},
		{"identity when fits", 80, 60, 100, 100, 80, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testImageFile(t, tt.w, tt.h, model.OrientationUndefined)
			r := NewResizer(model.StrategyTagPassthrough)

			res, err := r.Resize(context.Background(), model.ResizeRequest{
				Source:    model.ImageDescriptor{Path: path, Width: tt.w, Height: tt.h},
				MaxWidth:  tt.maxW,
				MaxHeight: tt.maxH,
				Quality:   80,
			})
			require.NoError(t, err)

			require.Equal(t, path, res.Path)
			require.Equal(t, tt.wantW, res.Width)
			require.Equal(t, tt.wantH, res.Height)
			require.Equal(t, fileSize(t, path), res.SizeBytes)

			img := mustOpen(t, path)
			require.Equal(t, tt.wantW, img.Bounds().Dx())
			require.Equal(t, tt.wantH, img.Bounds().Dy())
		})
	}
}

func TestResizer_Resize_OutputPath(t *testing.T) {
	path := testImageFile(t, 400, 300, model.OrientationUndefined)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.jpg")
	res, err := NewResizer("").Resize(context.Background(), model.ResizeRequest{
		Source:     model.ImageDescriptor{Path: path, Width: 400, Height: 300},
		MaxWidth:   200,
		MaxHeight:  200,
		Quality:    70,
		OutputPath: out,
	})
	require.NoError(t, err)
	require.Equal(t, out, res.Path)
	require.Equal(t, 200, res.Width)
	require.Equal(t, 150, res.Height)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestResizer_Resize_EmptyPath(t *testing.T) {
	req := model.ResizeRequest{
		Source:    model.ImageDescriptor{Path: "", Width: 10, Height: 10},
		MaxWidth:  5,
		MaxHeight: 5,
		Quality:   80,
	}

	res, err := NewResizer(model.StrategyBakePixels).Resize(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "", res.Path)
	require.Equal(t, 10, res.Width)
	require.Equal(t, 10, res.Height)
	require.Zero(t, res.SizeBytes)
}

func TestResizer_Resize_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("not-an-image"), 0o644))

	valid := testImageFile(t, 40, 30, model.OrientationUndefined)

	tests := []struct {
		name    string
		req     model.ResizeRequest
		wantErr error
	}{
		{
			name:    "missing file",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: filepath.Join(dir, "nope.jpg"), Width: 10, Height: 10}, MaxWidth: 5, MaxHeight: 5, Quality: 80},
			wantErr: model.ErrDecode,
		},
		{
			name:    "broken image",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: broken, Width: 10, Height: 10}, MaxWidth: 5, MaxHeight: 5, Quality: 80},
			wantErr: model.ErrDecode,
		},
		{
			name:    "zero bounds",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: valid, Width: 40, Height: 30}, MaxWidth: 0, MaxHeight: 5, Quality: 80},
			wantErr: model.ErrInvalidRequest,
		},
		{
			name:    "quality out of range",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: valid, Width: 40, Height: 30}, MaxWidth: 5, MaxHeight: 5, Quality: 101},
			wantErr: model.ErrInvalidRequest,
		},
		{
			name:    "unknown original size",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: valid}, MaxWidth: 5, MaxHeight: 5, Quality: 80},
			wantErr: model.ErrInvalidRequest,
		},
		{
			name:    "destination dir missing",
			req:     model.ResizeRequest{Source: model.ImageDescriptor{Path: valid, Width: 40, Height: 30}, MaxWidth: 20, MaxHeight: 20, Quality: 80, OutputPath: filepath.Join(dir, "missing", "out.jpg")},
			wantErr: model.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResizer(model.StrategyTagPassthrough).Resize(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// битый исходник остался нетронутым
	data, err := os.ReadFile(broken)
	require.NoError(t, err)
	require.Equal(t, []byte("not-an-image"), data)
}

func TestResizer_Resize_CanceledContext(t *testing.T) {
	path := testImageFile(t, 40, 30, model.OrientationUndefined)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResizer("").Resize(ctx, model.ResizeRequest{
		Source:    model.ImageDescriptor{Path: path, Width: 40, Height: 30},
		MaxWidth:  20,
		MaxHeight: 20,
		Quality:   80,
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResizer_TagPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		srcTag  model.Orientation
		wantTag model.Orientation
	}{
		{"rotated tag propagated", model.OrientationRotate90CW, model.OrientationRotate90CW},
		{"mirrored tag propagated", model.OrientationFlipHorizontal, model.OrientationFlipHorizontal},
		{"normal tag dropped", model.OrientationNormal, model.OrientationUndefined},
		{"no tag stays without tag", model.OrientationUndefined, model.OrientationUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testImageFile(t, 400, 300, tt.srcTag)

			res, err := NewResizer(model.StrategyTagPassthrough).Resize(context.Background(), model.ResizeRequest{
				Source:    model.ImageDescriptor{Path: path, Width: 400, Height: 300},
				MaxWidth:  50,
				MaxHeight: 100,
				Quality:   80,
			})
			require.NoError(t, err)

			// пиксели не трогаем - размеры в исходной ориентации
			require.Equal(t, 50, res.Width)
			require.Equal(t, 38, res.Height)
			require.Equal(t, tt.wantTag, exifmeta.ReadOrientation(path))
		})
	}
}

func TestResizer_BakePixels(t *testing.T) {
	path := testImageFile(t, 400, 300, model.OrientationRotate90CW)

	res, err := NewResizer(model.StrategyBakePixels).Resize(context.Background(), model.ResizeRequest{
		Source:    model.ImageDescriptor{Path: path, Width: 400, Height: 300},
		MaxWidth:  50,
		MaxHeight: 100,
		Quality:   90,
	})
	require.NoError(t, err)

	// поворот на 90 меняет местами стороны, результат влезает в 50x100
	require.Equal(t, 50, res.Width)
	require.Equal(t, 67, res.Height)
	require.Equal(t, model.OrientationUndefined, exifmeta.ReadOrientation(path))

	img := mustOpen(t, path)
	require.Equal(t, 50, img.Bounds().Dx())
	require.Equal(t, 67, img.Bounds().Dy())

	// левая (красная) половина исходника после поворота по часовой оказывается сверху
	top := color.NRGBAModel.Convert(img.At(25, 5)).(color.NRGBA)
	bottom := color.NRGBAModel.Convert(img.At(25, 60)).(color.NRGBA)
	require.Greater(t, top.R, top.B)
	require.Greater(t, bottom.B, bottom.R)
}

func TestResizer_BakePixels_NoTag(t *testing.T) {
	path := testImageFile(t, 400, 300, model.OrientationUndefined)

	res, err := NewResizer(model.StrategyBakePixels).Resize(context.Background(), model.ResizeRequest{
		Source:    model.ImageDescriptor{Path: path, Width: 400, Height: 300},
		MaxWidth:  100,
		MaxHeight: 100,
		Quality:   90,
	})
	require.NoError(t, err)
	require.Equal(t, 100, res.Width)
	require.Equal(t, 75, res.Height)
}

func TestApplyOrientation(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))

	tests := []struct {
		o            model.Orientation
		wantW, wantH int
	}{
		{model.OrientationUndefined, 4, 2},
		{model.OrientationNormal, 4, 2},
		{model.OrientationFlipHorizontal, 4, 2},
		{model.OrientationRotate180, 4, 2},
		{model.OrientationFlipVertical, 4, 2},
		{model.OrientationTranspose, 2, 4},
		{model.OrientationRotate90CW, 2, 4},
		{model.OrientationTransverse, 2, 4},
		{model.OrientationRotate90CCW, 2, 4},
	}

	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			out := ApplyOrientation(src, tt.o)
			require.Equal(t, tt.wantW, out.Bounds().Dx())
			require.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestProbe(t *testing.T) {
	path := testImageFile(t, 120, 90, model.OrientationUndefined)

	desc, size, err := Probe(path)
	require.NoError(t, err)
	require.Equal(t, path, desc.Path)
	require.Equal(t, 120, desc.Width)
	require.Equal(t, 90, desc.Height)
	require.Equal(t, fileSize(t, path), size)

	_, _, err = Probe(filepath.Join(t.TempDir(), "nope.png"))
	require.ErrorIs(t, err, model.ErrDecode)
}

func TestThumbnailer(t *testing.T) {
	src := testImageFile(t, 300, 200, model.OrientationUndefined)

	tests := []struct {
		name    string
		src     string
		w, h    int
		wantErr error
	}{
		{"OK thumbnail", src, 50, 50, nil},
		{"empty source", "", 50, 50, model.ErrInvalidRequest},
		{"zero size", src, 0, 50, model.ErrInvalidRequest},
		{"missing source", filepath.Join(t.TempDir(), "nope.jpg"), 50, 50, model.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "thumb.jpg")
			res, err := Thumbnailer(tt.src, dst, tt.w, tt.h, 80)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, fileSize(t, dst), res.SizeBytes)

			img := mustOpen(t, dst)
			require.Equal(t, tt.w, img.Bounds().Dx())
			require.Equal(t, tt.h, img.Bounds().Dy())
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o600))

	n, err := writeFileAtomic(dst, []byte("fresh-bytes"))
	require.NoError(t, err)
	require.Equal(t, int64(len("fresh-bytes")), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "fresh-bytes", string(got))

	st, err := os.Stat(dst)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	// временных файлов рядом не остается
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = writeFileAtomic(filepath.Join(dir, "missing", "out.jpg"), []byte("x"))
	require.ErrorIs(t, err, model.ErrIO)
}
