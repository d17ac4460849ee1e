// Package main (in resize-subfolder) runs the picker resize step over files given on the command line
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/UnendingLoop/MediaPicker/internal/picker"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/zlog"
)

type cliFlags struct {
	maxWidth    int
	maxHeight   int
	quality     int
	strategy    string
	parallel    int
	maxAssets   int
	single      bool
	thumbWidth  int
	thumbHeight int
	thumbDir    string
	outDir      string
	logLevel    string
}

func parseFlags(args []string) (cliFlags, []string, error) {
	var f cliFlags
	def := picker.DefaultOptions()

	fs := pflag.NewFlagSet("resize", pflag.ContinueOnError)
	fs.IntVar(&f.maxWidth, "max-width", def.MaxWidth, "bounding box width")
	fs.IntVar(&f.maxHeight, "max-height", def.MaxHeight, "bounding box height")
	fs.IntVarP(&f.quality, "quality", "q", def.Quality, "JPEG quality 0..100")
	fs.StringVar(&f.strategy, "strategy", string(def.Strategy), "orientation strategy: tag-passthrough | bake-into-pixels")
	fs.IntVarP(&f.parallel, "parallel", "p", 0, "concurrent resizes, 0 means one per CPU")
	fs.IntVar(&f.maxAssets, "max-assets", def.MaxSelectedAssets, "maximum number of files per run")
	fs.BoolVar(&f.single, "single", false, "keep only the first file")
	fs.IntVar(&f.thumbWidth, "thumb-width", 0, "thumbnail width, 0 disables thumbnails")
	fs.IntVar(&f.thumbHeight, "thumb-height", 0, "thumbnail height, defaults to thumb-width")
	fs.StringVar(&f.thumbDir, "thumb-dir", "", "thumbnail directory, defaults to the image directory")
	fs.StringVarP(&f.outDir, "out-dir", "o", "", "copy files here and resize the copies instead of the originals")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level")

	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	if fs.NArg() == 0 {
		return f, nil, fmt.Errorf("no input files")
	}
	return f, fs.Args(), nil
}

func (f cliFlags) options() ([]picker.Option, error) {
	strategy, err := model.ParseStrategy(f.strategy)
	if err != nil {
		return nil, err
	}

	opts := []picker.Option{
		picker.WithMediaType(picker.MediaImage),
		picker.WithMaxSelectedAssets(f.maxAssets),
		picker.WithBounds(f.maxWidth, f.maxHeight),
		picker.WithQuality(f.quality),
		picker.WithStrategy(strategy),
		picker.WithParallelism(f.parallel),
	}
	if f.single {
		opts = append(opts, picker.WithSingleSelectedMode())
	}
	// превью в CLI только по явному запросу
	if f.thumbWidth > 0 {
		h := f.thumbHeight
		if h <= 0 {
			h = f.thumbWidth
		}
		opts = append(opts, picker.WithThumbnail(f.thumbWidth, h, f.thumbDir))
	} else {
		opts = append(opts, picker.WithoutThumbnail())
	}
	return opts, nil
}

func main() {
	flags, files, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(flags.logLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags, files); err != nil {
		zlog.Logger.Error().Err(err).Msg("Resize failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, flags cliFlags, files []string) error {
	if flags.outDir != "" {
		copied, err := copyInto(flags.outDir, files)
		if err != nil {
			return err
		}
		files = copied
	}

	assets := make([]model.Asset, 0, len(files))
	for _, path := range files {
		a, err := picker.NewImageAsset(path)
		if err != nil {
			return fmt.Errorf("probe %q: %w", path, err)
		}
		assets = append(assets, a)
	}

	opts, err := flags.options()
	if err != nil {
		return err
	}

	picked, err := picker.Open(ctx, picker.StaticPicker{Assets: assets}, picker.NewOptions(opts...))
	if err != nil {
		return err
	}

	for i, a := range picked {
		ev := zlog.Logger.Info().
			Str("file", a.Path).
			Int("orig_width", assets[i].Width).
			Int("orig_height", assets[i].Height).
			Int("width", a.Width).
			Int("height", a.Height).
			Int64("size", a.Size)
		if a.Thumbnail != nil {
			ev = ev.Str("thumbnail", a.Thumbnail.Path)
		}
		ev.Msg("Resized")
	}
	return nil
}

// copyInto - ресайз пишет поверх файла, поэтому оригиналы сначала копируем
func copyInto(dir string, files []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(files))
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("copy %q: %w", src, err)
		}
		out = append(out, dst)
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
