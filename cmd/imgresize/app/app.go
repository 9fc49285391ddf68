package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MrPusitCH/drone-ingest-tools/internal/imaging"
)

// Run resizes every image in the input directory. Per-file failures are
// logged and skipped; the run fails only when nothing could be resized.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	stat, err := os.Stat(config.InputDir)
	if err != nil {
		return fmt.Errorf("input directory '%s' does not exist: %w", config.InputDir, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("not a directory: %s", config.InputDir)
	}

	files, err := imaging.ScanDir(config.InputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found in %s", config.InputDir)
	}

	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = config.InputDir
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	logger.Info("resizing images",
		slog.Group("run",
			slog.String("inputDir", config.InputDir),
			slog.String("outputDir", outputDir),
			slog.String("targetSize", config.Size.String()),
			slog.Int("images", len(files)),
		))

	resized := 0
	for i, file := range files {
		select {
		case <-ctx.Done():
			logger.Info("stopped by user")
			return summarize(logger, resized, len(files), outputDir)
		default:
		}

		dest := filepath.Join(outputDir, filepath.Base(file))
		if err := resizeOne(file, dest, config, logger, i+1, len(files)); err != nil {
			logger.Warn("skipping image",
				slog.String("file", filepath.Base(file)),
				slog.String("error", err.Error()))
			continue
		}
		resized++
	}

	return summarize(logger, resized, len(files), outputDir)
}

func resizeOne(src, dest string, config *Config, logger *slog.Logger, index, total int) error {
	img, format, err := imaging.Load(src)
	if err != nil {
		return err
	}

	origSize := img.Bounds().Size()
	target, err := config.Size.TargetFor(origSize)
	if err != nil {
		return err
	}

	resized := imaging.Resample(img, target)
	if err := imaging.Save(dest, resized, format, config.Quality); err != nil {
		return err
	}

	logger.Info("resized",
		slog.String("file", fmt.Sprintf("[%d/%d] %s", index, total, filepath.Base(src))),
		slog.String("from", fmt.Sprintf("%dx%d", origSize.X, origSize.Y)),
		slog.String("to", fmt.Sprintf("%dx%d", target.X, target.Y)))
	return nil
}

func summarize(logger *slog.Logger, resized, total int, outputDir string) error {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		abs = outputDir
	}
	logger.Info("resizing complete",
		slog.String("resized", fmt.Sprintf("%d/%d", resized, total)),
		slog.String("outputDir", abs))

	if resized == 0 {
		return fmt.Errorf("no images resized")
	}
	return nil
}
