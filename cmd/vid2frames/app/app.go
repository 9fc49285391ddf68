package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MrPusitCH/drone-ingest-tools/internal/imaging"
	"github.com/MrPusitCH/drone-ingest-tools/internal/video"

	xdraw "golang.org/x/image/draw"
)

// Run extracts the planned frames from the video into the output directory.
// A decode failure mid-stream keeps what was already written and still
// reports the partial count; only a run with zero saved frames fails.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.VideoPath); err != nil {
		return fmt.Errorf("video file '%s' does not exist: %w", config.VideoPath, err)
	}

	info, err := video.Probe(ctx, config.VideoPath)
	if err != nil {
		return err
	}

	logger.Info("video info",
		slog.Group("video",
			slog.String("file", config.VideoPath),
			slog.String("resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)),
			slog.String("fps", fmt.Sprintf("%0.2f", info.FPS)),
			slog.String("duration", fmt.Sprintf("%0.2fs", info.Duration)),
			slog.Int("totalFrames", info.TotalFrames),
		))

	plan := video.BuildPlan(info, config.StartTime, config.EndTime, config.Interval, config.MaxFrames)

	logger.Info("extracting frames",
		slog.Group("plan",
			slog.Int("startFrame", plan.StartFrame),
			slog.Int("endFrame", plan.EndFrame),
			slog.Int("step", plan.Step),
			slog.Int("selected", plan.Count()),
			slog.String("outputDir", config.OutputDir),
			slog.String("format", config.Format),
		))

	extractor := video.NewExtractor(config.Format, config.Quality, config.Prefix, logger)
	saved, err := extractor.Extract(ctx, config.VideoPath, config.OutputDir, plan)
	if err != nil && saved == 0 {
		return err
	}
	if err != nil {
		logger.Warn("extraction truncated", slog.String("error", err.Error()))
	}

	if config.Annotate && saved > 0 {
		if err := annotateFrames(config, info, plan, saved, logger); err != nil {
			return err
		}
	}

	outputDir, err := filepath.Abs(config.OutputDir)
	if err != nil {
		outputDir = config.OutputDir
	}
	logger.Info("extraction complete",
		slog.Int("framesSaved", saved),
		slog.String("outputDir", outputDir))

	if saved == 0 {
		return fmt.Errorf("no frames extracted from %s", config.VideoPath)
	}
	return nil
}

// annotateFrames stamps each written frame with its source frame number and
// timecode.
func annotateFrames(config *Config, info *video.Info, plan video.Plan, saved int, logger *slog.Logger) error {
	annotator, err := imaging.NewAnnotator()
	if err != nil {
		return fmt.Errorf("creating annotator: %w", err)
	}

	frames := plan.Frames()
	if saved < len(frames) {
		frames = frames[:saved]
	}
	for _, n := range frames {
		name := fmt.Sprintf("%s_%06d.%s", config.Prefix, n, config.Format)
		path := filepath.Join(config.OutputDir, name)

		img, format, err := imaging.Load(path)
		if err != nil {
			logger.Warn("skipping annotation", slog.String("file", name), slog.String("error", err.Error()))
			continue
		}

		rgba := image.NewRGBA(img.Bounds())
		xdraw.Copy(rgba, image.Point{}, img, img.Bounds(), xdraw.Src, nil)

		timecode := time.Duration(float64(n) / info.FPS * float64(time.Second))
		label := fmt.Sprintf("frame %d  t=%s", n, timecode.Truncate(time.Millisecond))
		if err := annotator.Stamp(rgba, label); err != nil {
			return fmt.Errorf("annotating %s: %w", name, err)
		}

		if err := imaging.Save(path, rgba, format, config.Quality); err != nil {
			return err
		}
	}
	return nil
}
