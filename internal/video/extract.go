package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

const tmpPattern = ".extract_%06d"

// Extractor runs ffmpeg to decode the selected frames into image files named
// by their source frame number.
type Extractor struct {
	format  string // "png" or "jpeg"
	quality int    // JPEG quality, 1-100
	prefix  string
	logger  *slog.Logger
}

// NewExtractor configures an extraction pass. The format must already be
// normalized to "png" or "jpeg".
func NewExtractor(format string, quality int, prefix string, logger *slog.Logger) *Extractor {
	return &Extractor{format: format, quality: quality, prefix: prefix, logger: logger}
}

// Args builds the ffmpeg argument list for a plan. Split out so the frame
// selection filter can be verified without running ffmpeg.
func (e *Extractor) Args(videoPath, outputDir string, plan Plan) []string {
	filter := fmt.Sprintf("select='between(n,%d,%d)*not(mod(n-%d,%d))'",
		plan.StartFrame, plan.EndFrame-1, plan.StartFrame, plan.Step)

	args := []string{
		"-v", "error",
		"-i", videoPath,
		"-vf", filter,
		"-vsync", "vfr",
	}
	if plan.MaxFrames > 0 {
		args = append(args, "-frames:v", fmt.Sprintf("%d", plan.MaxFrames))
	}
	if e.format == "jpeg" {
		args = append(args, "-qscale:v", fmt.Sprintf("%d", jpegScale(e.quality)))
	}
	args = append(args, "-y", filepath.Join(outputDir, tmpPattern+"."+e.ext()))
	return args
}

// Extract decodes the planned frames into outputDir. Outputs are written
// under temporary names and renamed to {prefix}_{frame:06d}.{ext} in source
// frame order. A decode failure mid-stream keeps the frames already written;
// the count of renamed frames is always returned.
func (e *Extractor) Extract(ctx context.Context, videoPath, outputDir string, plan Plan) (int, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", e.Args(videoPath, outputDir, plan)...)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		e.logger.Warn("ffmpeg exited with error",
			slog.String("error", runErr.Error()),
			slog.String("output", string(output)))
	}

	saved, err := e.renameOutputs(outputDir, plan)
	if err != nil {
		return saved, err
	}
	if saved == 0 && runErr != nil {
		return 0, fmt.Errorf("decoding %s: %w", videoPath, runErr)
	}
	return saved, nil
}

// renameOutputs maps the sequential temporary files onto the planned source
// frame numbers.
func (e *Extractor) renameOutputs(outputDir string, plan Plan) (int, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, ".extract_*."+e.ext()))
	if err != nil {
		return 0, fmt.Errorf("listing extracted frames: %w", err)
	}
	sort.Strings(matches)

	frames := plan.Frames()
	saved := 0
	for i, tmp := range matches {
		if i >= len(frames) {
			// More outputs than planned frames should not happen; drop extras.
			_ = os.Remove(tmp)
			continue
		}
		name := fmt.Sprintf("%s_%06d.%s", e.prefix, frames[i], e.ext())
		if err := os.Rename(tmp, filepath.Join(outputDir, name)); err != nil {
			return saved, fmt.Errorf("renaming %s: %w", tmp, err)
		}
		saved++
	}
	return saved, nil
}

func (e *Extractor) ext() string {
	if e.format == "jpeg" {
		return "jpeg"
	}
	return "png"
}

// jpegScale maps the 1-100 quality flag onto ffmpeg's 2 (best) to 31 (worst)
// qscale range.
func jpegScale(quality int) int {
	q := 31 - int(float64(quality-1)*29.0/99.0+0.5)
	if q < 2 {
		q = 2
	}
	if q > 31 {
		q = 31
	}
	return q
}
