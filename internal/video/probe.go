// Package video wraps ffprobe/ffmpeg for single-pass frame extraction: probe
// the container, plan which source frames to keep, run the decode, and name
// the outputs by source frame number.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Info is the subset of container metadata the extractor plans with.
type Info struct {
	Width       int
	Height      int
	FPS         float64
	TotalFrames int
	Duration    float64 // seconds
}

type probeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		FrameRate string `json:"r_frame_rate"`
		NbFrames  string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first video stream's geometry, frame rate and length via
// ffprobe. Containers that do not record a frame count get one derived from
// duration and frame rate.
func Probe(ctx context.Context, videoPath string) (*Info, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", videoPath, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(probed.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", videoPath)
	}

	stream := probed.Streams[0]
	fps, err := parseFrameRate(stream.FrameRate)
	if err != nil {
		return nil, fmt.Errorf("parsing frame rate: %w", err)
	}

	info := Info{
		Width:  stream.Width,
		Height: stream.Height,
		FPS:    fps,
	}
	if probed.Format.Duration != "" {
		if info.Duration, err = strconv.ParseFloat(probed.Format.Duration, 64); err != nil {
			return nil, fmt.Errorf("parsing duration: %w", err)
		}
	}
	if stream.NbFrames != "" {
		if info.TotalFrames, err = strconv.Atoi(stream.NbFrames); err != nil {
			return nil, fmt.Errorf("parsing frame count: %w", err)
		}
	}
	if info.TotalFrames == 0 && info.Duration > 0 && fps > 0 {
		info.TotalFrames = int(math.Round(info.Duration * fps))
	}
	if info.TotalFrames == 0 {
		return nil, fmt.Errorf("cannot determine frame count of %s", videoPath)
	}

	return &info, nil
}

// parseFrameRate converts ffprobe's rational rate ("30000/1001") to a float.
func parseFrameRate(rate string) (float64, error) {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		return strconv.ParseFloat(rate, 64)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator in frame rate %q", rate)
	}
	return n / d, nil
}
