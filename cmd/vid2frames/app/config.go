package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config holds the validated parameters for one extraction run.
type Config struct {
	VideoPath string
	OutputDir string
	Format    string // normalized to "png" or "jpeg"
	Prefix    string

	Interval  float64 // seconds between selected frames, 0 = every frame
	MaxFrames int     // 0 = unlimited
	StartTime float64
	EndTime   float64 // 0 = end of stream
	Quality   int     // JPEG quality

	Annotate bool
}

// NewConfigFromCLI parses and validates the command line. The video path is
// the single positional argument.
func NewConfigFromCLI() (*Config, error) {
	c := Config{}

	flag.StringVar(&c.OutputDir, "output-dir", "frames", "Output directory for extracted frames")
	flag.StringVar(&c.Format, "format", "png", "Output image format. [png, jpg, jpeg]")
	flag.Float64Var(&c.Interval, "interval", 0, "Extract a frame every N seconds (0 = all frames)")
	flag.IntVar(&c.MaxFrames, "max-frames", 0, "Maximum number of frames to extract (0 = all)")
	flag.Float64Var(&c.StartTime, "start-time", 0, "Start time in seconds")
	flag.Float64Var(&c.EndTime, "end-time", 0, "End time in seconds (0 = end of video)")
	flag.IntVar(&c.Quality, "quality", 95, "JPEG quality (1-100)")
	flag.StringVar(&c.Prefix, "prefix", "frame", "Prefix for output filenames")
	flag.BoolVar(&c.Annotate, "annotate", false, "Stamp frame number and timecode onto extracted frames")
	flag.Parse()

	c.VideoPath = flag.Arg(0)
	c.Format = strings.ToLower(c.Format)
	if c.Format == "jpg" {
		c.Format = "jpeg"
	}

	var err error
	switch {
	case c.VideoPath == "":
		err = errors.New("video file argument is required")
	case c.Format != "png" && c.Format != "jpeg":
		err = fmt.Errorf("unsupported format: %s (use png or jpg)", c.Format)
	case c.StartTime < 0:
		err = errors.New("start-time must be >= 0")
	case c.EndTime != 0 && c.EndTime <= c.StartTime:
		err = errors.New("end-time must be > start-time")
	case flagWasSet("interval") && c.Interval <= 0:
		err = errors.New("interval must be > 0")
	case flagWasSet("max-frames") && c.MaxFrames <= 0:
		err = errors.New("max-frames must be > 0")
	case c.Quality < 1 || c.Quality > 100:
		err = errors.New("quality must be in 1..100")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return &c, nil
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
