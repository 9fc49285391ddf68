package app

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrPusitCH/drone-ingest-tools/internal/imaging"
)

// Config holds the validated parameters for one resize run.
type Config struct {
	InputDir  string
	OutputDir string // empty = overwrite in place
	Size      imaging.SizeSpec
	Quality   int
}

// NewConfigFromCLI parses and validates the command line. The input directory
// is the single positional argument; exactly one of -width, -height or -size
// must be given.
func NewConfigFromCLI() (*Config, error) {
	c := Config{}

	var width, height int
	var size string
	flag.StringVar(&c.OutputDir, "output-dir", "", "Output directory (default: overwrite originals)")
	flag.IntVar(&width, "width", 0, "Target width in pixels (preserves aspect ratio)")
	flag.IntVar(&height, "height", 0, "Target height in pixels (preserves aspect ratio)")
	flag.StringVar(&size, "size", "", "Exact target size as WIDTHxHEIGHT (e.g. 620x620)")
	flag.IntVar(&c.Quality, "quality", 95, "JPEG quality (1-100)")
	flag.Parse()

	c.InputDir = flag.Arg(0)

	given := 0
	for _, set := range []bool{width > 0, height > 0, size != ""} {
		if set {
			given++
		}
	}

	var err error
	switch {
	case c.InputDir == "":
		err = errors.New("input directory argument is required")
	case given == 0:
		err = errors.New("one of -width, -height or -size is required")
	case given > 1:
		err = errors.New("-width, -height and -size are mutually exclusive")
	case flagWasSet("width") && width <= 0:
		err = errors.New("width must be > 0")
	case flagWasSet("height") && height <= 0:
		err = errors.New("height must be > 0")
	case c.Quality < 1 || c.Quality > 100:
		err = errors.New("quality must be in 1..100")
	}

	if err == nil {
		switch {
		case size != "":
			c.Size, err = parseSize(size)
		case width > 0:
			c.Size = imaging.SizeSpec{Width: width}
		default:
			c.Size = imaging.SizeSpec{Height: height}
		}
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return &c, nil
}

func parseSize(s string) (imaging.SizeSpec, error) {
	w, h, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		return imaging.SizeSpec{}, fmt.Errorf("size must be WIDTHxHEIGHT: %q", s)
	}

	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return imaging.SizeSpec{}, fmt.Errorf("invalid size width: %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return imaging.SizeSpec{}, fmt.Errorf("invalid size height: %q", h)
	}
	return imaging.SizeSpec{Width: width, Height: height, Exact: true}, nil
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
