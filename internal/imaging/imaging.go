// Package imaging holds the shared image plumbing for the batch tools:
// directory scanning, aspect-ratio target sizing, Catmull-Rom resampling and
// PNG/JPEG round-tripping.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// ErrNoDimension is returned when a size spec carries neither a width nor a
// height.
var ErrNoDimension = errors.New("no target dimension specified")

// SizeSpec describes the requested output geometry. With Exact set both
// dimensions are taken literally; otherwise the zero dimension is derived
// from the source aspect ratio.
type SizeSpec struct {
	Width  int
	Height int
	Exact  bool
}

// TargetFor computes the output size for a source of the given dimensions.
// Aspect-preserving math truncates, matching integer pixel counts.
func (s SizeSpec) TargetFor(orig image.Point) (image.Point, error) {
	switch {
	case s.Exact:
		return image.Point{X: s.Width, Y: s.Height}, nil
	case s.Width > 0:
		h := int(float64(orig.Y) * float64(s.Width) / float64(orig.X))
		return image.Point{X: s.Width, Y: h}, nil
	case s.Height > 0:
		w := int(float64(orig.X) * float64(s.Height) / float64(orig.Y))
		return image.Point{X: w, Y: s.Height}, nil
	}
	return image.Point{}, ErrNoDimension
}

// String renders the spec the way the run banner reports it.
func (s SizeSpec) String() string {
	switch {
	case s.Exact:
		return fmt.Sprintf("%dx%d", s.Width, s.Height)
	case s.Width > 0:
		return fmt.Sprintf("%dpx width (preserve aspect ratio)", s.Width)
	default:
		return fmt.Sprintf("%dpx height (preserve aspect ratio)", s.Height)
	}
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// IsImageFile reports whether the name carries a supported image extension.
func IsImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ScanDir lists the image files in dir, sorted by name. It does not recurse.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Load decodes an image file and reports its format ("png" or "jpeg").
func Load(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, format, nil
}

// Resample scales src to the given size with Catmull-Rom interpolation.
func Resample(src image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// Save encodes img to path. JPEG output honors the quality setting; anything
// else is written as PNG.
func Save(path string, img image.Image, format string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// FormatForPath picks the encode format from a file's extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	default:
		return "png"
	}
}
