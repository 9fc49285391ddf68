package app

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrPusitCH/drone-ingest-tools/internal/imaging"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRunResizesAll(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "resized")
	writePNG(t, filepath.Join(inputDir, "a.png"), 400, 200)
	writePNG(t, filepath.Join(inputDir, "b.png"), 640, 480)
	writePNG(t, filepath.Join(inputDir, "c.png"), 100, 300)

	config := &Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Size:      imaging.SizeSpec{Width: 100},
		Quality:   95,
	}
	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		img, _, err := imaging.Load(filepath.Join(outputDir, name))
		if err != nil {
			t.Fatalf("loading output %s: %v", name, err)
		}
		if got := img.Bounds().Dx(); got != 100 {
			t.Errorf("%s width = %d, want 100", name, got)
		}
	}
}

func TestRunPreservesAspect(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "resized")
	writePNG(t, filepath.Join(inputDir, "wide.png"), 400, 200)

	config := &Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Size:      imaging.SizeSpec{Width: 100},
		Quality:   95,
	}
	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	img, _, err := imaging.Load(filepath.Join(outputDir, "wide.png"))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 100, Y: 50}) {
		t.Errorf("output size = %v, want 100x50", got)
	}
}

func TestRunExactSize(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "resized")
	writePNG(t, filepath.Join(inputDir, "img.png"), 400, 200)

	config := &Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Size:      imaging.SizeSpec{Width: 620, Height: 620, Exact: true},
		Quality:   95,
	}
	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	img, _, err := imaging.Load(filepath.Join(outputDir, "img.png"))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 620, Y: 620}) {
		t.Errorf("output size = %v, want 620x620", got)
	}
}

func TestRunEmptyDir(t *testing.T) {
	config := &Config{
		InputDir: t.TempDir(),
		Size:     imaging.SizeSpec{Width: 100},
		Quality:  95,
	}
	if err := Run(context.Background(), config, testLogger()); err == nil {
		t.Error("Run on an empty directory should fail")
	}
}

func TestRunMissingDir(t *testing.T) {
	config := &Config{
		InputDir: filepath.Join(t.TempDir(), "nope"),
		Size:     imaging.SizeSpec{Width: 100},
		Quality:  95,
	}
	if err := Run(context.Background(), config, testLogger()); err == nil {
		t.Error("Run on a missing directory should fail")
	}
}

func TestRunSkipsCorruptFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "resized")
	writePNG(t, filepath.Join(inputDir, "good.png"), 64, 64)
	if err := os.WriteFile(filepath.Join(inputDir, "bad.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	config := &Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Size:      imaging.SizeSpec{Width: 32},
		Quality:   95,
	}
	if err := Run(context.Background(), config, testLogger()); err != nil {
		t.Fatalf("Run should succeed when at least one image resizes: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "good.png")); err != nil {
		t.Errorf("good.png not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "bad.png")); !os.IsNotExist(err) {
		t.Errorf("bad.png should not be written, stat err = %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    imaging.SizeSpec
		wantErr bool
	}{
		{in: "620x620", want: imaging.SizeSpec{Width: 620, Height: 620, Exact: true}},
		{in: "1920X1080", want: imaging.SizeSpec{Width: 1920, Height: 1080, Exact: true}},
		{in: "620", wantErr: true},
		{in: "0x100", wantErr: true},
		{in: "100x-1", wantErr: true},
		{in: "axb", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSize(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSize(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
