package imaging

import (
	"fmt"
	"image"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	annotateDPI      = 72
	annotateFontSize = 18
)

// Annotator stamps short text labels onto frames, white-on-image in the
// bottom-left corner.
type Annotator struct {
	context *freetype.Context
}

// NewAnnotator parses the bundled Go Regular face and prepares a drawing
// context for it.
func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(annotateDPI)
	context.SetFont(parsedFont)
	context.SetFontSize(annotateFontSize)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

// Stamp draws the label near the bottom-left corner of the image. The image
// dimensions are never changed.
func (a *Annotator) Stamp(img *image.RGBA, label string) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	pt := freetype.Pt(8, img.Bounds().Dy()-10)
	if _, err := a.context.DrawString(label, pt); err != nil {
		return fmt.Errorf("drawing label: %w", err)
	}
	return nil
}
