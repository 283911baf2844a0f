// Package loader decodes image files with OpenCV and scales them to fit a
// display area.
package loader

import (
	"errors"
	"fmt"
	"image"

	"pipeview/internal/logger"

	"gocv.io/x/gocv"
)

const maxDimension = 32768

var (
	ErrDecode        = errors.New("unable to decode image")
	ErrInvalidBounds = errors.New("invalid target bounds")
)

type Loader struct {
	logger logger.Logger
}

func New(log logger.Logger) *Loader {
	if log == nil {
		log = logger.NoOp{}
	}
	return &Loader{logger: log}
}

// Load reads the image at path and scales it, keeping its aspect ratio, to
// fit within width x height.
func (l *Loader) Load(path string, width, height int) (image.Image, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrDecode, path)
	}
	if err := to8Bit(&mat); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	srcW, srcH := mat.Cols(), mat.Rows()
	dstW, dstH := FitWithin(srcW, srcH, width, height)

	l.logger.Debug("Loader", "scaling image", map[string]interface{}{
		"path":   path,
		"source": fmt.Sprintf("%dx%d", srcW, srcH),
		"target": fmt.Sprintf("%dx%d", dstW, dstH),
	})

	scaled := gocv.NewMat()
	defer scaled.Close()

	gocv.Resize(mat, &scaled, image.Pt(dstW, dstH), 0, 0, interpolationFor(srcW, srcH, dstW, dstH))
	if scaled.Empty() {
		return nil, fmt.Errorf("resize %s to %dx%d: %w", path, dstW, dstH, ErrDecode)
	}

	img, err := scaled.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return straightAlpha(img), nil
}

// to8Bit narrows 16-bit images in place. IMReadUnchanged keeps the file's
// depth, and ToImage only understands 8-bit Mats.
func to8Bit(mat *gocv.Mat) error {
	var target gocv.MatType
	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	case gocv.MatTypeCV16UC1:
		target = gocv.MatTypeCV8UC1
	case gocv.MatTypeCV16UC3:
		target = gocv.MatTypeCV8UC3
	case gocv.MatTypeCV16UC4:
		target = gocv.MatTypeCV8UC4
	default:
		return fmt.Errorf("%w: unsupported pixel type %d", ErrDecode, int(mat.Type()))
	}

	narrowed := gocv.NewMat()
	mat.ConvertToWithParams(&narrowed, target, 1.0/257, 0)
	mat.Close()
	*mat = narrowed
	return nil
}

// straightAlpha relabels ToImage's 4-channel output. OpenCV stores
// unpremultiplied alpha, which is image.NRGBA's layout, not image.RGBA's.
func straightAlpha(img image.Image) image.Image {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return img
	}
	return &image.NRGBA{Pix: rgba.Pix, Stride: rgba.Stride, Rect: rgba.Rect}
}

// Area sampling avoids moire when shrinking; linear is smoother for growth.
func interpolationFor(srcW, srcH, dstW, dstH int) gocv.InterpolationFlags {
	if dstW < srcW || dstH < srcH {
		return gocv.InterpolationArea
	}
	return gocv.InterpolationLinear
}

func validateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBounds, width, height)
	}
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInvalidBounds, width, height, maxDimension)
	}
	return nil
}
