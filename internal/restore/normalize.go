package restore

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// NormalizeStage downscales the raster so its longer edge fits under the
// MaxSize cap, preserving aspect ratio. The only stage allowed to change
// dimensions. Images that already fit pass through untouched.
type NormalizeStage struct {
	log logger.Logger
}

func NewNormalizeStage(log logger.Logger) *NormalizeStage {
	return &NormalizeStage{log: log}
}

func (s *NormalizeStage) Name() string {
	return "normalize"
}

func (s *NormalizeStage) ShouldExecute(opts Options) bool {
	return true
}

func (s *NormalizeStage) Apply(input *Raster, opts Options) (*Raster, error) {
	width := input.Width()
	height := input.Height()

	longEdge := width
	if height > longEdge {
		longEdge = height
	}

	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultLongEdge
	} else {
		maxSize = clampInt(maxSize, MinLongEdge, MaxLongEdge)
	}

	if longEdge <= maxSize {
		return input, nil
	}

	scale := float64(maxSize) / float64(longEdge)
	newWidth := int(math.Round(float64(width) * scale))
	newHeight := int(math.Round(float64(height) * scale))
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	color, err := resizePlane(input.Color, newWidth, newHeight, gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("resize color plane: %w", err)
	}

	var alpha *safe.Mat
	if input.HasAlpha() {
		alpha, err = resizePlane(input.Alpha, newWidth, newHeight, gocv.MatTypeCV8UC1)
		if err != nil {
			color.Close()
			return nil, fmt.Errorf("resize alpha plane: %w", err)
		}
	}

	s.log.Debug("NormalizeStage", "downscaled", map[string]interface{}{
		"from": fmt.Sprintf("%dx%d", width, height),
		"to":   fmt.Sprintf("%dx%d", newWidth, newHeight),
	})

	return &Raster{Color: color, Alpha: alpha}, nil
}

// resizePlane uses area interpolation, the quality-preserving choice for
// downscaling.
func resizePlane(src *safe.Mat, width, height int, matType gocv.MatType) (*safe.Mat, error) {
	dst, err := safe.NewMat(height, width, matType)
	if err != nil {
		return nil, err
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()
	gocv.Resize(srcMat, &dstMat, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)

	return dst, nil
}
