package restore

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// ContrastStage applies a linear gain of 1 + contrast/100 per channel with a
// fixed zero brightness offset, saturating to the 0-255 range. The alpha
// plane is carried by the raster and never enters the transform.
type ContrastStage struct {
	log logger.Logger
}

func NewContrastStage(log logger.Logger) *ContrastStage {
	return &ContrastStage{log: log}
}

func (s *ContrastStage) Name() string {
	return "contrast"
}

func (s *ContrastStage) ShouldExecute(opts Options) bool {
	return opts.Contrast != 0
}

func (s *ContrastStage) Apply(input *Raster, opts Options) (*Raster, error) {
	contrast := clampInt(opts.Contrast, -MaxContrast, MaxContrast)
	gain := 1.0 + float64(contrast)/100.0

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	srcMat := input.Color.GetMat()
	dstMat := dst.GetMat()
	srcMat.ConvertToWithParams(&dstMat, gocv.MatTypeCV8UC3, float32(gain), 0)

	return input.WithColor(dst)
}
