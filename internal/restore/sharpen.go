package restore

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// Blur sigma for the unsharp mask. Kernel size 0 lets OpenCV derive it from
// the sigma.
const unsharpSigma = 1.0

// SharpenStage recovers perceived detail lost to denoising and inpainting
// with an unsharp mask: output = input*(1+amount) - blurred*amount, clamped
// to the valid channel range.
type SharpenStage struct {
	log logger.Logger
}

func NewSharpenStage(log logger.Logger) *SharpenStage {
	return &SharpenStage{log: log}
}

func (s *SharpenStage) Name() string {
	return "sharpen"
}

func (s *SharpenStage) ShouldExecute(opts Options) bool {
	return opts.Sharpen > 0
}

func (s *SharpenStage) Apply(input *Raster, opts Options) (*Raster, error) {
	amount := clampFloat(opts.Sharpen, 0, MaxSharpen)

	srcMat := input.Color.GetMat()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(srcMat, &blurred, image.Point{X: 0, Y: 0}, unsharpSigma, unsharpSigma, gocv.BorderDefault)

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.AddWeighted(srcMat, 1+amount, blurred, -amount, 0, &dstMat)

	return input.WithColor(dst)
}
