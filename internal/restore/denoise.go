package restore

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// Fixed non-local-means windows. The template window is the patch compared
// around each pixel, the search window the region scanned for similar patches.
const (
	nlmTemplateWindow = 7
	nlmSearchWindow   = 21
)

// DenoiseStage removes chroma and luma noise with edge-preserving non-local
// means smoothing. Strength follows the denoise option; the color strength is
// derived from it so chroma smoothing tracks luma smoothing without a second
// knob.
type DenoiseStage struct {
	log logger.Logger
}

func NewDenoiseStage(log logger.Logger) *DenoiseStage {
	return &DenoiseStage{log: log}
}

func (s *DenoiseStage) Name() string {
	return "denoise"
}

func (s *DenoiseStage) ShouldExecute(opts Options) bool {
	return opts.Denoise > 0
}

func (s *DenoiseStage) Apply(input *Raster, opts Options) (*Raster, error) {
	strength := clampInt(opts.Denoise, 0, MaxDenoise)

	colorStrength := strength - 2
	if colorStrength < 2 {
		colorStrength = 2
	}

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	srcMat := input.Color.GetMat()
	dstMat := dst.GetMat()
	gocv.FastNlMeansDenoisingColoredWithParams(srcMat, &dstMat,
		float32(strength), float32(colorStrength), nlmTemplateWindow, nlmSearchWindow)

	s.log.Debug("DenoiseStage", "denoised", map[string]interface{}{
		"strength":       strength,
		"color_strength": colorStrength,
	})

	return input.WithColor(dst)
}
