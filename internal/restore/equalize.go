package restore

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// EqualizeStage flattens the global luminance histogram to recover washed-out
// contrast. It runs on every invocation: this is the pipeline's baseline
// auto-contrast step, not a gated option. Only the luma channel is equalized;
// chroma passes through the color transform untouched.
type EqualizeStage struct {
	log logger.Logger
}

func NewEqualizeStage(log logger.Logger) *EqualizeStage {
	return &EqualizeStage{log: log}
}

func (s *EqualizeStage) Name() string {
	return "equalize"
}

func (s *EqualizeStage) ShouldExecute(opts Options) bool {
	return true
}

func (s *EqualizeStage) Apply(input *Raster, opts Options) (*Raster, error) {
	srcMat := input.Color.GetMat()

	ycrcb := gocv.NewMat()
	defer ycrcb.Close()
	gocv.CvtColor(srcMat, &ycrcb, gocv.ColorBGRToYCrCb)

	planes := gocv.Split(ycrcb)
	if len(planes) != 3 {
		for _, p := range planes {
			p.Close()
		}
		return nil, fmt.Errorf("expected 3 YCrCb planes, got %d", len(planes))
	}
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(planes[0], &equalized)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{equalized, planes[1], planes[2]}, &merged)

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.CvtColor(merged, &dstMat, gocv.ColorYCrCbToBGR)

	return input.WithColor(dst)
}
