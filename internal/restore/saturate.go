package restore

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// SaturationStage scales the HSV saturation channel by 1 + saturation/100,
// truncating at the channel maximum rather than wrapping. Hue and value only
// pass through the color-space round trip.
type SaturationStage struct {
	log logger.Logger
}

func NewSaturationStage(log logger.Logger) *SaturationStage {
	return &SaturationStage{log: log}
}

func (s *SaturationStage) Name() string {
	return "saturation"
}

func (s *SaturationStage) ShouldExecute(opts Options) bool {
	return opts.Saturation != 0
}

func (s *SaturationStage) Apply(input *Raster, opts Options) (*Raster, error) {
	saturation := clampInt(opts.Saturation, -MaxSaturation, MaxSaturation)
	gain := 1.0 + float64(saturation)/100.0

	srcMat := input.Color.GetMat()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(srcMat, &hsv, gocv.ColorBGRToHSV)

	planes := gocv.Split(hsv)
	if len(planes) != 3 {
		for _, p := range planes {
			p.Close()
		}
		return nil, fmt.Errorf("expected 3 HSV planes, got %d", len(planes))
	}
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	// ConvertTo with an 8-bit target saturates, which is exactly the clamp
	// the stage needs.
	scaled := gocv.NewMat()
	defer scaled.Close()
	planes[1].ConvertToWithParams(&scaled, gocv.MatTypeCV8U, float32(gain), 0)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{planes[0], scaled, planes[2]}, &merged)

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	dstMat := dst.GetMat()
	gocv.CvtColor(merged, &dstMat, gocv.ColorHSVToBGR)

	return input.WithColor(dst)
}
