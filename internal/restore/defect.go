package restore

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

const (
	// Threshold remap of the 0-100 sensitivity option: t1 = 50 + value,
	// t2 = 2 * t1. This mapping is the external contract of the stage.
	scratchThresholdBase = 50

	inpaintRadius      = 3
	maskBinarizeThresh = 10

	// Hysteresis linking converges in a handful of passes on scratch-like
	// structures; the cap only bounds pathological inputs.
	maxHysteresisPasses = 16
)

// DefectRemovalStage detects scratch-like linear artifacts and fills them by
// inpainting from surrounding texture. Detection runs a dual-threshold edge
// detector on the L2 gradient magnitude; the cheaper L1 approximation
// over-detects texture as scratches. Pixels outside the final mask are
// byte-identical to the input.
type DefectRemovalStage struct {
	log logger.Logger
}

func NewDefectRemovalStage(log logger.Logger) *DefectRemovalStage {
	return &DefectRemovalStage{log: log}
}

func (s *DefectRemovalStage) Name() string {
	return "defect_removal"
}

func (s *DefectRemovalStage) ShouldExecute(opts Options) bool {
	return opts.ScratchRemoval > 0
}

func (s *DefectRemovalStage) Apply(input *Raster, opts Options) (*Raster, error) {
	sensitivity := clampInt(opts.ScratchRemoval, 0, MaxScratchRemoval)
	t1 := float32(scratchThresholdBase + sensitivity)
	t2 := 2 * t1

	srcMat := input.Color.GetMat()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(srcMat, &gray, gocv.ColorBGRToGray)

	mask := gocv.NewMat()
	defer mask.Close()
	if err := s.detectScratches(gray, t1, t2, &mask); err != nil {
		return nil, fmt.Errorf("scratch detection: %w", err)
	}

	dst, err := safe.NewMat(input.Height(), input.Width(), gocv.MatTypeCV8UC3)
	if err != nil {
		return nil, fmt.Errorf("create output plane: %w", err)
	}

	maskedPixels := gocv.CountNonZero(mask)
	dstMat := dst.GetMat()

	if maskedPixels == 0 {
		// Nothing detected; the stage degenerates to a copy.
		srcMat.CopyTo(&dstMat)
	} else {
		gocv.Inpaint(srcMat, mask, &dstMat, inpaintRadius, gocv.Telea)
	}

	s.log.Debug("DefectRemovalStage", "defects filled", map[string]interface{}{
		"sensitivity":   sensitivity,
		"masked_pixels": maskedPixels,
	})

	return input.WithColor(dst)
}

// detectScratches produces the binary fill mask (255 = defect). Gradient
// magnitude is the L2 norm over both axes; strong responses above t2 seed the
// mask and weak responses above t1 join only when connected to a seed. The
// linked edges are then dilated once to close gaps and binarized.
func (s *DefectRemovalStage) detectScratches(gray gocv.Mat, t1, t2 float32, mask *gocv.Mat) error {
	gradX := gocv.NewMat()
	defer gradX.Close()
	gradY := gocv.NewMat()
	defer gradY.Close()
	gocv.Sobel(gray, &gradX, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gradY, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	magnitude := gocv.NewMat()
	defer magnitude.Close()
	gocv.Magnitude(gradX, gradY, &magnitude)

	strong := gocv.NewMat()
	defer strong.Close()
	weak := gocv.NewMat()
	defer weak.Close()
	gocv.Threshold(magnitude, &strong, t2, 255, gocv.ThresholdBinary)
	gocv.Threshold(magnitude, &weak, t1, 255, gocv.ThresholdBinary)

	strong8 := gocv.NewMat()
	defer strong8.Close()
	weak8 := gocv.NewMat()
	defer weak8.Close()
	strong.ConvertTo(&strong8, gocv.MatTypeCV8U)
	weak.ConvertTo(&weak8, gocv.MatTypeCV8U)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer kernel.Close()

	edges := strong8.Clone()
	defer edges.Close()

	// Grow the strong seeds through the weak map until the linked edge set
	// stops changing.
	grown := gocv.NewMat()
	defer grown.Close()
	for i := 0; i < maxHysteresisPasses; i++ {
		before := gocv.CountNonZero(edges)
		gocv.Dilate(edges, &grown, kernel)
		gocv.BitwiseAnd(grown, weak8, &edges)
		if gocv.CountNonZero(edges) == before {
			break
		}
	}

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	gocv.Threshold(dilated, mask, maskBinarizeThresh, 255, gocv.ThresholdBinary)
	return nil
}
