package pipeline

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"photo-restorer/internal/vision/safe"
)

// PSNR computes the peak signal-to-noise ratio between two rasters of the
// same geometry and channel count. Identical inputs yield +Inf.
func PSNR(a, b *safe.Mat) (float64, error) {
	if err := safe.ValidateSameGeometry(a, b, "PSNR"); err != nil {
		return 0, err
	}
	if a.Channels() != b.Channels() {
		return 0, fmt.Errorf("channel mismatch: %d vs %d", a.Channels(), b.Channels())
	}

	rows := a.Rows()
	cols := a.Cols()
	channels := a.Channels()

	squared := make([]float64, 0, rows*cols*channels)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for c := 0; c < channels; c++ {
				av, err := a.GetUCharAt3(y, x, c)
				if err != nil {
					return 0, err
				}
				bv, err := b.GetUCharAt3(y, x, c)
				if err != nil {
					return 0, err
				}
				d := float64(av) - float64(bv)
				squared = append(squared, d*d)
			}
		}
	}

	mse := stat.Mean(squared, nil)
	if mse == 0 {
		return math.Inf(1), nil
	}

	return 10 * math.Log10(255*255/mse), nil
}

// NoiseSigma estimates high-frequency noise as the standard deviation of the
// residual between the grayscale raster and its 3x3 box-filtered copy. Flat
// input scores near zero; denoising should push the score down on noisy
// input.
func NoiseSigma(m *safe.Mat) (float64, error) {
	if err := safe.ValidateMatForOperation(m, "NoiseSigma"); err != nil {
		return 0, err
	}

	src := m.GetMat()

	gray := gocv.NewMat()
	defer gray.Close()
	if m.Channels() == 3 {
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	} else {
		src.CopyTo(&gray)
	}

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.Blur(gray, &smoothed, image.Point{X: 3, Y: 3})

	rows := gray.Rows()
	cols := gray.Cols()
	residuals := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			residuals = append(residuals, float64(gray.GetUCharAt(y, x))-float64(smoothed.GetUCharAt(y, x)))
		}
	}

	return stat.StdDev(residuals, nil), nil
}
