package restore

import (
	"testing"

	"gocv.io/x/gocv"

	"photo-restorer/internal/vision/safe"
)

// flatRaster builds a uniform BGR raster; the test owns it and must Release.
func flatRaster(t *testing.T, width, height int, b, g, r uint8) *Raster {
	t.Helper()

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(b), float64(g), float64(r), 0),
		height, width, gocv.MatTypeCV8UC3)
	defer mat.Close()

	color, err := safe.NewMatFromMat(mat)
	if err != nil {
		t.Fatalf("flatRaster: %v", err)
	}

	raster, err := NewRaster(color, nil)
	if err != nil {
		color.Close()
		t.Fatalf("flatRaster: %v", err)
	}
	return raster
}

// flatAlpha attaches a uniform alpha plane to an existing raster.
func flatAlpha(t *testing.T, r *Raster, value uint8) {
	t.Helper()

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(value), 0, 0, 0),
		r.Height(), r.Width(), gocv.MatTypeCV8UC1)
	defer mat.Close()

	alpha, err := safe.NewMatFromMat(mat)
	if err != nil {
		t.Fatalf("flatAlpha: %v", err)
	}
	r.Alpha = alpha
}

// pixelAt reads one BGR triple from the color plane.
func pixelAt(t *testing.T, r *Raster, x, y int) [3]uint8 {
	t.Helper()

	var px [3]uint8
	for c := 0; c < 3; c++ {
		v, err := r.Color.GetUCharAt3(y, x, c)
		if err != nil {
			t.Fatalf("pixelAt(%d,%d): %v", x, y, err)
		}
		px[c] = v
	}
	return px
}

// rastersEqual compares two color planes byte for byte.
func rastersEqual(t *testing.T, a, b *Raster) bool {
	t.Helper()

	if a.Width() != b.Width() || a.Height() != b.Height() {
		return false
	}

	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			for c := 0; c < 3; c++ {
				av, _ := a.Color.GetUCharAt3(y, x, c)
				bv, _ := b.Color.GetUCharAt3(y, x, c)
				if av != bv {
					return false
				}
			}
		}
	}
	return true
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}
