package restore

import (
	"math"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"photo-restorer/internal/logger"
)

// hsvAt converts one pixel to HSV through an independent color library, so
// the assertions do not share conversion code with the stage under test.
func hsvAt(t *testing.T, r *Raster, x, y int) (h, s, v float64) {
	t.Helper()

	px := pixelAt(t, r, x, y)
	c := colorful.Color{
		R: float64(px[2]) / 255.0,
		G: float64(px[1]) / 255.0,
		B: float64(px[0]) / 255.0,
	}
	return c.Hsv()
}

func TestSaturationGatesOnZero(t *testing.T) {
	stage := NewSaturationStage(logger.NewNop())
	if stage.ShouldExecute(Options{Saturation: 0}) {
		t.Error("saturation 0 must skip the stage")
	}
	if !stage.ShouldExecute(Options{Saturation: -10}) {
		t.Error("negative saturation must run the stage")
	}
}

func TestSaturationBoostScalesSOnly(t *testing.T) {
	// A mid-saturated blue: B=200, G=100, R=50.
	input := flatRaster(t, 16, 16, 200, 100, 50)
	defer input.Release()

	hIn, sIn, vIn := hsvAt(t, input, 8, 8)

	stage := NewSaturationStage(logger.NewNop())
	out, err := stage.Apply(input, Options{Saturation: 40})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Release()

	hOut, sOut, vOut := hsvAt(t, out, 8, 8)

	wantS := sIn * 1.4
	if wantS > 1.0 {
		wantS = 1.0
	}
	if math.Abs(sOut-wantS) > 0.05 {
		t.Errorf("S = %.3f, want about %.3f", sOut, wantS)
	}

	// Hue and value only move by color-space round-trip error.
	if math.Abs(hOut-hIn) > 2.0 {
		t.Errorf("hue shifted: %.1f -> %.1f", hIn, hOut)
	}
	if math.Abs(vOut-vIn) > 0.02 {
		t.Errorf("value shifted: %.3f -> %.3f", vIn, vOut)
	}
}

func TestSaturationClampsWithoutWrap(t *testing.T) {
	// Near-fully-saturated input pushed with the maximum gain must truncate
	// at full saturation, not wrap around to a desaturated value.
	input := flatRaster(t, 16, 16, 250, 10, 5)
	defer input.Release()

	stage := NewSaturationStage(logger.NewNop())
	out, err := stage.Apply(input, Options{Saturation: 50})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Release()

	_, s, _ := hsvAt(t, out, 8, 8)
	if s < 0.95 || s > 1.0 {
		t.Errorf("S = %.3f, want clamped into [0.95, 1.0]", s)
	}
}

func TestSaturationNegativeDesaturates(t *testing.T) {
	input := flatRaster(t, 16, 16, 200, 100, 50)
	defer input.Release()

	_, sIn, _ := hsvAt(t, input, 8, 8)

	stage := NewSaturationStage(logger.NewNop())
	out, err := stage.Apply(input, Options{Saturation: -50})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Release()

	_, sOut, _ := hsvAt(t, out, 8, 8)
	if sOut >= sIn {
		t.Errorf("S did not drop: %.3f -> %.3f", sIn, sOut)
	}
}
