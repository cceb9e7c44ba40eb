package restore

import (
	"testing"

	"photo-restorer/internal/logger"
)

func TestContrastGatesOnZero(t *testing.T) {
	stage := NewContrastStage(logger.NewNop())
	if stage.ShouldExecute(Options{Contrast: 0}) {
		t.Error("contrast 0 must skip the stage")
	}
	if !stage.ShouldExecute(Options{Contrast: -1}) {
		t.Error("negative contrast must run the stage")
	}
}

func TestContrastFlatMidGray(t *testing.T) {
	// contrast=50 on flat (128,128,128) scales every channel to 192 and
	// leaves the alpha plane alone.
	input := flatRaster(t, 16, 16, 128, 128, 128)
	flatAlpha(t, input, 255)
	defer input.Release()

	stage := NewContrastStage(logger.NewNop())
	out, err := stage.Apply(input, Options{Contrast: 50})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.ReleaseColorOnly()

	px := pixelAt(t, out, 8, 8)
	for c, v := range px {
		if v != 192 {
			t.Errorf("channel %d = %d, want 192", c, v)
		}
	}

	if out.Alpha != input.Alpha {
		t.Error("alpha plane was replaced")
	}
	a, err := out.Alpha.GetUCharAt(4, 4)
	if err != nil {
		t.Fatalf("alpha read: %v", err)
	}
	if a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestContrastMonotonicAboveMidpoint(t *testing.T) {
	// For pixels above the channel midpoint, more contrast means a larger
	// output value (until the 255 clamp).
	stage := NewContrastStage(logger.NewNop())

	prev := -1
	for _, contrast := range []int{10, 20, 30, 40} {
		input := flatRaster(t, 8, 8, 150, 150, 150)
		out, err := stage.Apply(input, Options{Contrast: contrast})
		input.Release()
		if err != nil {
			t.Fatalf("Apply(contrast=%d): %v", contrast, err)
		}

		v := int(pixelAt(t, out, 4, 4)[0])
		out.Release()

		if v <= prev {
			t.Errorf("contrast %d: value %d not greater than previous %d", contrast, v, prev)
		}
		prev = v
	}
}

func TestContrastClampsAtChannelBounds(t *testing.T) {
	stage := NewContrastStage(logger.NewNop())

	input := flatRaster(t, 8, 8, 250, 250, 250)
	defer input.Release()

	out, err := stage.Apply(input, Options{Contrast: 50})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Release()

	if v := pixelAt(t, out, 2, 2)[0]; v != 255 {
		t.Errorf("expected saturation at 255, got %d", v)
	}
}

func TestContrastNegativeGainDarkens(t *testing.T) {
	stage := NewContrastStage(logger.NewNop())

	input := flatRaster(t, 8, 8, 100, 100, 100)
	defer input.Release()

	out, err := stage.Apply(input, Options{Contrast: -50})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Release()

	if v := pixelAt(t, out, 2, 2)[0]; v != 50 {
		t.Errorf("100 * 0.5 = %d, want 50", v)
	}
}
