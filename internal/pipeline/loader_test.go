package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/restore"
	"photo-restorer/internal/vision/memory"
)

func newTestLoader() *Loader {
	log := logger.NewNop()
	return NewLoader(memory.NewManager(log), log)
}

// encodeDeepColorPNG writes a 16-bit RGBA PNG filled with one color.
func encodeDeepColorPNG(t *testing.T, width, height int, c color.NRGBA64) []byte {
	t.Helper()

	img := image.NewNRGBA64(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA64(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode 16-bit png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeNarrowsSixteenBitColor(t *testing.T) {
	loader := newTestLoader()

	data := encodeDeepColorPNG(t, 16, 12, color.NRGBA64{R: 0x8080, G: 0x4040, B: 0xC0C0, A: 0xFFFF})
	raster, format, err := loader.Decode(data)
	if err != nil {
		t.Fatalf("decode 16-bit png: %v", err)
	}
	defer raster.Release()

	if format != "png" {
		t.Errorf("sniffed format = %q, want png", format)
	}
	if got := raster.Color.Type(); got != gocv.MatTypeCV8UC3 {
		t.Fatalf("color plane type = %d, want 8UC3", got)
	}
	if !raster.HasAlpha() {
		t.Fatal("alpha plane dropped from 16-bit RGBA source")
	}
	if got := raster.Alpha.Type(); got != gocv.MatTypeCV8UC1 {
		t.Fatalf("alpha plane type = %d, want 8UC1", got)
	}

	// 0x8080/257 = 128.5, 0x4040/257 = 64.2, 0xC0C0/257 = 192.7; BGR order.
	want := [3]uint8{192, 64, 128}
	for c := 0; c < 3; c++ {
		v, err := raster.Color.GetUCharAt3(0, 0, c)
		if err != nil {
			t.Fatalf("read channel %d: %v", c, err)
		}
		if absDelta(v, want[c]) > 1 {
			t.Errorf("channel %d = %d, want %d within 1", c, v, want[c])
		}
	}

	a, err := raster.Alpha.GetUCharAt(0, 0)
	if err != nil {
		t.Fatalf("read alpha: %v", err)
	}
	if a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestDecodeNarrowsSixteenBitGrayscale(t *testing.T) {
	loader := newTestLoader()

	img := image.NewGray16(image.Rect(0, 0, 10, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 10; x++ {
			img.SetGray16(x, y, color.Gray16{Y: 0x8080})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode 16-bit grayscale png: %v", err)
	}

	raster, _, err := loader.Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode 16-bit grayscale png: %v", err)
	}
	defer raster.Release()

	if got := raster.Color.Type(); got != gocv.MatTypeCV8UC3 {
		t.Fatalf("color plane type = %d, want 8UC3", got)
	}
	if raster.HasAlpha() {
		t.Error("grayscale source must not grow an alpha plane")
	}
	for c := 0; c < 3; c++ {
		v, err := raster.Color.GetUCharAt3(0, 0, c)
		if err != nil {
			t.Fatalf("read channel %d: %v", c, err)
		}
		if absDelta(v, 128) > 1 {
			t.Errorf("channel %d = %d, want 128 within 1", c, v)
		}
	}
}

// TestRunAcceptsSixteenBitInput drives a deep decode through the whole
// pipeline: the run must produce JPEG output, not a stage failure.
func TestRunAcceptsSixteenBitInput(t *testing.T) {
	orch := NewOrchestrator(logger.NewNop())

	data := encodeDeepColorPNG(t, 64, 48, color.NRGBA64{R: 0x9999, G: 0x6666, B: 0x3333, A: 0xFFFF})
	out, mime, err := orch.Run(data, restore.Options{})
	if err != nil {
		t.Fatalf("run on 16-bit input: %v (category %s)", err, CategoryOf(err))
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", mime)
	}
	if len(out) == 0 {
		t.Error("empty output")
	}
}

func absDelta(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
