package restore

// Option ranges accepted from callers. Values outside are clamped, never
// rejected: callers cannot be trusted to pre-validate slider input.
const (
	MaxDenoise        = 30
	MaxSharpen        = 2.0
	MaxContrast       = 50
	MaxSaturation     = 50
	MaxScratchRemoval = 100

	MinLongEdge     = 800
	MaxLongEdge     = 3000
	DefaultLongEdge = 2000
)

// Options carries the caller-supplied restoration parameters. A zero value
// for a gated parameter disables its stage; equalization always runs.
type Options struct {
	Denoise        int     // 0-30, edge-aware smoothing strength
	Sharpen        float64 // 0.0-2.0, unsharp mask amount
	Contrast       int     // -50-50, percent gain
	Saturation     int     // -50-50, percent gain
	ScratchRemoval int     // 0-100, defect detection sensitivity
	Auto           bool    // reserved, no behavior beyond the always-on equalization
	MaxSize        int     // long-edge cap in pixels, 800-3000
}

// Clamped returns a copy with every field forced into its declared range.
// MaxSize zero means the caller did not pick a bound and gets the default.
func (o Options) Clamped() Options {
	c := o
	c.Denoise = clampInt(o.Denoise, 0, MaxDenoise)
	c.Sharpen = clampFloat(o.Sharpen, 0, MaxSharpen)
	c.Contrast = clampInt(o.Contrast, -MaxContrast, MaxContrast)
	c.Saturation = clampInt(o.Saturation, -MaxSaturation, MaxSaturation)
	c.ScratchRemoval = clampInt(o.ScratchRemoval, 0, MaxScratchRemoval)

	if o.MaxSize == 0 {
		c.MaxSize = DefaultLongEdge
	} else {
		c.MaxSize = clampInt(o.MaxSize, MinLongEdge, MaxLongEdge)
	}

	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
