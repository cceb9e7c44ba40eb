package restore

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/vision/safe"
)

// Raster is the single live pipeline buffer: a 3-channel BGR color Mat plus
// an optional detached alpha plane. Stages transform the color Mat; alpha is
// carried untouched by the chain (the normalizer resizes it in lockstep).
// Exactly one Raster is live per pipeline step, ownership moves stage to
// stage, and Release must run on every exit path.
type Raster struct {
	Color *safe.Mat // 8UC3
	Alpha *safe.Mat // 8UC1, nil when the source had no alpha
}

func NewRaster(color, alpha *safe.Mat) (*Raster, error) {
	if err := safe.ValidateMatForOperation(color, "NewRaster"); err != nil {
		return nil, err
	}

	if color.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("raster color plane must be 8UC3, got mat type %d", color.Type())
	}

	if alpha != nil {
		if alpha.Type() != gocv.MatTypeCV8UC1 {
			return nil, fmt.Errorf("raster alpha plane must be 8UC1, got mat type %d", alpha.Type())
		}
		if err := safe.ValidateSameGeometry(color, alpha, "NewRaster alpha"); err != nil {
			return nil, err
		}
	}

	return &Raster{Color: color, Alpha: alpha}, nil
}

func (r *Raster) Width() int {
	return r.Color.Cols()
}

func (r *Raster) Height() int {
	return r.Color.Rows()
}

func (r *Raster) HasAlpha() bool {
	return r.Alpha != nil
}

// WithColor builds the successor raster: new color plane, same alpha plane.
// Alpha ownership transfers to the new raster; the old raster must then be
// released with ReleaseColorOnly by whoever consumed it.
func (r *Raster) WithColor(color *safe.Mat) (*Raster, error) {
	if err := safe.ValidateMatForOperation(color, "WithColor"); err != nil {
		return nil, err
	}

	return &Raster{Color: color, Alpha: r.Alpha}, nil
}

// Release closes both planes. Safe on nil receiver and on double release.
func (r *Raster) Release() {
	if r == nil {
		return
	}
	if r.Color != nil {
		r.Color.Close()
	}
	if r.Alpha != nil {
		r.Alpha.Close()
	}
}

// ReleaseColorOnly closes only the color plane. Used when a successor raster
// took over the alpha plane via WithColor.
func (r *Raster) ReleaseColorOnly() {
	if r == nil {
		return
	}
	if r.Color != nil {
		r.Color.Close()
	}
}
