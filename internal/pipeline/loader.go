package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/restore"
	"photo-restorer/internal/vision/memory"
	"photo-restorer/internal/vision/safe"
)

// Loader turns opaque caller bytes into the pipeline's live raster. OpenCV
// does the authoritative decode; the standard library pass only sniffs the
// container format for logging.
type Loader struct {
	memoryManager *memory.Manager
	log           logger.Logger
}

func NewLoader(memMgr *memory.Manager, log logger.Logger) *Loader {
	return &Loader{memoryManager: memMgr, log: log}
}

// Decode returns the raster and the sniffed source format name. A source with
// an alpha channel is split into a BGR color plane and a detached alpha plane.
func (l *Loader) Decode(data []byte) (*restore.Raster, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty input")
	}

	format := "unknown"
	if _, sniffed, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		format = sniffed
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, "", fmt.Errorf("input bytes are not a readable image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, "", fmt.Errorf("input bytes are not a readable image")
	}

	if depth := gocv.MatType(int(mat.Type()) & depthMask); depth != gocv.MatTypeCV8U {
		narrowed, err := narrowTo8Bit(mat, depth)
		if err != nil {
			return nil, "", err
		}
		defer narrowed.Close()
		mat = narrowed
	}

	color, alpha, err := l.splitChannels(mat)
	if err != nil {
		return nil, "", err
	}

	raster, err := restore.NewRaster(color, alpha)
	if err != nil {
		color.Close()
		if alpha != nil {
			alpha.Close()
		}
		return nil, "", fmt.Errorf("assemble raster: %w", err)
	}

	l.log.Debug("Loader", "image decoded", map[string]interface{}{
		"format":   format,
		"width":    raster.Width(),
		"height":   raster.Height(),
		"alpha":    raster.HasAlpha(),
		"channels": mat.Channels(),
	})

	return raster, format, nil
}

// depthMask extracts the OpenCV depth code from a Mat type constant.
const depthMask = 7

// narrowTo8Bit converts a deep decode (16-bit PNG or TIFF) to the 8-bit
// depth every stage operates on. 1/257 maps the 16-bit full scale onto 255.
func narrowTo8Bit(mat gocv.Mat, depth gocv.MatType) (gocv.Mat, error) {
	if depth != gocv.MatTypeCV16U {
		return gocv.Mat{}, fmt.Errorf("unsupported bit depth in decoded image: mat type %d", mat.Type())
	}

	var target gocv.MatType
	switch mat.Channels() {
	case 1:
		target = gocv.MatTypeCV8UC1
	case 3:
		target = gocv.MatTypeCV8UC3
	case 4:
		target = gocv.MatTypeCV8UC4
	default:
		return gocv.Mat{}, fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}

	narrowed := gocv.NewMat()
	mat.ConvertToWithParams(&narrowed, target, 1.0/257.0, 0)
	return narrowed, nil
}

func (l *Loader) splitChannels(mat gocv.Mat) (*safe.Mat, *safe.Mat, error) {
	switch mat.Channels() {
	case 1:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)

		color, err := l.memoryManager.AdoptMat(bgr, "decoded_color")
		if err != nil {
			return nil, nil, fmt.Errorf("adopt gray source: %w", err)
		}
		return color, nil, nil

	case 3:
		color, err := l.memoryManager.AdoptMat(mat, "decoded_color")
		if err != nil {
			return nil, nil, fmt.Errorf("adopt color source: %w", err)
		}
		return color, nil, nil

	case 4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)

		planes := gocv.Split(mat)
		defer func() {
			for _, p := range planes {
				p.Close()
			}
		}()
		if len(planes) != 4 {
			return nil, nil, fmt.Errorf("expected 4 planes from BGRA source, got %d", len(planes))
		}

		color, err := l.memoryManager.AdoptMat(bgr, "decoded_color")
		if err != nil {
			return nil, nil, fmt.Errorf("adopt color source: %w", err)
		}

		alpha, err := l.memoryManager.AdoptMat(planes[3], "decoded_alpha")
		if err != nil {
			color.Close()
			return nil, nil, fmt.Errorf("adopt alpha plane: %w", err)
		}
		return color, alpha, nil

	default:
		return nil, nil, fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}
}
