package pipeline

import (
	"fmt"

	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/restore"
)

// Output is always JPEG at quality 95; the MIME type travels with the bytes.
const (
	jpegQuality = 95
	outputMIME  = "image/jpeg"
)

// Saver serializes the final raster. JPEG carries no alpha, so only the color
// plane is encoded; a detached alpha plane is dropped here and nowhere
// earlier.
type Saver struct {
	log logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	return &Saver{log: log}
}

// Encode returns freshly owned output bytes and their MIME type.
func (s *Saver) Encode(r *restore.Raster) ([]byte, string, error) {
	if r == nil || r.Color == nil || !r.Color.IsValid() {
		return nil, "", fmt.Errorf("no raster to encode")
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, r.Color.GetMat(),
		[]int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, "", fmt.Errorf("jpeg encoding failed: %w", err)
	}
	defer buf.Close()

	// The native buffer dies with Close; hand the host its own copy.
	encoded := make([]byte, len(buf.GetBytes()))
	copy(encoded, buf.GetBytes())

	s.log.Debug("Saver", "image encoded", map[string]interface{}{
		"bytes":   len(encoded),
		"quality": jpegQuality,
	})

	return encoded, outputMIME, nil
}
