// Package restorer restores aged photographs: a fixed pipeline of luminance
// equalization, denoising, scratch removal, contrast, saturation and
// sharpening over a decoded raster, driven by a small set of numeric
// parameters and producing a JPEG.
package restorer

import (
	"github.com/rs/zerolog"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/pipeline"
	"photo-restorer/internal/restore"
	"photo-restorer/internal/worker"
)

// Options are the caller-supplied restoration parameters. Out-of-range
// values are clamped, zero values skip their stage.
type Options = restore.Options

// Request, Result and Failure form the host message contract: one request in,
// exactly one result out, correlated by Request.ID.
type (
	Request = worker.Request
	Result  = worker.Result
	Failure = worker.Failure
)

// Worker serves requests on an isolated goroutine; see NewWorker.
type Worker = worker.Worker

// NewWorker builds a worker logging to the console at the given level with
// room for queueDepth in-flight requests. Call Start, wait on Ready, then
// Submit and range over Results.
func NewWorker(level zerolog.Level, queueDepth int) *Worker {
	return worker.New(logger.NewConsoleLogger(level), queueDepth)
}

// Restore is the one-shot form: decode, restore, encode, no worker involved.
// It returns the output bytes and their MIME type.
func Restore(image []byte, opts Options) ([]byte, string, error) {
	orch := pipeline.NewOrchestrator(logger.NewNop())
	return orch.Run(image, opts)
}
