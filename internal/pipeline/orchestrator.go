package pipeline

import (
	"fmt"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/restore"
	"photo-restorer/internal/vision"
	"photo-restorer/internal/vision/memory"
)

// Orchestrator drives one full restoration: decode, the fixed stage sequence,
// encode. It owns the single live raster for the whole run and guarantees
// every intermediate is released on every exit path. The orchestrator itself
// holds no per-request state, so concurrent runs stay isolated.
type Orchestrator struct {
	loader         *Loader
	saver          *Saver
	chain          *restore.Chain
	memoryManager  *memory.Manager
	log            logger.Logger
	computeMetrics bool
}

func NewOrchestrator(log logger.Logger) *Orchestrator {
	memMgr := memory.NewManager(log)
	return &Orchestrator{
		loader:        NewLoader(memMgr, log),
		saver:         NewSaver(log),
		chain:         restore.NewChain(log),
		memoryManager: memMgr,
		log:           log,
	}
}

// EnableMetrics turns on per-run noise estimation, logged at debug level.
// Off by default: it costs a full pass over the output raster.
func (o *Orchestrator) EnableMetrics() {
	o.computeMetrics = true
}

// Run executes the whole pipeline over one input. Failures are categorized
// per the decode / runtime / stage / encode taxonomy and never leave the
// orchestrator unusable for the next request.
func (o *Orchestrator) Run(data []byte, opts restore.Options) ([]byte, string, error) {
	if err := vision.EnsureInit(o.log); err != nil {
		return nil, "", newError(CategoryRuntime, err)
	}

	clamped := opts.Clamped()

	input, format, err := o.loader.Decode(data)
	if err != nil {
		return nil, "", newError(CategoryDecode, err)
	}

	// The chain takes ownership of input: it is released inside Execute on
	// both success and failure.
	output, err := o.chain.Execute(input, clamped)
	if err != nil {
		return nil, "", newError(CategoryStage, err)
	}
	defer output.Release()

	encoded, mime, err := o.saver.Encode(output)
	if err != nil {
		return nil, "", newError(CategoryEncode, err)
	}

	if o.computeMetrics {
		if sigma, merr := NoiseSigma(output.Color); merr == nil {
			o.log.Debug("Orchestrator", "output noise estimate", map[string]interface{}{
				"sigma": sigma,
			})
		}
	}

	o.log.Info("Orchestrator", "restoration completed", map[string]interface{}{
		"source_format": format,
		"output_size":   fmt.Sprintf("%dx%d", output.Width(), output.Height()),
		"output_bytes":  len(encoded),
		"live_bytes":    o.memoryManager.LiveBytes(),
	})

	return encoded, mime, nil
}

// MemoryStats exposes the allocation counters for hosts and tests.
func (o *Orchestrator) MemoryStats() memory.Stats {
	return o.memoryManager.GetStats()
}
