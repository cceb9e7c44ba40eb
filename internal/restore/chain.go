package restore

import (
	"fmt"

	"photo-restorer/internal/logger"
)

// Stage is one transform in the fixed restoration sequence. A stage must not
// modify or close its input; it either returns a fresh raster or, for a
// provable no-op, the input itself. Partial outputs are never returned: on
// error every intermediate the stage created is already closed.
type Stage interface {
	Name() string
	ShouldExecute(opts Options) bool
	Apply(input *Raster, opts Options) (*Raster, error)
}

// Chain owns the live raster while threading it through the stages in order.
// The input raster belongs to the chain from the moment Execute is called;
// consumed rasters are released as soon as their successor is accepted, on
// success and failure paths alike.
type Chain struct {
	steps []Stage
	log   logger.Logger
}

// NewChain builds the fixed restoration order: normalize, equalize, then the
// gated denoise, defect removal, contrast, saturation and sharpen stages.
func NewChain(log logger.Logger) *Chain {
	return &Chain{
		steps: []Stage{
			NewNormalizeStage(log),
			NewEqualizeStage(log),
			NewDenoiseStage(log),
			NewDefectRemovalStage(log),
			NewContrastStage(log),
			NewSaturationStage(log),
			NewSharpenStage(log),
		},
		log: log,
	}
}

func (c *Chain) Execute(input *Raster, opts Options) (*Raster, error) {
	current := input

	for _, step := range c.steps {
		if !step.ShouldExecute(opts) {
			c.log.Debug("Chain", "stage skipped", map[string]interface{}{
				"stage": step.Name(),
			})
			continue
		}

		result, err := step.Apply(current, opts)
		if err != nil {
			current.Release()
			return nil, fmt.Errorf("stage %s failed: %w", step.Name(), err)
		}

		if result != current {
			releaseConsumed(current, result)
			current = result
		}
	}

	return current, nil
}

func (c *Chain) StepCount() int {
	return len(c.steps)
}

func (c *Chain) StageNames() []string {
	names := make([]string, len(c.steps))
	for i, step := range c.steps {
		names[i] = step.Name()
	}
	return names
}

// releaseConsumed frees the consumed raster without touching an alpha plane
// the successor took over.
func releaseConsumed(consumed, successor *Raster) {
	if consumed.Alpha != nil && consumed.Alpha == successor.Alpha {
		consumed.ReleaseColorOnly()
		return
	}
	consumed.Release()
}
