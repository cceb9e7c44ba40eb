// Package vision owns the one-time initialization of the OpenCV runtime.
// Initialization is idempotent: the first caller pays for it, later calls are
// no-ops, and Ready is closed exactly once when the runtime is usable.
package vision

import (
	"fmt"
	"sync"

	"github.com/klauspost/cpuid"
	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
)

var (
	initOnce sync.Once
	initErr  error
	readyCh  = make(chan struct{})
)

// EnsureInit verifies the OpenCV runtime once and closes the Ready channel on
// success. Safe to call concurrently and repeatedly.
func EnsureInit(log logger.Logger) error {
	initOnce.Do(func() {
		probe := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
		if probe.Empty() {
			initErr = fmt.Errorf("opencv runtime probe failed: cannot allocate Mat")
			return
		}
		probe.Close()

		log.Info("VisionRuntime", "runtime initialized", map[string]interface{}{
			"gocv_version":   gocv.Version(),
			"opencv_version": gocv.OpenCVVersion(),
			"cpu":            cpuid.CPU.BrandName,
			"physical_cores": cpuid.CPU.PhysicalCores,
			"avx2":           cpuid.CPU.AVX2(),
		})

		close(readyCh)
	})

	return initErr
}

// Ready is closed once EnsureInit has completed successfully. It never closes
// if initialization failed.
func Ready() <-chan struct{} {
	return readyCh
}
