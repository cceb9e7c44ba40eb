package memory

import (
	"fmt"
	"sync"

	"github.com/pbnjay/memory"
	"gocv.io/x/gocv"

	"photo-restorer/internal/logger"
	"photo-restorer/internal/vision/safe"
)

// Manager tracks live Mat allocations across pipeline runs and refuses new
// buffers once the live-byte cap is reached. It implements safe.MemoryTracker,
// so every tracked Mat reports its own allocation and release.
type Manager struct {
	mu          sync.Mutex
	allocations map[uintptr]int64
	stats       Stats
	log         logger.Logger
}

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	MaxAllowed     int64
}

func NewManager(log logger.Logger) *Manager {
	// Half of physical RAM; a single run holds at most one input-sized and
	// one working-sized buffer, the cap only guards against leaks piling up.
	maxAllowed := int64(memory.TotalMemory() / 2)
	if maxAllowed <= 0 {
		maxAllowed = 2 * 1024 * 1024 * 1024
	}

	return &Manager{
		allocations: make(map[uintptr]int64),
		stats:       Stats{MaxAllowed: maxAllowed},
		log:         log,
	}
}

func (m *Manager) GetMat(rows, cols int, matType gocv.MatType, tag string) (*safe.Mat, error) {
	m.mu.Lock()
	live := m.stats.TotalAllocated - m.stats.TotalReleased
	maxAllowed := m.stats.MaxAllowed
	m.mu.Unlock()

	if live > maxAllowed {
		return nil, fmt.Errorf("memory limit exceeded: %d bytes live, cap %d", live, maxAllowed)
	}

	return safe.NewMatWithTracker(rows, cols, matType, m, tag)
}

func (m *Manager) AdoptMat(src gocv.Mat, tag string) (*safe.Mat, error) {
	m.mu.Lock()
	live := m.stats.TotalAllocated - m.stats.TotalReleased
	maxAllowed := m.stats.MaxAllowed
	m.mu.Unlock()

	if live > maxAllowed {
		return nil, fmt.Errorf("memory limit exceeded: %d bytes live, cap %d", live, maxAllowed)
	}

	return safe.NewMatFromMatWithTracker(src, m, tag)
}

func (m *Manager) TrackAllocation(ptr uintptr, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[ptr] = size
	m.stats.TotalAllocated += size
	m.stats.ActiveMats++
}

func (m *Manager) TrackDeallocation(ptr uintptr, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size, exists := m.allocations[ptr]
	if !exists {
		m.log.Warning("MemoryManager", "releasing untracked Mat", map[string]interface{}{
			"tag": tag,
		})
		return
	}

	delete(m.allocations, ptr)
	m.stats.TotalReleased += size
	m.stats.ActiveMats--
}

func (m *Manager) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// LiveBytes reports the bytes held by Mats that were never released.
func (m *Manager) LiveBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.TotalAllocated - m.stats.TotalReleased
}
