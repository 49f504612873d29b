package frame

import (
	"fmt"
	"sync"
	"time"
)

// defaultFPSHistorySize keeps about one second of frames at 60 FPS.
const defaultFPSHistorySize = 60

// FPSCounter measures the frame rate from the deltas the scheduler hands to
// its callback, so it reports the pace the program actually observed.
type FPSCounter struct {
	frameTimes []time.Duration
	maxSize    int
	total      int64

	currentFPS float64
	averageFPS float64
	minFPS     float64
	maxFPS     float64

	mu sync.RWMutex
}

// FPSStats is a snapshot of an FPSCounter.
type FPSStats struct {
	Frames           int64         `json:"frames"`
	CurrentFPS       float64       `json:"current_fps"`
	AverageFPS       float64       `json:"average_fps"`
	MinFPS           float64       `json:"min_fps"`
	MaxFPS           float64       `json:"max_fps"`
	FrameTime        time.Duration `json:"frame_time"`
	AverageFrameTime time.Duration `json:"average_frame_time"`
}

// NewFPSCounter creates a counter averaging over the last size frames.
// A size of zero or less uses the default history size.
func NewFPSCounter(size int) *FPSCounter {
	if size <= 0 {
		size = defaultFPSHistorySize
	}
	return &FPSCounter{
		frameTimes: make([]time.Duration, 0, size),
		maxSize:    size,
	}
}

// Record adds one frame delta in seconds. Zero or negative deltas (the
// first frame, or a repeated timestamp) are ignored.
func (fc *FPSCounter) Record(dt float64) {
	if dt <= 0 {
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.frameTimes = append(fc.frameTimes, time.Duration(dt*float64(time.Second)))
	if len(fc.frameTimes) > fc.maxSize {
		fc.frameTimes = fc.frameTimes[1:]
	}
	fc.total++
	fc.calculateLocked()
}

func (fc *FPSCounter) calculateLocked() {
	last := fc.frameTimes[len(fc.frameTimes)-1]
	fc.currentFPS = float64(time.Second) / float64(last)

	var sum time.Duration
	fc.minFPS, fc.maxFPS = fc.currentFPS, fc.currentFPS
	for _, ft := range fc.frameTimes {
		sum += ft
		fps := float64(time.Second) / float64(ft)
		fc.minFPS = min(fc.minFPS, fps)
		fc.maxFPS = max(fc.maxFPS, fps)
	}
	fc.averageFPS = float64(len(fc.frameTimes)) * float64(time.Second) / float64(sum)
}

// Stats returns a snapshot of the counter.
func (fc *FPSCounter) Stats() FPSStats {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	stats := FPSStats{
		Frames:     fc.total,
		CurrentFPS: fc.currentFPS,
		AverageFPS: fc.averageFPS,
		MinFPS:     fc.minFPS,
		MaxFPS:     fc.maxFPS,
	}
	if n := len(fc.frameTimes); n > 0 {
		var sum time.Duration
		for _, ft := range fc.frameTimes {
			sum += ft
		}
		stats.FrameTime = fc.frameTimes[n-1]
		stats.AverageFrameTime = sum / time.Duration(n)
	}
	return stats
}

// Clear drops the history.
func (fc *FPSCounter) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.frameTimes = fc.frameTimes[:0]
	fc.total = 0
	fc.currentFPS, fc.averageFPS, fc.minFPS, fc.maxFPS = 0, 0, 0, 0
}

// Compact returns a one-line summary for logs.
func (fc *FPSCounter) Compact() string {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fmt.Sprintf("FPS:%.1f (avg:%.1f min:%.1f max:%.1f)", fc.currentFPS, fc.averageFPS, fc.minFPS, fc.maxFPS)
}
