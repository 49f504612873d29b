package statsview

import (
	"log/slog"
	"sync"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// DefaultAddress is used when Launch is given an empty address.
const DefaultAddress = "localhost:18066"

const url = "/debug/statsview"

// only one viewer may run per process: its configuration is global.
var (
	running bool
	mu      sync.Mutex
)

// URL returns the page showing the statistics for the given address.
func URL(addr string) string {
	if addr == "" {
		addr = DefaultAddress
	}
	return "http://" + addr + url
}

// Launch a new goroutine running the statsview. The returned function stops
// the server. Launching a second viewer while one is running does nothing.
func Launch(addr string, log *slog.Logger) (stop func()) {
	mu.Lock()
	defer mu.Unlock()

	if running {
		return func() {}
	}
	running = true

	if addr == "" {
		addr = DefaultAddress
	}
	if log == nil {
		log = slog.Default()
	}

	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	log.Info("stats server available", "url", URL(addr))

	var once sync.Once
	return func() {
		once.Do(func() {
			mgr.Stop()
			mu.Lock()
			running = false
			mu.Unlock()
		})
	}
}
