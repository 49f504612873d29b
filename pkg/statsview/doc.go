// Package statsview starts an HTTP server on the local machine offering
// runtime statistics (heap, goroutines, GC pauses) while the frame loop runs.
// Underlying functionality is provided by "github.com/go-echarts/statsview".
//
// After launch, graphical statistics are viewable at:
//
//	localhost:18066/debug/statsview
//
// And standard Go pprof statistics are available at:
//
//	localhost:18066/debug/pprof/
package statsview
