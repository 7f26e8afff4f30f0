package canopy

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// globalDebug gates the debug-mode checks: disposed-use panics, tree shape
// warnings, thread-affinity assertions, and per-frame pipeline stats.
var globalDebug bool

// SetDebugMode enables or disables debug mode. When enabled, tree operations
// on disposed drawables panic, deep or oversized trees warn on stderr, scene
// mutation off the update thread panics, and hosts log per-frame pipeline
// timing.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// updateGoroutineID identifies the goroutine allowed to mutate the drawable
// tree. Zero until a host marks its update thread.
var updateGoroutineID atomic.Uint64

// markUpdateThreadCurrent records the calling goroutine as the tree-owning
// update thread for debug-mode affinity checks.
func markUpdateThreadCurrent() {
	updateGoroutineID.Store(currentGoroutineID())
}

// debugCheckUpdateThread panics when op runs off the update thread. Only
// called when globalDebug is set and only meaningful once a host has marked
// its update thread.
func debugCheckUpdateThread(op string) {
	want := updateGoroutineID.Load()
	if want == 0 {
		return
	}
	if got := currentGoroutineID(); got != want {
		panic(fmt.Sprintf("canopy debug: %s called off the update thread (goroutine %d, want %d); use a Scheduler", op, got, want))
	}
}

// debugCheckDisposed panics with a descriptive message when a disposed
// drawable is used in a tree operation. In release mode callers skip this
// entirely.
func debugCheckDisposed(d *Drawable, op string) {
	if d.disposed {
		panic(fmt.Sprintf("canopy debug: %s on disposed drawable %q (ID was %d)", op, d.Name, d.ID))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 64

func debugCheckTreeDepth(d *Drawable) {
	depth := 0
	for p := d; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[canopy] warning: tree depth %d exceeds %d (drawable %q)\n",
			depth, debugMaxTreeDepth, d.Name)
	}
}

// debugCheckChildCount warns on stderr if a drawable's child count exceeds
// the threshold.
const debugMaxChildCount = 100000

func debugCheckChildCount(d *Drawable) {
	if len(d.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[canopy] warning: drawable %q has %d children (threshold %d)\n",
			d.Name, len(d.children), debugMaxChildCount)
	}
}

// pipelineStats holds per-frame timing for the update pipeline.
// Only populated when debug mode is on.
type pipelineStats struct {
	updateTime   time.Duration
	generateTime time.Duration
	publishTime  time.Duration
}

// debugLogPipeline prints update pipeline timing to stderr.
func debugLogPipeline(stats pipelineStats) {
	if !globalDebug {
		return
	}
	total := stats.updateTime + stats.generateTime + stats.publishTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[canopy] update: %v | generate: %v | publish: %v | total: %v\n",
		stats.updateTime, stats.generateTime, stats.publishTime, total)
}
