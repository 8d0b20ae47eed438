/*
Package preview re-renders the editor canvas after edits settle.

Edits arrive as complete scene snapshots. Rapid updates are coalesced: a
render starts only after no update has arrived for the configured delay,
and a frame is delivered only if no newer snapshot is waiting and no newer
frame has already been delivered.
*/
package preview

import (
	"image"
	"sync"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/xob0t/PosterStencil/pkg/compose"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

// tracer traces with key 'posterstencil.preview'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.preview")
}

// DefaultDelay is the debounce interval between the last edit and a render.
const DefaultDelay = 150 * time.Millisecond

// Config sizes the preview canvas.
type Config struct {
	Width, Height int
	Delay         time.Duration // 0 selects DefaultDelay
}

// State is one snapshot of the editor scene.
type State struct {
	Base     image.Image
	Layers   []poster.Layer
	Selected string
}

// Frame is a rendered preview. Generation increases with every Update.
type Frame struct {
	Image      *image.RGBA
	Generation uint64
}

// Loop debounces scene updates into preview frames.
type Loop struct {
	compositor *compose.Compositor
	cfg        Config
	sink       func(Frame)

	deliver sync.Mutex // serialises sink calls; taken before mu

	mu        sync.Mutex
	pending   State
	gen       uint64 // generation of the latest Update
	delivered uint64 // generation of the latest delivered frame
	timer     *time.Timer
	closed    bool
}

// New creates a loop that renders with c and passes frames to sink.
// sink is called from a timer goroutine, never concurrently with itself.
// The loop is not locked while sink runs, so Update and Resize never wait
// for it.
func New(c *compose.Compositor, cfg Config, sink func(Frame)) *Loop {
	if c == nil {
		c = compose.New()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	return &Loop{compositor: c, cfg: cfg, sink: sink}
}

// Update records a new scene snapshot and restarts the debounce timer.
// The layer slice is copied.
func (l *Loop) Update(s State) uint64 {
	s.Layers = append([]poster.Layer(nil), s.Layers...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.gen
	}
	l.gen++
	l.pending = s
	if l.timer != nil {
		l.timer.Stop()
	}
	gen := l.gen
	l.timer = time.AfterFunc(l.cfg.Delay, func() { l.fire(gen) })
	return gen
}

// Resize changes the canvas size for subsequent renders and schedules a
// render of the current scene.
func (l *Loop) Resize(width, height int) {
	l.mu.Lock()
	l.cfg.Width, l.cfg.Height = width, height
	s := l.pending
	l.mu.Unlock()
	l.Update(s)
}

// Close stops pending renders. Frames already rendering are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}
}

func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		return
	}
	s, w, h := l.pending, l.cfg.Width, l.cfg.Height
	l.mu.Unlock()

	img := l.compositor.Render(s.Base, s.Layers, w, h, compose.Options{Selected: s.Selected})

	l.deliver.Lock()
	defer l.deliver.Unlock()
	l.mu.Lock()
	if l.closed || gen != l.gen || gen <= l.delivered {
		l.mu.Unlock()
		tracer().Debugf("preview frame %d is stale, dropped", gen)
		return
	}
	l.delivered = gen
	l.mu.Unlock()
	if l.sink != nil {
		l.sink(Frame{Image: img, Generation: gen})
	}
}
