/*
Package export turns a layer stack into a downloadable image file.

An export renders the scene at the requested resolution with all editor-only
drawing suppressed, encodes it as PNG or JPEG and stamps the physical pixel
density into the encoded bytes. At most one export runs per Exporter; the
status moves idle → generating → done and back to idle once the caller has
acknowledged the result.
*/
package export

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/xob0t/PosterStencil/pkg/compose"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

// tracer traces with key 'posterstencil.export'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.export")
}

var (
	// ErrBusy is returned when an export is requested while one is running.
	ErrBusy = errors.New("export already in progress")
	// ErrNoBase is returned for the original resolution without a base image.
	ErrNoBase = errors.New("original resolution requires a base image")
)

// Status is the state of an Exporter.
type Status int32

const (
	Idle Status = iota
	Generating
	Done
)

func (s Status) String() string {
	switch s {
	case Generating:
		return "generating"
	case Done:
		return "done"
	}
	return "idle"
}

// Result is one encoded export.
type Result struct {
	Data     []byte
	Filename string
	MIME     string
	Width    int
	Height   int
}

// Exporter renders and encodes exports, one at a time.
type Exporter struct {
	compositor *compose.Compositor
	status     atomic.Int32
}

// New creates an Exporter drawing with c. A nil c uses compose.New().
func New(c *compose.Compositor) *Exporter {
	if c == nil {
		c = compose.New()
	}
	return &Exporter{compositor: c}
}

// Status reports the current state.
func (e *Exporter) Status() Status {
	return Status(e.status.Load())
}

// Acknowledge moves a finished exporter back to idle. It has no effect in
// any other state.
func (e *Exporter) Acknowledge() {
	e.status.CompareAndSwap(int32(Done), int32(Idle))
}

// Export renders base and layers with settings s. Layers without a bitmap
// are left out. On failure or panic the exporter returns to idle; on success it
// stays done until acknowledged or the next export starts.
func (e *Exporter) Export(base image.Image, layers []poster.Layer, s Settings) (*Result, error) {
	if !e.begin() {
		return nil, ErrBusy
	}
	done := false
	defer func() {
		if !done {
			e.status.Store(int32(Idle))
		}
	}()
	res, err := e.export(base, layers, s.Normalize())
	if err != nil {
		return nil, err
	}
	e.status.Store(int32(Done))
	done = true
	return res, nil
}

// begin claims the exporter. A done exporter counts as acknowledged.
func (e *Exporter) begin() bool {
	return e.status.CompareAndSwap(int32(Idle), int32(Generating)) ||
		e.status.CompareAndSwap(int32(Done), int32(Generating))
}

func (e *Exporter) export(base image.Image, layers []poster.Layer, s Settings) (*Result, error) {
	w, h, err := s.Resolution.Size(base)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	img := e.compositor.Render(base, layers, w, h, compose.Options{Export: true})
	data, err := Encode(img, s)
	if err != nil {
		tracer().Errorf("export %dx%d %s failed: %v", w, h, s.Format, err)
		return nil, fmt.Errorf("export: %w", err)
	}
	res := &Result{
		Data:     data,
		Filename: s.Filename(w, h),
		MIME:     s.Format.MIME(),
		Width:    w,
		Height:   h,
	}
	tracer().Infof("exported %s (%d bytes, %d dpi) in %v", res.Filename, len(data), s.DPI, time.Since(start))
	return res, nil
}
