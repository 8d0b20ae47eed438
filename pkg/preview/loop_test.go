package preview

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

const delay = 20 * time.Millisecond

func collect() (chan Frame, func(Frame)) {
	ch := make(chan Frame, 16)
	return ch, func(f Frame) { ch <- f }
}

func next(t *testing.T, ch chan Frame) Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no preview frame")
	}
	return Frame{}
}

func quiet(t *testing.T, ch chan Frame) {
	t.Helper()
	select {
	case f := <-ch:
		t.Fatalf("unexpected frame %d", f.Generation)
	case <-time.After(5 * delay):
	}
}

func TestBurstRendersOnce(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "posterstencil.preview")
	defer teardown()
	//
	ch, sink := collect()
	l := New(nil, Config{Width: 64, Height: 48, Delay: delay}, sink)
	defer l.Close()

	var last uint64
	for range 5 {
		last = l.Update(State{})
	}
	f := next(t, ch)
	assert.Equal(t, last, f.Generation)
	assert.Equal(t, image.Rect(0, 0, 64, 48), f.Image.Bounds())
	quiet(t, ch)
}

func TestFramesUseLatestState(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 100, Height: 100, Delay: delay}, sink)
	defer l.Close()

	base := image.NewUniform(color.RGBA{10, 20, 30, 255})
	red := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range red.Pix {
		red.Pix[i] = 0xff
	}
	l.Update(State{})
	l.Update(State{Base: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	l.Update(State{
		Base:   subImage{base, image.Rect(0, 0, 10, 10)},
		Layers: []poster.Layer{poster.NewLayer("a", red)},
	})
	f := next(t, ch)
	assert.Equal(t, uint64(3), f.Generation)
	px := f.Image.RGBAAt(0, 0)
	assert.InDelta(t, 10, int(px.R), 1)
	assert.InDelta(t, 20, int(px.G), 1)
	assert.InDelta(t, 30, int(px.B), 1)
}

func TestUpdateCopiesLayers(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 100, Height: 100, Delay: delay}, sink)
	defer l.Close()

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	layers := []poster.Layer{poster.NewLayer("a", src)}
	l.Update(State{Layers: layers})
	layers[0] = poster.NewLayer("b", nil)

	l.mu.Lock()
	id := l.pending.Layers[0].ID
	l.mu.Unlock()
	assert.Equal(t, "a", id)
	next(t, ch)
}

func TestSeparateBurstsRenderSeparately(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 16, Height: 16, Delay: delay}, sink)
	defer l.Close()

	l.Update(State{})
	first := next(t, ch)
	l.Update(State{})
	second := next(t, ch)
	assert.Greater(t, second.Generation, first.Generation)
}

func TestStaleRenderIsDropped(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 16, Height: 16, Delay: time.Hour}, sink)
	defer l.Close()

	old := l.Update(State{})
	l.Update(State{})
	l.fire(old)
	select {
	case f := <-ch:
		t.Fatalf("superseded frame %d delivered", f.Generation)
	default:
	}
}

func TestCloseStopsRendering(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 16, Height: 16, Delay: delay}, sink)
	l.Update(State{})
	l.Close()
	quiet(t, ch)
	l.Update(State{})
	quiet(t, ch)
}

func TestResizeRerenders(t *testing.T) {
	ch, sink := collect()
	l := New(nil, Config{Width: 16, Height: 16, Delay: delay}, sink)
	defer l.Close()

	l.Update(State{})
	next(t, ch)
	l.Resize(32, 8)
	f := next(t, ch)
	require.NotNil(t, f.Image)
	assert.Equal(t, image.Rect(0, 0, 32, 8), f.Image.Bounds())
}

func TestSlowSinkDoesNotBlockUpdates(t *testing.T) {
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	l := New(nil, Config{Width: 16, Height: 16, Delay: delay}, func(Frame) {
		entered <- struct{}{}
		<-release
	})
	defer l.Close()
	defer close(release)

	l.Update(State{})
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("no preview frame")
	}

	returned := make(chan uint64)
	go func() {
		l.Resize(32, 32)
		returned <- l.Update(State{})
	}()
	select {
	case gen := <-returned:
		assert.Equal(t, uint64(3), gen)
	case <-time.After(time.Second):
		t.Fatal("update waited for the sink")
	}
}

func TestDefaultDelay(t *testing.T) {
	l := New(nil, Config{}, nil)
	assert.Equal(t, DefaultDelay, l.cfg.Delay)
}

// subImage gives an infinite uniform image finite bounds.
type subImage struct {
	image.Image
	r image.Rectangle
}

func (s subImage) Bounds() image.Rectangle { return s.r }
