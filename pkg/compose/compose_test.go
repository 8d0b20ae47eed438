package compose

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xob0t/PosterStencil/pkg/poster"
	"github.com/xob0t/PosterStencil/pkg/shape"
	"golang.org/x/image/draw"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func near(t *testing.T, want color.RGBA, got color.RGBA, msg string) {
	t.Helper()
	d := func(a, b uint8) int { return int(math.Abs(float64(a) - float64(b))) }
	if d(want.R, got.R) > 2 || d(want.G, got.G) > 2 || d(want.B, got.B) > 2 || d(want.A, got.A) > 2 {
		t.Errorf("%s: want %v, have %v", msg, want, got)
	}
}

func center(t *testing.T, l poster.Layer, w, h int) (int, int) {
	t.Helper()
	g, ok := Layout(l, DefaultZone.Rect(w, h))
	require.True(t, ok)
	c := g.Image.Center()
	return int(c.X), int(c.Y)
}

func TestLaterLayersDrawOnTop(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "posterstencil.compose")
	defer teardown()
	//
	a := poster.NewLayer("a", solid(10, 10, red))
	b := poster.NewLayer("b", solid(10, 10, blue)).WithPlacement(poster.Placement{X: 20, Scale: 100})
	c := New()

	img := c.Render(nil, []poster.Layer{a, b}, 200, 200, Options{Export: true})
	ga, _ := Layout(a, DefaultZone.Rect(200, 200))
	gb, _ := Layout(b, DefaultZone.Rect(200, 200))
	require.Less(t, gb.Image.X, ga.Image.X+ga.Image.W, "layers must overlap")

	y := int(ga.Image.Center().Y)
	overlap := int((gb.Image.X + ga.Image.X + ga.Image.W) / 2)
	near(t, blue, img.RGBAAt(overlap, y), "overlap shows the later layer")
	near(t, red, img.RGBAAt(int(ga.Image.X)+2, y), "earlier layer visible outside overlap")

	img = c.Render(nil, []poster.Layer{b, a}, 200, 200, Options{Export: true})
	near(t, red, img.RGBAAt(overlap, y), "order decides, not ids")
}

func TestPlacementIsZoneRelative(t *testing.T) {
	l := poster.NewLayer("a", solid(300, 120, red)).
		WithPlacement(poster.Placement{X: 17, Y: -23, Scale: 80})

	for _, size := range [][2]int{{1080, 1080}, {3840, 2160}, {2480, 3508}} {
		zone := DefaultZone.Rect(size[0], size[1])
		g, ok := Layout(l, zone)
		require.True(t, ok)
		c := g.Image.Center()
		assert.InDelta(t, 0.5+0.17, (c.X-zone.X)/zone.W, 1e-9)
		assert.InDelta(t, 0.5-0.23, (c.Y-zone.Y)/zone.H, 1e-9)
	}
}

func TestFitToZoneAndScale(t *testing.T) {
	zone := Box{X: 10, Y: 20, W: 100, H: 100}
	l := poster.NewLayer("a", solid(400, 100, red))
	g, _ := Layout(l, zone)
	assert.InDelta(t, 100, g.Image.W, 1e-9, "width limited by zone")
	assert.InDelta(t, 25, g.Image.H, 1e-9)

	g, _ = Layout(l.WithPlacement(poster.Placement{Scale: 50}), zone)
	assert.InDelta(t, 50, g.Image.W, 1e-9)
	assert.InDelta(t, 60, g.Image.Center().X, 1e-9, "scaling keeps the layer centred")
}

func TestPlatePaddingScenario(t *testing.T) {
	l := poster.NewLayer("a", solid(200, 100, red)).
		WithPlate(poster.Plate{Type: poster.PlateWhite, PaddingX: 10, PaddingY: 20})
	g, ok := Layout(l, Box{W: 100, H: 50})
	require.True(t, ok)

	assert.InDelta(t, 100, g.Image.W, 1e-9)
	assert.InDelta(t, 50, g.Image.H, 1e-9)
	assert.InDelta(t, 120, g.Plate.W, 1e-9)
	assert.InDelta(t, 70, g.Plate.H, 1e-9)
	assert.InDelta(t, g.Image.Center().X, g.Plate.Center().X, 1e-9)
	assert.InDelta(t, g.Image.Center().Y, g.Plate.Center().Y, 1e-9)

	noPlate := l.WithPlate(poster.Plate{Type: poster.PlateNone, PaddingX: 10, PaddingY: 20})
	g, _ = Layout(noPlate, Box{W: 100, H: 50})
	assert.Equal(t, g.Image, g.Plate, "padding ignored without plate")
}

func TestRotationPivotsAroundLayerCentre(t *testing.T) {
	l := poster.NewLayer("a", solid(80, 40, red)).
		WithPlacement(poster.Placement{X: 30, Y: 10, Scale: 100, Rotation: 37})
	zone := DefaultZone.Rect(800, 600)
	g, _ := Layout(l, zone)

	rotated := g.Quad(g.Image)
	back := shape.RotateAbout(g.Image.Center(), -37)
	for i, corner := range g.Image.Corners() {
		p := shape.Apply(back, rotated[i])
		assert.InDelta(t, corner.X, p.X, 1e-9)
		assert.InDelta(t, corner.Y, p.Y, 1e-9)
	}
	pivot := shape.Apply(g.Matrix, g.Image.Center())
	assert.InDelta(t, g.Image.Center().X, pivot.X, 1e-9)
	assert.InDelta(t, g.Image.Center().Y, pivot.Y, 1e-9)
}

func TestRotatedLayerIsDrawnRotated(t *testing.T) {
	// A wide bar rotated by 90° becomes a tall bar around the same centre.
	l := poster.NewLayer("a", solid(100, 10, red)).
		WithPlacement(poster.Placement{Scale: 100, Rotation: 90})
	img := New().Render(nil, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))
	c := g.Image.Center()
	quarter := g.Image.W / 4

	near(t, red, img.RGBAAt(int(c.X), int(c.Y-quarter)), "above centre after rotation")
	assert.Equal(t, uint8(0), img.RGBAAt(int(c.X+quarter), int(c.Y)).A, "right of centre is empty after rotation")
}

func TestBaseCoversCanvas(t *testing.T) {
	// left half green, right half blue; 4:1 base on a square canvas keeps
	// only the centre, which straddles both halves.
	base := image.NewRGBA(image.Rect(0, 0, 400, 100))
	draw.Draw(base, image.Rect(0, 0, 200, 100), image.NewUniform(green), image.Point{}, draw.Src)
	draw.Draw(base, image.Rect(200, 0, 400, 100), image.NewUniform(blue), image.Point{}, draw.Src)

	img := New().Render(base, nil, 100, 100, Options{Export: true})
	near(t, green, img.RGBAAt(10, 50), "left of the crop")
	near(t, blue, img.RGBAAt(90, 50), "right of the crop")
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).A, "no letterbox bars")
	assert.Equal(t, uint8(255), img.RGBAAt(99, 99).A)
}

func TestPlaceholderOnlyInEditor(t *testing.T) {
	c := New()
	editor := c.Render(nil, nil, 64, 64, Options{})
	export := c.Render(nil, nil, 64, 64, Options{Export: true})
	assert.Equal(t, c.Placeholder[0], editor.RGBAAt(0, 0))
	assert.Equal(t, c.Placeholder[1], editor.RGBAAt(20, 0))
	assert.Equal(t, color.RGBA{}, export.RGBAAt(0, 0))
}

func TestPendingLayersAreSkipped(t *testing.T) {
	c := New()
	base := solid(50, 50, green)
	pending := poster.NewLayer("pending", nil)
	want := c.Render(base, nil, 120, 120, Options{Export: true})
	got := c.Render(base, []poster.Layer{pending}, 120, 120, Options{Export: true})
	assert.Equal(t, want.Pix, got.Pix)
}

func TestOpacityScalesAlpha(t *testing.T) {
	l := poster.NewLayer("a", solid(10, 10, red)).WithStyle(poster.Style{Opacity: 50})
	img := New().Render(nil, []poster.Layer{l}, 200, 200, Options{Export: true})
	x, y := center(t, l, 200, 200)
	near(t, color.RGBA{128, 0, 0, 128}, img.RGBAAt(x, y), "half transparent red (premultiplied)")
}

func TestBlendModeAgainstBase(t *testing.T) {
	base := solid(20, 20, color.RGBA{200, 100, 50, 255})
	layer := func(mode poster.BlendMode, c color.Color) poster.Layer {
		return poster.NewLayer("a", solid(10, 10, c)).WithStyle(poster.Style{Opacity: 100, Blend: mode})
	}
	comp := New()
	cases := []struct {
		mode poster.BlendMode
		src  color.Color
		want color.RGBA
	}{
		{poster.BlendMultiply, color.White, color.RGBA{200, 100, 50, 255}},
		{poster.BlendScreen, color.Black, color.RGBA{200, 100, 50, 255}},
		{poster.BlendDifference, color.RGBA{200, 100, 50, 255}, color.RGBA{0, 0, 0, 255}},
		{poster.BlendDarken, color.RGBA{100, 150, 20, 255}, color.RGBA{100, 100, 20, 255}},
		{poster.BlendLighten, color.RGBA{100, 150, 20, 255}, color.RGBA{200, 150, 50, 255}},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			l := layer(tc.mode, tc.src)
			img := comp.Render(base, []poster.Layer{l}, 200, 200, Options{Export: true})
			x, y := center(t, l, 200, 200)
			near(t, tc.want, img.RGBAAt(x, y), tc.mode.String())
		})
	}
}

func TestBlendFunctions(t *testing.T) {
	cb := rgb{0.2, 0.5, 0.8}
	cs := rgb{0.6, 0.5, 0.1}
	for _, m := range poster.BlendModes() {
		out := mix(m, cb, cs)
		for i := range out {
			assert.GreaterOrEqual(t, out[i], 0.0, m.String())
			assert.LessOrEqual(t, out[i], 1.0, m.String())
		}
	}
	assert.Equal(t, cs, mix(poster.BlendNormal, cb, cs))
	assert.InDelta(t, lum(cs), lum(mix(poster.BlendLuminosity, cb, cs)), 1e-9)
	assert.InDelta(t, 0.5, mixChannel(poster.BlendSoftLight, 0.5, 0.5), 1e-9)
	assert.InDelta(t, 0.32, mixChannel(poster.BlendOverlay, 0.4, 0.4), 1e-9)
	assert.InDelta(t, 1.0, mixChannel(poster.BlendColorDodge, 0.5, 1), 1e-9)
}

func TestPlateIsDrawnBehindImage(t *testing.T) {
	l := poster.NewLayer("a", solid(20, 10, red)).
		WithPlate(poster.Plate{Type: poster.PlateWhite, PaddingX: 25, PaddingY: 25})
	img := New().Render(nil, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))

	c := g.Image.Center()
	near(t, red, img.RGBAAt(int(c.X), int(c.Y)), "image above plate")
	inPlate := int(g.Image.X - g.Image.W*0.125)
	near(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(inPlate, int(c.Y)), "plate visible in padding")

	below := img.RGBAAt(int(c.X), int(g.Plate.Y+g.Plate.H)+3)
	assert.Greater(t, below.A, uint8(0), "shadow falls below the plate")
	assert.Less(t, below.A, uint8(128), "shadow is soft")
}

func TestCornerRadiusClips(t *testing.T) {
	l := poster.NewLayer("a", solid(40, 40, red)).WithStyle(poster.Style{Opacity: 100, Radius: 1000})
	img := New().Render(nil, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))

	c := g.Image.Center()
	near(t, red, img.RGBAAt(int(c.X), int(c.Y)), "centre drawn")
	assert.Equal(t, uint8(0), img.RGBAAt(int(g.Image.X)+1, int(g.Image.Y)+1).A, "corner clipped")
}

func TestBorderIsStroked(t *testing.T) {
	l := poster.NewLayer("a", solid(40, 40, red)).
		WithStyle(poster.Style{Opacity: 100, BorderWidth: 4, BorderColor: poster.Color{R: 0, G: 0, B: 255, A: 255}})
	img := New().Render(nil, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))
	c := g.Image.Center()
	near(t, blue, img.RGBAAt(int(g.Image.X), int(c.Y)), "left edge carries the border")
	near(t, red, img.RGBAAt(int(c.X), int(c.Y)), "inside untouched")
}

func TestSelectionOverlayOnlyInEditor(t *testing.T) {
	l := poster.NewLayer("a", solid(40, 40, red))
	c := New()
	g, _ := Layout(l, DefaultZone.Rect(400, 400))
	corner := g.Outline().Expand(c.Selection.Gap, c.Selection.Gap)
	x, y := int(corner.X), int(corner.Y)
	sel := color.RGBA{c.Selection.Color.R, c.Selection.Color.G, c.Selection.Color.B, 255}

	editor := c.Render(nil, []poster.Layer{l}, 400, 400, Options{Selected: "a"})
	near(t, sel, editor.RGBAAt(x, y), "handle at top-left corner")

	export := c.Render(nil, []poster.Layer{l}, 400, 400, Options{Selected: "a", Export: true})
	assert.Equal(t, uint8(0), export.RGBAAt(x, y).A, "no overlay in export")

	other := c.Render(nil, []poster.Layer{l}, 400, 400, Options{Selected: "b"})
	assert.NotEqual(t, sel, other.RGBAAt(x, y), "only the selected layer is highlighted")
}

func TestSelectionOutlineIsDashed(t *testing.T) {
	l := poster.NewLayer("a", solid(40, 40, red))
	c := New()
	g, _ := Layout(l, DefaultZone.Rect(400, 400))
	box := g.Outline().Expand(c.Selection.Gap, c.Selection.Gap)
	sel := color.RGBA{c.Selection.Color.R, c.Selection.Color.G, c.Selection.Color.B, 255}

	plain := c.Render(nil, []poster.Layer{l}, 400, 400, Options{})
	editor := c.Render(nil, []poster.Layer{l}, 400, 400, Options{Selected: "a"})
	y := int(math.Floor(box.Y))
	// 6px dash, 4px gap, starting at the top-left corner; the first dash
	// lies under the corner handle.
	gap := int(math.Floor(box.X + 8))
	dash := int(math.Floor(box.X + 13))
	near(t, sel, editor.RGBAAt(dash, y), "second dash on the top edge")
	assert.Equal(t, plain.RGBAAt(gap, y), editor.RGBAAt(gap, y), "gap leaves the canvas untouched")
	near(t, sel, editor.RGBAAt(int(math.Floor(box.X+23)), y), "third dash")
}

func TestOpacityAppliesToEachDrawStep(t *testing.T) {
	base := solid(20, 20, color.Black)
	l := poster.NewLayer("a", solid(20, 10, red)).
		WithStyle(poster.Style{Opacity: 50}).
		WithPlate(poster.Plate{Type: poster.PlateWhite, PaddingX: 25, PaddingY: 25})
	c := New()
	c.Shadow.Color.A = 0
	img := c.Render(base, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))

	ctr := g.Image.Center()
	near(t, color.RGBA{191, 64, 64, 255}, img.RGBAAt(int(ctr.X), int(ctr.Y)), "half red over half white plate")
	inPlate := int(g.Image.X - g.Image.W*0.125)
	near(t, color.RGBA{128, 128, 128, 255}, img.RGBAAt(inPlate, int(ctr.Y)), "half white plate over black")
}

func TestBorderBlendsOverBitmap(t *testing.T) {
	base := solid(20, 20, color.Black)
	l := poster.NewLayer("a", solid(40, 40, red)).
		WithStyle(poster.Style{Opacity: 50, BorderWidth: 4, BorderColor: poster.Color{R: 0, G: 0, B: 255, A: 255}})
	img := New().Render(base, []poster.Layer{l}, 400, 400, Options{Export: true})
	g, _ := Layout(l, DefaultZone.Rect(400, 400))

	// the inner half of the border overlaps the image
	y := int(g.Image.Center().Y)
	near(t, color.RGBA{64, 0, 128, 255}, img.RGBAAt(int(g.Image.X)+1, y), "border over the image")
	near(t, color.RGBA{0, 0, 128, 255}, img.RGBAAt(int(math.Ceil(g.Image.X))-2, y), "border outside the image")
}

func TestRenderIsDeterministic(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range base.Pix {
		base.Pix[i] = uint8(i * 7)
	}
	l := poster.NewLayer("a", solid(30, 20, red)).
		WithPlacement(poster.Placement{X: 5, Y: -5, Scale: 150, Rotation: 12}).
		WithStyle(poster.Style{Opacity: 70, Blend: poster.BlendOverlay, Radius: 6, BorderWidth: 2, BorderColor: poster.White}).
		WithPlate(poster.Plate{Type: poster.PlateWhite, PaddingX: 10, PaddingY: 10, Radius: 4})
	c := New()
	first := c.Render(base, []poster.Layer{l}, 300, 200, Options{Selected: "a"})
	second := c.Render(base, []poster.Layer{l}, 300, 200, Options{Selected: "a"})
	assert.Equal(t, first.Pix, second.Pix)
}

func TestEmptySurface(t *testing.T) {
	img := New().Render(nil, nil, 0, -3, Options{})
	assert.True(t, img.Bounds().Empty())
}
