//go:build js && wasm

// PosterStencil WASM — Client-side preview and export.
// Compiled with: GOOS=js GOARCH=wasm go build -o posterstencil.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"syscall/js"

	"github.com/disintegration/imaging"
	"github.com/xob0t/PosterStencil/pkg/compose"
	"github.com/xob0t/PosterStencil/pkg/document"
	"github.com/xob0t/PosterStencil/pkg/export"
	"github.com/xob0t/PosterStencil/pkg/poster"
	"github.com/xob0t/PosterStencil/pkg/preview"
)

// In-memory asset store (replaces server-side asset manager).
var (
	assetsMu sync.RWMutex
	assets   = make(map[string]image.Image)

	compositor = compose.New()
	exporter   = export.New(compositor)

	loopMu sync.Mutex
	loop   *preview.Loop
)

// scene is the editor state passed from JavaScript. Base and layer sources
// are asset ids.
type scene struct {
	Base     string               `json:"base"`
	Layers   []document.LayerSpec `json:"layers"`
	Selected string               `json:"selected"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
	Export   export.Settings      `json:"export"`
}

func main() {
	fmt.Println("PosterStencil WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))
	js.Global().Set("goOnPreview", js.FuncOf(onPreview))
	js.Global().Set("goUpdateScene", js.FuncOf(updateScene))
	js.Global().Set("goExport", js.FuncOf(exportScene))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func lookup(id string) image.Image {
	assetsMu.RLock()
	defer assetsMu.RUnlock()
	return assets[id]
}

// goRegisterAsset(id, base64Data) — decode an image into Go memory.
func registerAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}
	id := args[0].String()

	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return js.ValueOf("error: decode image: " + err.Error())
	}

	assetsMu.Lock()
	assets[id] = img
	assetsMu.Unlock()

	b := img.Bounds()
	return js.ValueOf(map[string]interface{}{"width": b.Dx(), "height": b.Dy()})
}

// goRemoveAsset(id) — remove an asset from Go memory.
func removeAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	assetsMu.Lock()
	delete(assets, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goOnPreview(width, height, callback) — start the preview loop; callback
// receives each frame as a base64 PNG.
func onPreview(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: need width, height, callback")
	}
	callback := args[2]
	sink := func(f preview.Frame) {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, f.Image, imaging.PNG); err != nil {
			return
		}
		callback.Invoke(base64.StdEncoding.EncodeToString(buf.Bytes()), float64(f.Generation))
	}

	loopMu.Lock()
	defer loopMu.Unlock()
	if loop != nil {
		loop.Close()
	}
	loop = preview.New(compositor, preview.Config{Width: args[0].Int(), Height: args[1].Int()}, sink)
	return js.ValueOf("ok")
}

// goUpdateScene(sceneJSON) — feed the preview loop. Returns the generation.
func updateScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need sceneJSON")
	}
	s, err := parseScene(args[0].String())
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	base, layers, err := resolve(s)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	loopMu.Lock()
	defer loopMu.Unlock()
	if loop == nil {
		return js.ValueOf("error: call goOnPreview first")
	}
	if s.Width > 0 && s.Height > 0 {
		loop.Resize(s.Width, s.Height)
	}
	gen := loop.Update(preview.State{Base: base, Layers: layers, Selected: s.Selected})
	return js.ValueOf(float64(gen))
}

// goExport(sceneJSON) — render and return {data, filename, mime}; data is base64.
func exportScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need sceneJSON")
	}
	s, err := parseScene(args[0].String())
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	base, layers, err := resolve(s)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	res, err := exporter.Export(base, layers, s.Export)
	if err != nil {
		return js.ValueOf("error: export: " + err.Error())
	}
	exporter.Acknowledge()

	return js.ValueOf(map[string]interface{}{
		"data":     base64.StdEncoding.EncodeToString(res.Data),
		"filename": res.Filename,
		"mime":     res.MIME,
	})
}

func parseScene(s string) (*scene, error) {
	sc := scene{Export: export.DefaultSettings()}
	if err := json.Unmarshal([]byte(s), &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	sc.Export = sc.Export.Normalize()
	return &sc, nil
}

func resolve(s *scene) (image.Image, []poster.Layer, error) {
	var stack poster.Stack
	for _, spec := range s.Layers {
		l := spec.Layer()
		if img := lookup(spec.Source); img != nil {
			l = l.WithSource(img)
		}
		var err error
		if stack, err = stack.Add(l); err != nil {
			return nil, nil, err
		}
	}
	return lookup(s.Base), stack.Snapshot(), nil
}
