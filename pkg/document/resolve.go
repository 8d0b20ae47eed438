// resolve.go — Decode project images into a renderable scene.
package document

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/xob0t/PosterStencil/pkg/poster"
	_ "golang.org/x/image/webp" // register WebP with image.Decode
)

// Scene is a project with its images decoded.
type Scene struct {
	Base     image.Image // nil when missing or undecodable
	Layers   poster.Stack
	Selected string
}

// Resolve decodes the base and layer images. Images that cannot be read
// are reported as warnings and left nil; such layers stay in the stack but
// are not drawn. Layers with an empty or repeated id are dropped.
func (p *Project) Resolve() (*Scene, []string) {
	var warnings []string

	scene := &Scene{Selected: p.Selected}
	if p.Base != "" {
		img, err := Decode(p.Base)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("base image: %v — exporting without base", err))
		}
		scene.Base = img
	}

	for _, spec := range p.Layers {
		l := spec.Layer()
		if spec.Source != "" {
			img, err := Decode(spec.Source)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("layer %q: %v — skipped", spec.ID, err))
			} else {
				l = l.WithSource(img)
			}
		}
		stack, err := scene.Layers.Add(l)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("layer %q: %v — dropped", spec.ID, err))
			continue
		}
		scene.Layers = stack
	}

	for _, w := range warnings {
		tracer().Infof("%s", w)
	}
	return scene, warnings
}

// Decode opens an image file, applying its EXIF orientation.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
