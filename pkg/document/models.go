// Package document reads and writes poster projects: a base image, an
// ordered list of overlay layers and default export settings, stored as
// project.json either on its own or inside a .gsposter bundle.
package document

import (
	"encoding/json"

	"github.com/npillmayer/schuko/tracing"
	"github.com/xob0t/PosterStencil/pkg/export"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

// tracer traces with key 'posterstencil.document'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.document")
}

// ── Project types ──

// Project is the top-level structure of project.json.
type Project struct {
	Meta     Meta            `json:"meta"`
	Base     string          `json:"base"` // path to the base image (resolved from the project dir)
	Layers   []LayerSpec     `json:"layers"`
	Export   export.Settings `json:"export"`
	Selected string          `json:"selected,omitempty"`
}

// Meta holds project metadata.
type Meta struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// LayerSpec is one layer as stored on disk. Source is an image path.
type LayerSpec struct {
	ID        string           `json:"id"`
	Source    string           `json:"source"`
	Placement poster.Placement `json:"placement"`
	Style     poster.Style     `json:"style"`
	Plate     poster.Plate     `json:"plate"`
}

// UnmarshalJSON starts from the layer defaults, so omitted fields keep
// their default values instead of zero.
func (l *LayerSpec) UnmarshalJSON(data []byte) error {
	type plain LayerSpec
	v := plain{
		Placement: poster.DefaultPlacement(),
		Style:     poster.DefaultStyle(),
		Plate:     poster.DefaultPlate(),
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = LayerSpec(v)
	return nil
}

// UnmarshalJSON fills omitted export settings with their defaults.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	v := plain{Export: export.DefaultSettings()}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Project(v)
	return nil
}

// Layer converts l into a clamped layer without a bitmap.
func (l LayerSpec) Layer() poster.Layer {
	return poster.Layer{
		ID:        l.ID,
		Placement: l.Placement,
		Style:     l.Style,
		Plate:     l.Plate,
	}.Clamp()
}

// SpecFor is the inverse of LayerSpec.Layer; source is the image path.
func SpecFor(l poster.Layer, source string) LayerSpec {
	return LayerSpec{
		ID:        l.ID,
		Source:    source,
		Placement: l.Placement,
		Style:     l.Style,
		Plate:     l.Plate,
	}
}
