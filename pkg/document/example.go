// example.go — Sample project written by "poster init".
package document

import (
	"encoding/json"

	"github.com/xob0t/PosterStencil/pkg/export"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

// Example returns a sample project with a logo on a white plate and a
// softly blended stamp.
func Example() *Project {
	logo := LayerSpec{
		ID:        "logo",
		Source:    "assets/logo.png",
		Placement: poster.Placement{Y: -10, Scale: 90},
		Style:     poster.Style{Opacity: 100, Radius: 16, BorderColor: poster.White},
		Plate:     poster.Plate{Type: poster.PlateWhite, PaddingX: 12, PaddingY: 18, Radius: 20},
	}
	stamp := LayerSpec{
		ID:        "stamp",
		Source:    "assets/stamp.png",
		Placement: poster.Placement{X: 35, Y: 30, Scale: 40, Rotation: -12},
		Style:     poster.Style{Opacity: 80, Blend: poster.BlendMultiply, BorderColor: poster.White},
		Plate:     poster.DefaultPlate(),
	}
	settings := export.DefaultSettings()
	settings.Resolution = export.A4At300DPI
	settings.Prefix = "poster"

	return &Project{
		Meta: Meta{
			Name:        "Sample poster",
			Version:     "1.0",
			Description: "A base photo with a logo card and a stamp.",
		},
		Base:     "assets/base.jpg",
		Layers:   []LayerSpec{logo, stamp},
		Export:   settings,
		Selected: "logo",
	}
}

// ExampleJSON returns Example as indented JSON.
func ExampleJSON() []byte {
	data, err := json.MarshalIndent(Example(), "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}
