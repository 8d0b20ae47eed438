// validator.go — Sanity checks on a parsed project.
package document

import (
	"fmt"
	"os"
)

// Validate checks layer ids and image paths.
// Returns warnings (never fatal errors) for graceful degradation.
func Validate(p *Project) []string {
	if p == nil {
		return nil
	}

	var warnings []string
	if p.Base == "" {
		warnings = append(warnings, "no base image — only fixed resolutions can be exported")
	} else if _, err := os.Stat(p.Base); err != nil {
		warnings = append(warnings, fmt.Sprintf("base image %s not found", p.Base))
	}

	seen := make(map[string]struct{}, len(p.Layers))
	for i, l := range p.Layers {
		switch _, dup := seen[l.ID]; {
		case l.ID == "":
			warnings = append(warnings, fmt.Sprintf("layer #%d has no id — ignored", i+1))
		case dup:
			warnings = append(warnings, fmt.Sprintf("duplicate layer id %q — later entry ignored", l.ID))
		}
		seen[l.ID] = struct{}{}

		if l.Source == "" {
			warnings = append(warnings, fmt.Sprintf("layer %q has no source image", l.ID))
		} else if _, err := os.Stat(l.Source); err != nil {
			warnings = append(warnings, fmt.Sprintf("layer %q: source %s not found", l.ID, l.Source))
		}
	}

	if p.Selected != "" {
		if _, ok := seen[p.Selected]; !ok {
			warnings = append(warnings, fmt.Sprintf("selected layer %q does not exist", p.Selected))
		}
	}
	return warnings
}

// FormatSummary returns a human-readable description of the project.
func FormatSummary(p *Project) string {
	var s string
	s += fmt.Sprintf("Project: %s (v%s) by %s\n", p.Meta.Name, p.Meta.Version, p.Meta.Author)
	if p.Meta.Description != "" {
		s += p.Meta.Description + "\n"
	}
	s += fmt.Sprintf("\nBase: %s\n", p.Base)
	s += fmt.Sprintf("Export: %s, %s, %d dpi\n", p.Export.Format, p.Export.Resolution, p.Export.DPI)

	s += "\nLayers (bottom to top):\n"
	for _, l := range p.Layers {
		s += fmt.Sprintf("  [%s] %s\n", l.ID, l.Source)
		s += fmt.Sprintf("    %-10s x=%g%% y=%g%% scale=%g%% rotation=%g°\n", "placement:",
			l.Placement.X, l.Placement.Y, l.Placement.Scale, l.Placement.Rotation)
		s += fmt.Sprintf("    %-10s opacity=%g%% blend=%s radius=%g border=%g\n", "style:",
			l.Style.Opacity, l.Style.Blend, l.Style.Radius, l.Style.BorderWidth)
		if l.Plate.Enabled() {
			s += fmt.Sprintf("    %-10s %s padding=%g%%/%g%%\n", "plate:", l.Plate.Type, l.Plate.PaddingX, l.Plate.PaddingY)
		}
	}
	return s
}
