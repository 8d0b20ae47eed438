// enums.go — Closed style variants: blend modes and plate types.
package poster

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownBlend = errors.New("unknown blend mode")
	ErrUnknownPlate = errors.New("unknown plate type")
)

// BlendMode selects the function that combines a layer with the pixels
// beneath it.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendSoftLight
	BlendDifference
	BlendLuminosity
)

var blendNames = [...]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendColorDodge: "color-dodge",
	BlendSoftLight:  "soft-light",
	BlendDifference: "difference",
	BlendLuminosity: "luminosity",
}

// BlendModes lists every supported mode in declaration order.
func BlendModes() []BlendMode {
	modes := make([]BlendMode, len(blendNames))
	for i := range blendNames {
		modes[i] = BlendMode(i)
	}
	return modes
}

// ParseBlendMode maps a CSS-style name to a BlendMode.
// The empty string means normal.
func ParseBlendMode(s string) (BlendMode, error) {
	if s == "" {
		return BlendNormal, nil
	}
	for i, name := range blendNames {
		if name == s {
			return BlendMode(i), nil
		}
	}
	return BlendNormal, fmt.Errorf("%w %q", ErrUnknownBlend, s)
}

func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", m)
}

func (m BlendMode) MarshalJSON() ([]byte, error) {
	if int(m) >= len(blendNames) {
		return nil, fmt.Errorf("%w %d", ErrUnknownBlend, m)
	}
	return json.Marshal(m.String())
}

func (m *BlendMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseBlendMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// PlateType selects the background card drawn behind a layer.
type PlateType uint8

const (
	PlateNone PlateType = iota
	PlateWhite
)

// ParsePlateType accepts "none", "white" and "solid-white".
// The empty string means none.
func ParsePlateType(s string) (PlateType, error) {
	switch s {
	case "", "none":
		return PlateNone, nil
	case "white", "solid-white":
		return PlateWhite, nil
	}
	return PlateNone, fmt.Errorf("%w %q", ErrUnknownPlate, s)
}

func (p PlateType) String() string {
	switch p {
	case PlateNone:
		return "none"
	case PlateWhite:
		return "white"
	}
	return fmt.Sprintf("PlateType(%d)", p)
}

func (p PlateType) MarshalJSON() ([]byte, error) {
	if p > PlateWhite {
		return nil, fmt.Errorf("%w %d", ErrUnknownPlate, p)
	}
	return json.Marshal(p.String())
}

func (p *PlateType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	plate, err := ParsePlateType(s)
	if err != nil {
		return err
	}
	*p = plate
	return nil
}
