// presets.go — Named output resolutions.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

// ErrUnknownResolution is returned for resolution names outside the table.
var ErrUnknownResolution = errors.New("unknown resolution")

// Resolution selects the output size of an export.
type Resolution uint8

const (
	Original     Resolution = iota // native size of the base image
	SocialSquare                   // 1080×1080
	FullHD                         // 1920×1080
	UHD4K                          // 3840×2160
	A4At300DPI                     // 2480×3508
)

var resolutions = [...]struct {
	name string
	w, h int
}{
	Original:     {"original", 0, 0},
	SocialSquare: {"social-square", 1080, 1080},
	FullHD:       {"full-hd", 1920, 1080},
	UHD4K:        {"4k-uhd", 3840, 2160},
	A4At300DPI:   {"a4-300dpi", 2480, 3508},
}

// Resolutions lists every preset in display order.
func Resolutions() []Resolution {
	rs := make([]Resolution, len(resolutions))
	for i := range rs {
		rs[i] = Resolution(i)
	}
	return rs
}

// ParseResolution maps a preset name to a Resolution. The empty string
// selects Original.
func ParseResolution(s string) (Resolution, error) {
	if s == "" {
		return Original, nil
	}
	for i, r := range resolutions {
		if r.name == s {
			return Resolution(i), nil
		}
	}
	return Original, fmt.Errorf("%w: %q", ErrUnknownResolution, s)
}

func (r Resolution) String() string {
	if int(r) < len(resolutions) {
		return resolutions[r].name
	}
	return fmt.Sprintf("Resolution(%d)", r)
}

// Dimensions returns the fixed size of the preset. ok is false for
// Original, whose size comes from the base image.
func (r Resolution) Dimensions() (w, h int, ok bool) {
	if r == Original || int(r) >= len(resolutions) {
		return 0, 0, false
	}
	p := resolutions[r]
	return p.w, p.h, true
}

// Size resolves the output size against base. It fails with ErrNoBase
// when the size depends on a base image that is missing.
func (r Resolution) Size(base image.Image) (w, h int, err error) {
	if w, h, ok := r.Dimensions(); ok {
		return w, h, nil
	}
	if base == nil || base.Bounds().Empty() {
		return 0, 0, ErrNoBase
	}
	b := base.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Resolution) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseResolution(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
