// stack.go — Ordered, copy-on-write layer list.
package poster

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrDuplicateID = errors.New("duplicate layer id")
	ErrNoLayer     = errors.New("no such layer")
	ErrEmptyID     = errors.New("layer id is empty")
)

// Stack is an ordered list of layers; later entries draw on top.
// Operations never modify the receiver, they return a new Stack.
type Stack struct {
	layers []Layer
}

// NewStack builds a stack from layers, clamping each one.
// Layer IDs must be unique and non-empty.
func NewStack(layers ...Layer) (Stack, error) {
	var s Stack
	for _, l := range layers {
		var err error
		if s, err = s.Add(l); err != nil {
			return Stack{}, err
		}
	}
	return s, nil
}

// Len returns the number of layers.
func (s Stack) Len() int {
	return len(s.layers)
}

// Snapshot returns the layers in paint order. The slice is a copy.
func (s Stack) Snapshot() []Layer {
	return slices.Clone(s.layers)
}

// Find returns the layer with the given id.
func (s Stack) Find(id string) (Layer, bool) {
	i := s.index(id)
	if i < 0 {
		return Layer{}, false
	}
	return s.layers[i], true
}

// Add appends l on top of the stack.
func (s Stack) Add(l Layer) (Stack, error) {
	if l.ID == "" {
		return s, ErrEmptyID
	}
	if s.index(l.ID) >= 0 {
		return s, fmt.Errorf("%w %q", ErrDuplicateID, l.ID)
	}
	layers := make([]Layer, len(s.layers), len(s.layers)+1)
	copy(layers, s.layers)
	return Stack{layers: append(layers, l.Clamp())}, nil
}

// Update replaces the layer id with fn(layer). The result is clamped and
// keeps the original id.
func (s Stack) Update(id string, fn func(Layer) Layer) (Stack, error) {
	i := s.index(id)
	if i < 0 {
		return s, fmt.Errorf("%w %q", ErrNoLayer, id)
	}
	layers := slices.Clone(s.layers)
	l := fn(layers[i]).Clamp()
	l.ID = id
	layers[i] = l
	return Stack{layers: layers}, nil
}

// Remove drops the layer id.
func (s Stack) Remove(id string) (Stack, error) {
	i := s.index(id)
	if i < 0 {
		return s, fmt.Errorf("%w %q", ErrNoLayer, id)
	}
	return Stack{layers: slices.Delete(slices.Clone(s.layers), i, i+1)}, nil
}

// Move shifts the layer id by delta positions in paint order; positive
// values bring it towards the top. The position is limited to the stack.
func (s Stack) Move(id string, delta int) (Stack, error) {
	i := s.index(id)
	if i < 0 {
		return s, fmt.Errorf("%w %q", ErrNoLayer, id)
	}
	j := min(max(i+delta, 0), len(s.layers)-1)
	if i == j {
		return s, nil
	}
	layers := slices.Clone(s.layers)
	l := layers[i]
	layers = slices.Delete(layers, i, i+1)
	layers = slices.Insert(layers, j, l)
	return Stack{layers: layers}, nil
}

func (s Stack) index(id string) int {
	return slices.IndexFunc(s.layers, func(l Layer) bool { return l.ID == id })
}
