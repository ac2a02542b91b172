package entity

import (
	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// BoxSnapshot is the exported, serializable form of a Box tree.
// It is used by transport and storage adapters.
type BoxSnapshot struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Length    float64       `json:"length"`
	Margin    float64       `json:"margin,omitempty"`
	StackAxis string        `json:"stack_axis,omitempty"`
	Children  []BoxSnapshot `json:"children,omitempty"`
}

// Snapshot returns a detached copy of the tree rooted at b.
func (b *Box) Snapshot() BoxSnapshot {
	s := BoxSnapshot{
		Width:     b.dims.Width(),
		Height:    b.dims.Height(),
		Length:    b.dims.Length(),
		Margin:    b.margin,
		StackAxis: b.stackAxis.String(),
	}
	if len(b.children) > 0 {
		s.Children = make([]BoxSnapshot, len(b.children))
		for i, c := range b.children {
			s.Children[i] = c.Snapshot()
		}
	}
	return s
}

// BoxFromSnapshot rebuilds and validates a Box tree.
// An empty stack axis defaults to z.
//
// Returns:
//   - *Box: the rebuilt tree
//   - error: a *valueobject.ValidationError or valueobject.ErrUnknownAxis
func BoxFromSnapshot(s BoxSnapshot) (*Box, error) {
	dims, err := valueobject.NewDimensions(s.Width, s.Height, s.Length)
	if err != nil {
		return nil, err
	}

	axis := valueobject.Z
	if s.StackAxis != "" {
		if axis, err = valueobject.ParseAxis(s.StackAxis); err != nil {
			return nil, err
		}
	}

	children := make([]*Box, 0, len(s.Children))
	for _, cs := range s.Children {
		c, err := BoxFromSnapshot(cs)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}

	b, err := NewBox(dims, s.Margin, children...)
	if err != nil {
		return nil, err
	}
	b.stackAxis = axis
	return b, nil
}
