package entity

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// Placement is the absolute position of one box of a tree.
type Placement struct {
	// Path lists child indices from the root down to this box. Empty for the root.
	Path []int

	// Depth is len(Path).
	Depth int

	// Dimensions are the raw extents of the box.
	Dimensions valueobject.Dimensions

	// Margin is the clearance around the box.
	Margin float64

	// Bounds is the margin-inclusive space of the box in root coordinates.
	Bounds sdf.Box3
}

// Content returns the space inside the margin.
func (p Placement) Content() sdf.Box3 {
	m := v3.Vec{X: p.Margin, Y: p.Margin, Z: p.Margin}
	return sdf.Box3{Min: p.Bounds.Min.Add(m), Max: p.Bounds.Max.Sub(m)}
}

// Placements flattens the tree into absolute positions, parents before
// children. The root is placed with its minimum corner at origin; each
// box's children start at the inner corner of its margin.
func (b *Box) Placements(origin v3.Vec) []Placement {
	out := make([]Placement, 0, b.Count())
	b.place(origin, nil, &out)
	return out
}

func (b *Box) place(origin v3.Vec, path []int, out *[]Placement) {
	*out = append(*out, Placement{
		Path:       path,
		Depth:      len(path),
		Dimensions: b.dims,
		Margin:     b.margin,
		Bounds:     b.Bounds(origin),
	})

	inner := origin.Add(v3.Vec{X: b.margin, Y: b.margin, Z: b.margin})
	for i, local := range b.childOrigins() {
		childPath := make([]int, len(path)+1)
		copy(childPath, path)
		childPath[len(path)] = i
		b.children[i].place(inner.Add(local), childPath, out)
	}
}
