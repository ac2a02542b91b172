// Package entity contains the core entities of the domain layer.
package entity

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// Box errors define domain-specific error conditions for boxes.
var (
	ErrInvalidChild = errors.New("child must be a non-nil box other than its parent")
)

// Box is a rectangular prism with a margin and an ordered list of children.
// A box owns its children exclusively; every structural mutation applied to
// a box is mirrored through its whole subtree.
//
// Children are stacked one after another along the box's stack axis, which
// is Z for every freshly packed box and follows any later reorientation.
//
// Example usage:
//
//	item := entity.From(valueobject.MustNewDimensions(3, 2, 1))
//	parent := entity.FromChildren([]*entity.Box{item, item})
//	positions := parent.ChildPositions()
type Box struct {
	dims      valueobject.Dimensions
	margin    float64
	stackAxis valueobject.Axis
	children  []*Box
}

// BoxValues is what a Transform callback returns for each box.
type BoxValues struct {
	Dimensions valueobject.PlainDimensions
	Margin     float64
}

// ChildPosition is the placement of one direct child inside its parent's
// local coordinate space, together with the child's own child positions.
// Offsets run along the parent's stack axis, which is not always z.
type ChildPosition struct {
	// Bounds is the margin-inclusive space occupied by the child.
	Bounds sdf.Box3

	// Children holds the positions of the child's children, relative to the
	// child's own origin.
	Children []ChildPosition
}

// NewBox creates a new Box. Ownership of children passes to the new box.
//
// Parameters:
//   - dims: raw extents of the box
//   - margin: clearance added on both sides of every axis (must be non-negative)
//   - children: boxes stacked inside this box, in order
//
// Returns:
//   - *Box: the created box
//   - error: a *valueobject.ValidationError for a bad margin, ErrInvalidChild for nil children
func NewBox(dims valueobject.Dimensions, margin float64, children ...*Box) (*Box, error) {
	if err := checkMargin(margin); err != nil {
		return nil, err
	}
	b := &Box{dims: dims, margin: margin, stackAxis: valueobject.Z}
	if err := b.AddChildren(children...); err != nil {
		return nil, err
	}
	return b, nil
}

// From creates a childless box with no margin.
func From(dims valueobject.Dimensions) *Box {
	return &Box{dims: dims, stackAxis: valueobject.Z}
}

func checkMargin(margin float64) error {
	if margin < 0 || math.IsNaN(margin) {
		return valueobject.NewValidationError("margin", margin, valueobject.ErrNegativeDimension)
	}
	return nil
}

// FromChildren packs copies of children into the smallest box that stacks
// them end to end along its length. The inputs are never modified; nil
// entries are skipped.
//
// Each copy is first turned so its longest extent points up (height) and the
// shortest of what remains lies along the stacking axis (length). The parent
// is as wide and tall as its widest and tallest child and as long as all
// children together, margins included. Finally the parent is turned so its
// length is not shorter than its width.
func FromChildren(children []*Box) *Box {
	packed := make([]*Box, 0, len(children))
	var width, height, length float64

	for _, child := range children {
		if child == nil {
			continue
		}
		c := child.Clone()
		c.MakeLongest(valueobject.Height).MakeShortest(valueobject.Length)

		eff := c.DimensionsWithMarginApplied()
		width = max(width, eff.Width())
		height = max(height, eff.Height())
		length += eff.Length()

		packed = append(packed, c)
	}

	parent := &Box{
		dims:      valueobject.MustNewDimensions(width, height, length),
		stackAxis: valueobject.Z,
		children:  packed,
	}
	return parent.MakeLongest(valueobject.Length, valueobject.Width, valueobject.Length)
}

// Dimensions returns the raw extents of the box.
func (b *Box) Dimensions() valueobject.Dimensions { return b.dims }

// Width returns the raw extent along the x-axis.
func (b *Box) Width() float64 { return b.dims.Width() }

// Height returns the raw extent along the y-axis.
func (b *Box) Height() float64 { return b.dims.Height() }

// Length returns the raw extent along the z-axis.
func (b *Box) Length() float64 { return b.dims.Length() }

// Margin returns the clearance applied on both sides of every axis.
func (b *Box) Margin() float64 { return b.margin }

// StackAxis returns the axis children are stacked along.
func (b *Box) StackAxis() valueobject.Axis { return b.stackAxis }

// Plain returns a detached copy of the raw extents.
func (b *Box) Plain() valueobject.PlainDimensions { return b.dims.Plain() }

// Volume returns the raw volume.
func (b *Box) Volume() float64 { return b.dims.Volume() }

// SurfaceArea returns the raw total surface area.
func (b *Box) SurfaceArea() float64 { return b.dims.SurfaceArea() }

// FaceArea returns the raw area of a single face.
func (b *Box) FaceArea(f valueobject.Face) float64 { return b.dims.FaceArea(f) }

// Perimeter returns 4 * (width + height + length) of the raw extents.
func (b *Box) Perimeter() float64 { return b.dims.Perimeter() }

// FacePerimeter returns the raw perimeter of a single face.
func (b *Box) FacePerimeter(f valueobject.Face) float64 { return b.dims.FacePerimeter(f) }

// LongestDimension returns the longest raw dimension among compare.
func (b *Box) LongestDimension(compare ...valueobject.Dimension) valueobject.Dimension {
	return b.dims.LongestDimension(compare...)
}

// ShortestDimension returns the shortest raw dimension among compare.
func (b *Box) ShortestDimension(compare ...valueobject.Dimension) valueobject.Dimension {
	return b.dims.ShortestDimension(compare...)
}

// DimensionsWithMarginApplied returns the effective footprint of the box:
// every extent grown by the margin on both sides.
func (b *Box) DimensionsWithMarginApplied() valueobject.Dimensions {
	m := 2 * b.margin
	return valueobject.MustNewDimensions(b.dims.Width()+m, b.dims.Height()+m, b.dims.Length()+m)
}

// Children returns deep copies of the direct children, in stacking order.
func (b *Box) Children() []*Box {
	out := make([]*Box, len(b.children))
	for i, c := range b.children {
		out[i] = c.Clone()
	}
	return out
}

// ChildCount returns the number of direct children.
func (b *Box) ChildCount() int { return len(b.children) }

// Count returns the number of boxes in the subtree rooted at b, b included.
func (b *Box) Count() int {
	n := 0
	_ = b.walk(func(*Box) error {
		n++
		return nil
	})
	return n
}

// Depth returns the number of levels below b. A leaf has depth 0.
func (b *Box) Depth() int {
	depth := 0
	for _, c := range b.children {
		depth = max(depth, c.Depth()+1)
	}
	return depth
}

// walk applies fn to b and then to every descendant, parents first.
func (b *Box) walk(fn func(*Box) error) error {
	if err := fn(b); err != nil {
		return err
	}
	for _, c := range b.children {
		if err := c.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// mutate walks a copy of the subtree and commits it only if every step succeeds.
func (b *Box) mutate(fn func(*Box) error) error {
	next := b.Clone()
	if err := next.walk(fn); err != nil {
		return err
	}
	*b = *next
	return nil
}

// Swap exchanges two dimensions on b and every descendant. The stack axis
// moves with the swap so children stay stacked the same way.
//
// Note: Panics if a and b are equal or unknown. Use SwapSafe for error handling.
func (b *Box) Swap(d1, d2 valueobject.Dimension) *Box {
	if err := b.SwapSafe(d1, d2); err != nil {
		panic(err)
	}
	return b
}

// SwapSafe is like Swap but returns ErrInvalidSwap instead of panicking.
func (b *Box) SwapSafe(d1, d2 valueobject.Dimension) error {
	if err := valueobject.CheckSwap(d1, d2); err != nil {
		return err
	}
	a1, a2 := d1.Axis(), d2.Axis()
	return b.walk(func(n *Box) error {
		n.dims.Swap(d1, d2)
		switch n.stackAxis {
		case a1:
			n.stackAxis = a2
		case a2:
			n.stackAxis = a1
		}
		return nil
	})
}

// MakeLongest moves b's longest dimension among compare into dim and
// mirrors the same swap through every descendant.
func (b *Box) MakeLongest(dim valueobject.Dimension, compare ...valueobject.Dimension) *Box {
	if longest := b.dims.LongestDimension(compare...); longest != dim {
		b.Swap(longest, dim)
	}
	return b
}

// MakeShortest moves b's shortest dimension among compare into dim and
// mirrors the same swap through every descendant.
func (b *Box) MakeShortest(dim valueobject.Dimension, compare ...valueobject.Dimension) *Box {
	if shortest := b.dims.ShortestDimension(compare...); shortest != dim {
		b.Swap(shortest, dim)
	}
	return b
}

// Update overwrites the supplied raw extents of b only. Children are untouched.
func (b *Box) Update(u valueobject.DimensionsUpdate) error {
	return b.dims.Update(u)
}

// SetMargin replaces the margin of b only.
func (b *Box) SetMargin(margin float64) error {
	if err := checkMargin(margin); err != nil {
		return err
	}
	b.margin = margin
	return nil
}

// Transform calls fn with a copy of b and of every descendant in turn and
// applies the returned values to the matching box. If any result is invalid
// the whole tree is left as it was.
func (b *Box) Transform(fn func(*Box) BoxValues) error {
	return b.mutate(func(n *Box) error {
		v := fn(n.Clone())
		dims, err := valueobject.FromPlain(v.Dimensions)
		if err != nil {
			return err
		}
		if err := checkMargin(v.Margin); err != nil {
			return err
		}
		n.dims = dims
		n.margin = v.Margin
		return nil
	})
}

// Scale multiplies every extent and margin in the subtree by factor.
func (b *Box) Scale(factor float64) error {
	if err := valueobject.CheckScaleFactor(factor); err != nil {
		return err
	}
	return b.Transform(func(c *Box) BoxValues {
		p := c.Plain()
		return BoxValues{
			Dimensions: valueobject.PlainDimensions{
				Width:  p.Width * factor,
				Height: p.Height * factor,
				Length: p.Length * factor,
			},
			Margin: c.margin * factor,
		}
	})
}

// Normalize scales the subtree so the largest side of b's margin-inclusive
// footprint becomes unit.
//
// Returns:
//   - error: valueobject.ErrDegenerateGeometry if the footprint is zero-sized
func (b *Box) Normalize(unit float64) error {
	largest := b.DimensionsWithMarginApplied().Max()
	if largest == 0 {
		return valueobject.ErrDegenerateGeometry
	}
	if err := valueobject.CheckScaleFactor(unit); err != nil {
		return err
	}
	return b.Scale(unit / largest)
}

// Bounds returns the margin-inclusive space of b with its minimum corner at origin.
func (b *Box) Bounds(origin v3.Vec) sdf.Box3 {
	return b.DimensionsWithMarginApplied().Bounds(origin)
}

// childOrigins returns the minimum corner of each direct child, stacked
// back to back along the stack axis from the local origin.
func (b *Box) childOrigins() []v3.Vec {
	origins := make([]v3.Vec, len(b.children))
	var cursor float64
	for i, c := range b.children {
		origins[i] = onAxis(b.stackAxis, cursor)
		cursor = component(c.Bounds(origins[i]).Max, b.stackAxis)
	}
	return origins
}

// ChildPositions returns where each direct child sits in b's local space.
// Children start at the origin and follow one another along the stack axis;
// the other two min-corner coordinates are 0. A freshly packed box stacks
// along z, but once the box has been turned the stack axis may be x or y,
// so the non-zero offsets then appear on that axis instead of z. The tree is
// not modified.
func (b *Box) ChildPositions() []ChildPosition {
	positions := make([]ChildPosition, len(b.children))
	for i, origin := range b.childOrigins() {
		c := b.children[i]
		positions[i] = ChildPosition{
			Bounds:   c.Bounds(origin),
			Children: c.ChildPositions(),
		}
	}
	return positions
}

// FitsInside reports whether b's margin-inclusive footprint is no larger than
// target's on every axis. A box always fits inside itself.
func (b *Box) FitsInside(target *Box) bool {
	if target == nil {
		return false
	}
	return b.FitsWithin(target.DimensionsWithMarginApplied())
}

// FitsWithin reports whether b's margin-inclusive footprint fits in space
// without reorientation.
func (b *Box) FitsWithin(space valueobject.Dimensions) bool {
	eff := b.DimensionsWithMarginApplied()
	return eff.Width() <= space.Width() &&
		eff.Height() <= space.Height() &&
		eff.Length() <= space.Length()
}

// AddChildren appends children to b in place. The size of b is not
// recomputed; use FromChildren to get a tightly fitting parent.
func (b *Box) AddChildren(children ...*Box) error {
	for _, c := range children {
		if c == nil || c == b {
			return ErrInvalidChild
		}
	}
	b.children = append(b.children, children...)
	return nil
}

// Clone returns a deep copy of b and its whole subtree.
func (b *Box) Clone() *Box {
	c := &Box{dims: b.dims, margin: b.margin, stackAxis: b.stackAxis}
	if len(b.children) > 0 {
		c.children = make([]*Box, len(b.children))
		for i, child := range b.children {
			c.children[i] = child.Clone()
		}
	}
	return c
}

// String returns a short description of the box.
func (b *Box) String() string {
	return fmt.Sprintf("Box(%s margin=%.1f children=%d)", b.dims, b.margin, len(b.children))
}

func onAxis(a valueobject.Axis, v float64) v3.Vec {
	switch a {
	case valueobject.X:
		return v3.Vec{X: v}
	case valueobject.Y:
		return v3.Vec{Y: v}
	default:
		return v3.Vec{Z: v}
	}
}

func component(v v3.Vec, a valueobject.Axis) float64 {
	switch a {
	case valueobject.X:
		return v.X
	case valueobject.Y:
		return v.Y
	default:
		return v.Z
	}
}
