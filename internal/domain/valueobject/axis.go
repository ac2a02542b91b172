package valueobject

import (
	"fmt"
	"strings"
)

// Dimension names one of the three extents of a box.
type Dimension int

// Supported dimensions. The iteration order Width, Height, Length is used by
// every scan that picks an extreme dimension.
const (
	Width  Dimension = iota // x-axis
	Height                  // y-axis
	Length                  // z-axis
)

// Axis names one of the three spatial axes.
type Axis int

// Supported axes.
const (
	X Axis = iota
	Y
	Z
)

// axisTable is the single source of truth for the axis/dimension bijection.
// Both Axis and Dimension values index into it.
var axisTable = [...]struct {
	axis      Axis
	dimension Dimension
	axisName  string
	dimName   string
}{
	{X, Width, "x", "width"},
	{Y, Height, "y", "height"},
	{Z, Length, "z", "length"},
}

// allDimensions is the canonical scan order.
var allDimensions = []Dimension{Width, Height, Length}

// AllDimensions returns every dimension in canonical order.
func AllDimensions() []Dimension {
	out := make([]Dimension, len(allDimensions))
	copy(out, allDimensions)
	return out
}

// Valid reports whether d is one of Width, Height or Length.
func (d Dimension) Valid() bool {
	return d >= Width && d <= Length
}

// Axis returns the axis d is measured along.
func (d Dimension) Axis() Axis {
	return axisTable[d].axis
}

// String returns the lowercase dimension name.
func (d Dimension) String() string {
	if !d.Valid() {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return axisTable[d].dimName
}

// ParseDimension converts a name such as "width" into a Dimension.
//
// Parameters:
//   - s: dimension name (case-insensitive)
//
// Returns:
//   - Dimension: the parsed dimension
//   - error: ErrUnknownDimension if the name is not recognised
func ParseDimension(s string) (Dimension, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, row := range axisTable {
		if row.dimName == name {
			return row.dimension, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Valid reports whether a is one of X, Y or Z.
func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// Dimension returns the dimension measured along a.
func (a Axis) Dimension() Dimension {
	return axisTable[a].dimension
}

// String returns the lowercase axis name.
func (a Axis) String() string {
	if !a.Valid() {
		return fmt.Sprintf("axis(%d)", int(a))
	}
	return axisTable[a].axisName
}

// ParseAxis converts a name such as "z" into an Axis.
func ParseAxis(s string) (Axis, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, row := range axisTable {
		if row.axisName == name {
			return row.axis, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Face is an unordered pair of two distinct axes.
type Face int

// Supported faces.
const (
	FaceXY Face = iota
	FaceXZ
	FaceYZ
)

// NewFace builds the face spanned by two distinct axes. Order does not matter.
//
// Parameters:
//   - a: first axis
//   - b: second axis
//
// Returns:
//   - Face: the face spanned by a and b
//   - error: ErrInvalidFace if the axes are equal or unknown
func NewFace(a, b Axis) (Face, error) {
	if !a.Valid() || !b.Valid() || a == b {
		return 0, fmt.Errorf("%w: %s%s", ErrInvalidFace, a, b)
	}
	if a > b {
		a, b = b, a
	}
	switch {
	case a == X && b == Y:
		return FaceXY, nil
	case a == X && b == Z:
		return FaceXZ, nil
	default:
		return FaceYZ, nil
	}
}

// Axes returns the two axes spanning f.
func (f Face) Axes() (Axis, Axis) {
	switch f {
	case FaceXZ:
		return X, Z
	case FaceYZ:
		return Y, Z
	default:
		return X, Y
	}
}

// String returns the face as its two axis names, e.g. "xy".
func (f Face) String() string {
	a, b := f.Axes()
	return a.String() + b.String()
}
