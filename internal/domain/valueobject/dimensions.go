// Package valueobject contains value objects that represent concepts without identity.
// Value objects are compared by their attributes rather than identity and
// validate their own data upon creation.
//
// The geometry value objects in this package follow these principles:
//   - Self-validation: a Dimensions value is never negative.
//   - Copy on read: Plain and Transform hand out detached copies.
//   - In-place mutators validate before they apply, so a failed call changes nothing.
package valueobject

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultUnit is the size the largest dimension is scaled to by Normalize
// when callers have no preference.
const DefaultUnit = 1.0

// PlainDimensions is a detached copy of the three extents of a box.
// It carries no validation and is safe to mutate.
type PlainDimensions struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
	Length float64 `json:"length" toml:"length"`
}

// DimensionsUpdate lists the extents to overwrite. Nil fields are left unchanged.
type DimensionsUpdate struct {
	Width  *float64
	Height *float64
	Length *float64
}

// Dimensions represents the extents of an axis-aligned box along the
// x (width), y (height) and z (length) axes. Extents are always non-negative.
//
// Example usage:
//
//	d, err := valueobject.NewDimensions(3, 2, 1)
//	d.MakeLongest(valueobject.Height) // 2x3x1
type Dimensions struct {
	width  float64
	height float64
	length float64
}

// NewDimensions creates a new Dimensions value object.
//
// Parameters:
//   - width: extent along the x-axis
//   - height: extent along the y-axis
//   - length: extent along the z-axis
//
// Returns:
//   - Dimensions: the created value object
//   - error: a *ValidationError if any extent is negative or NaN
func NewDimensions(width, height, length float64) (Dimensions, error) {
	if err := validatePlain(PlainDimensions{Width: width, Height: height, Length: length}); err != nil {
		return Dimensions{}, err
	}
	return Dimensions{width: width, height: height, length: length}, nil
}

// MustNewDimensions is like NewDimensions but panics on invalid input.
// Intended for constants and fixtures.
func MustNewDimensions(width, height, length float64) Dimensions {
	d, err := NewDimensions(width, height, length)
	if err != nil {
		panic(err)
	}
	return d
}

// FromPlain validates p and converts it into Dimensions.
func FromPlain(p PlainDimensions) (Dimensions, error) {
	return NewDimensions(p.Width, p.Height, p.Length)
}

func validatePlain(p PlainDimensions) error {
	for _, d := range allDimensions {
		v := p.get(d)
		if v < 0 || math.IsNaN(v) {
			return NewValidationError(d.String(), v, ErrNegativeDimension)
		}
	}
	return nil
}

func (p PlainDimensions) get(d Dimension) float64 {
	switch d {
	case Width:
		return p.Width
	case Height:
		return p.Height
	default:
		return p.Length
	}
}

// Width returns the extent along the x-axis.
func (d Dimensions) Width() float64 { return d.width }

// Height returns the extent along the y-axis.
func (d Dimensions) Height() float64 { return d.height }

// Length returns the extent along the z-axis.
func (d Dimensions) Length() float64 { return d.length }

// Get returns the value of the named dimension.
func (d Dimensions) Get(dim Dimension) float64 {
	switch dim {
	case Width:
		return d.width
	case Height:
		return d.height
	case Length:
		return d.length
	}
	panic(fmt.Errorf("%w: %d", ErrUnknownDimension, int(dim)))
}

// AlongAxis returns the extent measured along axis a.
func (d Dimensions) AlongAxis(a Axis) float64 {
	return d.Get(a.Dimension())
}

func (d *Dimensions) set(dim Dimension, v float64) {
	switch dim {
	case Width:
		d.width = v
	case Height:
		d.height = v
	case Length:
		d.length = v
	}
}

// Plain returns a detached copy of the three extents.
func (d Dimensions) Plain() PlainDimensions {
	return PlainDimensions{Width: d.width, Height: d.height, Length: d.length}
}

// Vec returns the extents as a vector (width, height, length).
func (d Dimensions) Vec() v3.Vec {
	return v3.Vec{X: d.width, Y: d.height, Z: d.length}
}

// compareSet returns the dimensions to scan in canonical order, restricted to
// compare when it is non-empty. Duplicates and unknown values are dropped.
func compareSet(compare []Dimension) []Dimension {
	if len(compare) == 0 {
		return allDimensions
	}
	var want [3]bool
	for _, c := range compare {
		if c.Valid() {
			want[c] = true
		}
	}
	out := make([]Dimension, 0, 3)
	for _, dim := range allDimensions {
		if want[dim] {
			out = append(out, dim)
		}
	}
	if len(out) == 0 {
		return allDimensions
	}
	return out
}

// LongestDimension returns the dimension with the largest value among compare
// (all three when compare is empty). Ties go to the earliest dimension in the
// order Width, Height, Length.
func (d Dimensions) LongestDimension(compare ...Dimension) Dimension {
	set := compareSet(compare)
	longest := set[0]
	for _, dim := range set[1:] {
		if d.Get(dim) > d.Get(longest) {
			longest = dim
		}
	}
	return longest
}

// ShortestDimension returns the dimension with the smallest value among compare
// (all three when compare is empty). Ties go to the earliest dimension in the
// order Width, Height, Length.
func (d Dimensions) ShortestDimension(compare ...Dimension) Dimension {
	set := compareSet(compare)
	shortest := set[0]
	for _, dim := range set[1:] {
		if d.Get(dim) < d.Get(shortest) {
			shortest = dim
		}
	}
	return shortest
}

// CheckSwap reports whether a and b form a valid swap pair.
func CheckSwap(a, b Dimension) error {
	if !a.Valid() || !b.Valid() || a == b {
		return fmt.Errorf("%w: %s/%s", ErrInvalidSwap, a, b)
	}
	return nil
}

// Swap exchanges the values of two distinct dimensions in place.
//
// Note: Panics if a and b are equal or unknown. Use SwapSafe for error handling.
func (d *Dimensions) Swap(a, b Dimension) *Dimensions {
	if err := d.SwapSafe(a, b); err != nil {
		panic(err)
	}
	return d
}

// SwapSafe exchanges the values of two distinct dimensions in place.
//
// Returns:
//   - error: ErrInvalidSwap if a and b are equal or unknown
func (d *Dimensions) SwapSafe(a, b Dimension) error {
	if err := CheckSwap(a, b); err != nil {
		return err
	}
	va, vb := d.Get(a), d.Get(b)
	d.set(a, vb)
	d.set(b, va)
	return nil
}

// MakeLongest moves the longest dimension among compare into dim.
// Nothing changes when dim already holds the longest value.
func (d *Dimensions) MakeLongest(dim Dimension, compare ...Dimension) *Dimensions {
	if longest := d.LongestDimension(compare...); longest != dim {
		d.Swap(longest, dim)
	}
	return d
}

// MakeShortest moves the shortest dimension among compare into dim.
// Nothing changes when dim already holds the shortest value.
func (d *Dimensions) MakeShortest(dim Dimension, compare ...Dimension) *Dimensions {
	if shortest := d.ShortestDimension(compare...); shortest != dim {
		d.Swap(shortest, dim)
	}
	return d
}

// Volume calculates width * height * length.
func (d Dimensions) Volume() float64 {
	return d.width * d.height * d.length
}

// SurfaceArea returns the total surface area of the prism.
func (d Dimensions) SurfaceArea() float64 {
	return 2 * (d.FaceArea(FaceXY) + d.FaceArea(FaceYZ) + d.FaceArea(FaceXZ))
}

// FaceArea returns the area of a single face.
func (d Dimensions) FaceArea(f Face) float64 {
	a, b := f.Axes()
	return d.AlongAxis(a) * d.AlongAxis(b)
}

// Perimeter returns 4 * (width + height + length).
//
// This is the summed edge length of the prism, not the perimeter of any
// single face. It is kept in this form because callers compare boxes by it.
func (d Dimensions) Perimeter() float64 {
	return 4 * (d.width + d.height + d.length)
}

// FacePerimeter returns the rectangular perimeter of a single face.
func (d Dimensions) FacePerimeter(f Face) float64 {
	a, b := f.Axes()
	return 2 * (d.AlongAxis(a) + d.AlongAxis(b))
}

// Update overwrites the supplied extents. The result is validated before
// anything is written.
//
// Parameters:
//   - u: the extents to overwrite
//
// Returns:
//   - error: a *ValidationError if the result would be invalid
func (d *Dimensions) Update(u DimensionsUpdate) error {
	next := d.Plain()
	if u.Width != nil {
		next.Width = *u.Width
	}
	if u.Height != nil {
		next.Height = *u.Height
	}
	if u.Length != nil {
		next.Length = *u.Length
	}
	return d.apply(next)
}

func (d *Dimensions) apply(p PlainDimensions) error {
	if err := validatePlain(p); err != nil {
		return err
	}
	d.width, d.height, d.length = p.Width, p.Height, p.Length
	return nil
}

// Transform calls fn with a copy of d and applies the returned extents.
// Changes fn makes to its argument are never visible on d.
func (d *Dimensions) Transform(fn func(Dimensions) PlainDimensions) error {
	return d.apply(fn(*d))
}

// CheckScaleFactor validates a scale factor.
func CheckScaleFactor(factor float64) error {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return NewValidationError("factor", factor, ErrInvalidScaleFactor)
	}
	return nil
}

// Scale multiplies every extent by factor.
//
// Returns:
//   - error: a *ValidationError if factor is negative, NaN or infinite
func (d *Dimensions) Scale(factor float64) error {
	if err := CheckScaleFactor(factor); err != nil {
		return err
	}
	return d.Transform(func(c Dimensions) PlainDimensions {
		return PlainDimensions{
			Width:  c.width * factor,
			Height: c.height * factor,
			Length: c.length * factor,
		}
	})
}

// Max returns the largest extent.
func (d Dimensions) Max() float64 {
	return math.Max(d.width, math.Max(d.height, d.length))
}

// Normalize scales d so its largest extent becomes unit, keeping proportions.
//
// Returns:
//   - error: ErrDegenerateGeometry if every extent is zero,
//     a *ValidationError if unit is negative
func (d *Dimensions) Normalize(unit float64) error {
	largest := d.Max()
	if largest == 0 {
		return ErrDegenerateGeometry
	}
	if err := CheckScaleFactor(unit); err != nil {
		return err
	}
	return d.Transform(func(c Dimensions) PlainDimensions {
		return PlainDimensions{
			Width:  c.width / largest * unit,
			Height: c.height / largest * unit,
			Length: c.length / largest * unit,
		}
	})
}

// Bounds returns the box occupied by d with its minimum corner at origin.
func (d Dimensions) Bounds(origin v3.Vec) sdf.Box3 {
	return sdf.Box3{Min: origin, Max: origin.Add(d.Vec())}
}

// IsEmpty checks if all dimensions are zero.
func (d Dimensions) IsEmpty() bool {
	return d.width == 0 && d.height == 0 && d.length == 0
}

// Equal reports whether two values have the same extents.
func (d Dimensions) Equal(other Dimensions) bool {
	return d == other
}

// String returns a formatted representation (e.g., "3.0x2.0x1.0").
func (d Dimensions) String() string {
	return fmt.Sprintf("%.1fx%.1fx%.1f", d.width, d.height, d.length)
}

// MarshalJSON encodes d as its plain form.
func (d Dimensions) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Plain())
}

// UnmarshalJSON decodes and validates a plain form.
func (d *Dimensions) UnmarshalJSON(data []byte) error {
	var p PlainDimensions
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	return d.apply(p)
}
