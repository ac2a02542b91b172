package dto

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// ErrPackWithoutChildren is returned for a packed box with nothing to pack.
var ErrPackWithoutChildren = errors.New("packed box needs at least one child")

// BoxRequest describes a box tree submitted by a client or read from a file.
//
// A box with Pack set takes its size from its children, which are packed
// the same way a layout packs its items; its own extents are ignored.
type BoxRequest struct {
	// Width is the extent along X.
	Width float64 `json:"width" toml:"width"`

	// Height is the extent along Y.
	Height float64 `json:"height" toml:"height"`

	// Length is the extent along Z.
	Length float64 `json:"length" toml:"length"`

	// Margin is the clearance kept around the box.
	Margin float64 `json:"margin,omitempty" toml:"margin"`

	// Pack sizes the box to fit its children.
	Pack bool `json:"pack,omitempty" toml:"pack"`

	// Children are nested boxes in stacking order.
	Children []BoxRequest `json:"children,omitempty" toml:"children"`
}

// FieldError locates a validation failure inside a request tree.
type FieldError struct {
	// Path is the dotted location of the field, e.g. "items[0].children[1].width".
	Path string

	// Err is the underlying domain error.
	Err error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the domain error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ToBox builds the entity tree described by r.
//
// Parameters:
//   - path: location of r in the request, used in error paths
//
// Returns:
//   - *entity.Box: the built tree
//   - error: a *FieldError wrapping the domain validation error
func (r BoxRequest) ToBox(path string) (*entity.Box, error) {
	children := make([]*entity.Box, len(r.Children))
	for i, c := range r.Children {
		child, err := c.ToBox(fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children[i] = child
	}

	if r.Pack {
		if len(children) == 0 {
			return nil, &FieldError{Path: path + ".children", Err: ErrPackWithoutChildren}
		}
		b := entity.FromChildren(children)
		if err := b.SetMargin(r.Margin); err != nil {
			return nil, fieldError(path, err)
		}
		return b, nil
	}

	dims, err := valueobject.NewDimensions(r.Width, r.Height, r.Length)
	if err != nil {
		return nil, fieldError(path, err)
	}
	b, err := entity.NewBox(dims, r.Margin, children...)
	if err != nil {
		return nil, fieldError(path, err)
	}
	return b, nil
}

func fieldError(path string, err error) *FieldError {
	var ve *valueobject.ValidationError
	if errors.As(err, &ve) {
		return &FieldError{Path: path + "." + ve.Field, Err: err}
	}
	return &FieldError{Path: path, Err: err}
}

// BoxesFromRequests builds one tree per request.
func BoxesFromRequests(prefix string, reqs []BoxRequest) ([]*entity.Box, error) {
	boxes := make([]*entity.Box, len(reqs))
	for i, r := range reqs {
		b, err := r.ToBox(fmt.Sprintf("%s[%d]", prefix, i))
		if err != nil {
			return nil, err
		}
		boxes[i] = b
	}
	return boxes, nil
}

// PackRequest asks for a new layout.
type PackRequest struct {
	// Name labels the layout.
	Name string `json:"name" toml:"name"`

	// Items are packed in order.
	Items []BoxRequest `json:"items" toml:"items"`

	// Normalize, when set, scales the container so its largest side equals it.
	Normalize *float64 `json:"normalize,omitempty" toml:"normalize"`
}

// AddItemsRequest appends items to a layout.
type AddItemsRequest struct {
	Items []BoxRequest `json:"items"`
}

// NormalizeRequest rescales a layout. A nil Unit uses the configured default.
type NormalizeRequest struct {
	Unit *float64 `json:"unit,omitempty"`
}

// FitRequest asks whether Box fits inside Container.
type FitRequest struct {
	// Box is the candidate.
	Box BoxRequest `json:"box" toml:"box"`

	// Container is the space to fit into.
	Container BoxRequest `json:"container" toml:"container"`

	// AllowRotation also accepts any axis-aligned reorientation of Box.
	AllowRotation bool `json:"allow_rotation,omitempty" toml:"allow_rotation"`
}

// DimensionsResponse is a plain width/height/length triple.
type DimensionsResponse struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
}

// FromDimensions converts domain dimensions.
func FromDimensions(d valueobject.Dimensions) DimensionsResponse {
	return DimensionsResponse{Width: d.Width(), Height: d.Height(), Length: d.Length()}
}

// FitResponse answers a FitRequest.
type FitResponse struct {
	// Fits is true if the box fits in the orientation given.
	Fits bool `json:"fits"`

	// FitsRotated is true if some axis-aligned orientation fits. Only set
	// when rotation was allowed.
	FitsRotated *bool `json:"fits_rotated,omitempty"`

	// Box is the candidate's margin-inclusive footprint.
	Box DimensionsResponse `json:"box"`

	// Container is the container's margin-inclusive footprint.
	Container DimensionsResponse `json:"container"`
}

// PointResponse is a point in layout coordinates.
type PointResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func fromVec(v v3.Vec) PointResponse {
	return PointResponse{X: v.X, Y: v.Y, Z: v.Z}
}

// BoundsResponse is an axis-aligned min/max pair.
type BoundsResponse struct {
	Min PointResponse `json:"min"`
	Max PointResponse `json:"max"`
}

func fromBox3(b sdf.Box3) BoundsResponse {
	return BoundsResponse{Min: fromVec(b.Min), Max: fromVec(b.Max)}
}

// PositionResponse is a child position relative to its parent.
type PositionResponse struct {
	BoundsResponse
	Children []PositionResponse `json:"children,omitempty"`
}

// FromPositions converts nested child positions.
func FromPositions(ps []entity.ChildPosition) []PositionResponse {
	out := make([]PositionResponse, len(ps))
	for i, p := range ps {
		out[i] = PositionResponse{BoundsResponse: fromBox3(p.Bounds)}
		if len(p.Children) > 0 {
			out[i].Children = FromPositions(p.Children)
		}
	}
	return out
}

// PlacementResponse is one box of a layout in absolute coordinates.
type PlacementResponse struct {
	Path       []int              `json:"path"`
	Depth      int                `json:"depth"`
	Dimensions DimensionsResponse `json:"dimensions"`
	Margin     float64            `json:"margin,omitempty"`
	Bounds     BoundsResponse     `json:"bounds"`
}

// FromPlacements converts flattened placements.
func FromPlacements(ps []entity.Placement) []PlacementResponse {
	out := make([]PlacementResponse, len(ps))
	for i, p := range ps {
		path := p.Path
		if path == nil {
			path = []int{}
		}
		out[i] = PlacementResponse{
			Path:       path,
			Depth:      p.Depth,
			Dimensions: FromDimensions(p.Dimensions),
			Margin:     p.Margin,
			Bounds:     fromBox3(p.Bounds),
		}
	}
	return out
}

// BoxResponse is a box tree as returned to clients.
type BoxResponse struct {
	DimensionsResponse
	Margin    float64       `json:"margin,omitempty"`
	StackAxis string        `json:"stack_axis"`
	Children  []BoxResponse `json:"children,omitempty"`
}

// FromBox converts a box tree.
func FromBox(b *entity.Box) BoxResponse {
	resp := BoxResponse{
		DimensionsResponse: FromDimensions(b.Dimensions()),
		Margin:             b.Margin(),
		StackAxis:          b.StackAxis().String(),
	}
	for _, c := range b.Children() {
		resp.Children = append(resp.Children, FromBox(c))
	}
	return resp
}

// LayoutResponse is the full representation of a layout.
type LayoutResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Unit        float64             `json:"unit,omitempty"`
	Version     int                 `json:"version"`
	ItemCount   int                 `json:"item_count"`
	Container   DimensionsResponse  `json:"container"`
	Volume      float64             `json:"volume"`
	Utilization float64             `json:"utilization"`
	Root        BoxResponse         `json:"root"`
	Positions   []PositionResponse  `json:"positions"`
	Placements  []PlacementResponse `json:"placements"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// FromLayout converts a layout.
func FromLayout(l *entity.Layout) LayoutResponse {
	return LayoutResponse{
		ID:          l.ID,
		Name:        l.Name,
		Unit:        l.Unit,
		Version:     l.Version,
		ItemCount:   len(l.Items),
		Container:   FromDimensions(l.Container()),
		Volume:      l.Root.Volume(),
		Utilization: l.Utilization(),
		Root:        FromBox(l.Root),
		Positions:   FromPositions(l.Positions()),
		Placements:  FromPlacements(l.Placements()),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// LayoutSummaryResponse is the list representation of a layout.
type LayoutSummaryResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	ItemCount int                `json:"item_count"`
	Container DimensionsResponse `json:"container"`
	Unit      float64            `json:"unit,omitempty"`
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
}

// FromLayoutSummary converts a layout for listing.
func FromLayoutSummary(l *entity.Layout) LayoutSummaryResponse {
	return LayoutSummaryResponse{
		ID:        l.ID,
		Name:      l.Name,
		ItemCount: len(l.Items),
		Container: FromDimensions(l.Container()),
		Unit:      l.Unit,
		Version:   l.Version,
		CreatedAt: l.CreatedAt,
	}
}

// ListLayoutsQuery holds the query parameters of a list request.
type ListLayoutsQuery struct {
	Name      string
	MinVolume *float64
	MaxVolume *float64
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// ValidationErrorsFrom lists the field errors carried by err, or nil if
// there are none.
func ValidationErrorsFrom(err error) []ValidationError {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return nil
	}
	out := ValidationError{Field: fe.Path, Message: fe.Err.Error()}
	var ve *valueobject.ValidationError
	if errors.As(fe.Err, &ve) {
		out.Message = ve.Err.Error()
		if !math.IsNaN(ve.Value) && !math.IsInf(ve.Value, 0) {
			out.Value = ve.Value
		}
	}
	return []ValidationError{out}
}
