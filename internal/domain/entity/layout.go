package entity

import (
	"errors"
	"strings"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// Layout errors define domain-specific error conditions for layouts.
var (
	ErrInvalidLayoutName = errors.New("layout name cannot be empty")
	ErrEmptyLayout       = errors.New("layout needs at least one item")
	ErrLayoutNameTooLong = errors.New("layout name too long (max 128 characters)")
)

const maxLayoutNameLength = 128

// Layout is a named packing of caller-supplied items into a single container.
// It keeps the items as given so the container can be re-packed when items
// are added.
type Layout struct {
	// ID is the unique identifier for the layout
	ID uuid.UUID

	// Name is a human-readable label
	Name string

	// Items are the boxes as supplied by the caller, in stacking order
	Items []*Box

	// Root is the packed container holding reoriented copies of Items
	Root *Box

	// Unit is the size the root was normalized to, or 0 if it was not
	Unit float64

	// CreatedAt is the timestamp when the layout was created
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the layout was last changed
	UpdatedAt time.Time

	// Version is used for optimistic locking
	Version int
}

// NewLayout creates a new Layout and packs its items.
//
// Parameters:
//   - name: label for the layout (required)
//   - items: boxes to pack, in stacking order (at least one)
//
// Returns:
//   - *Layout: the newly created layout
//   - error: validation error if input is invalid
func NewLayout(name string, items []*Box) (*Layout, error) {
	name, err := validateLayoutName(name)
	if err != nil {
		return nil, err
	}
	owned, err := ownItems(items)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Layout{
		ID:        uuid.New(),
		Name:      name,
		Items:     owned,
		Root:      FromChildren(owned),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

func validateLayoutName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidLayoutName
	}
	if len(name) > maxLayoutNameLength {
		return "", ErrLayoutNameTooLong
	}
	return name, nil
}

func ownItems(items []*Box) ([]*Box, error) {
	if len(items) == 0 {
		return nil, ErrEmptyLayout
	}
	owned := make([]*Box, len(items))
	for i, item := range items {
		if item == nil {
			return nil, ErrInvalidChild
		}
		owned[i] = item.Clone()
	}
	return owned, nil
}

// AddItems appends items and re-packs the container from scratch.
// Any previous normalization is applied again.
//
// Returns:
//   - error: ErrEmptyLayout if items is empty, or a normalization error
func (l *Layout) AddItems(items []*Box) error {
	owned, err := ownItems(items)
	if err != nil {
		return err
	}
	root := FromChildren(append(append([]*Box{}, l.Items...), owned...))
	if l.Unit > 0 {
		if err := root.Normalize(l.Unit); err != nil {
			return err
		}
	}
	l.Items = append(l.Items, owned...)
	l.Root = root
	l.touch()
	return nil
}

// Normalize scales the packed container so its largest side equals unit.
// The original items are not scaled.
func (l *Layout) Normalize(unit float64) error {
	if err := l.Root.Normalize(unit); err != nil {
		return err
	}
	l.Unit = unit
	l.touch()
	return nil
}

// Rename changes the layout name.
func (l *Layout) Rename(name string) error {
	name, err := validateLayoutName(name)
	if err != nil {
		return err
	}
	l.Name = name
	l.touch()
	return nil
}

// Positions returns the positions of the packed items inside the container.
func (l *Layout) Positions() []ChildPosition {
	return l.Root.ChildPositions()
}

// Placements returns every box of the container in absolute coordinates.
func (l *Layout) Placements() []Placement {
	return l.Root.Placements(v3.Vec{})
}

// Container returns the packed container's raw extents.
func (l *Layout) Container() valueobject.Dimensions {
	return l.Root.Dimensions()
}

// Utilization returns the share of the container volume taken by the
// items' raw volumes. It is 0 for an empty container.
func (l *Layout) Utilization() float64 {
	total := l.Root.Volume()
	if total == 0 {
		return 0
	}
	var used float64
	for _, c := range l.Root.children {
		used += c.Volume()
	}
	return used / total
}

func (l *Layout) touch() {
	l.UpdatedAt = time.Now().UTC()
}
