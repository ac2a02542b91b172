package entity

import (
	"time"

	"github.com/google/uuid"
)

// LayoutSnapshot is the exported, serializable form of a Layout.
type LayoutSnapshot struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Items     []BoxSnapshot `json:"items"`
	Root      BoxSnapshot   `json:"root"`
	Unit      float64       `json:"unit,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Version   int           `json:"version"`
}

// Snapshot returns a detached copy of the layout.
func (l *Layout) Snapshot() LayoutSnapshot {
	items := make([]BoxSnapshot, len(l.Items))
	for i, item := range l.Items {
		items[i] = item.Snapshot()
	}
	return LayoutSnapshot{
		ID:        l.ID,
		Name:      l.Name,
		Items:     items,
		Root:      l.Root.Snapshot(),
		Unit:      l.Unit,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
		Version:   l.Version,
	}
}

// LayoutFromSnapshot rebuilds a Layout, validating every box.
// The stored container is used as is; it is not re-packed.
func LayoutFromSnapshot(s LayoutSnapshot) (*Layout, error) {
	items := make([]*Box, len(s.Items))
	for i, is := range s.Items {
		item, err := BoxFromSnapshot(is)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	root, err := BoxFromSnapshot(s.Root)
	if err != nil {
		return nil, err
	}
	return &Layout{
		ID:        s.ID,
		Name:      s.Name,
		Items:     items,
		Root:      root,
		Unit:      s.Unit,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Version:   s.Version,
	}, nil
}
