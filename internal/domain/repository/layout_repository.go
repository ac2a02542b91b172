// Package repository contains the repository interfaces (ports) for data access.
package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/domain/entity"
)

// Sort keys accepted by LayoutFilter.SortBy.
const (
	SortByCreatedAt = "created_at"
	SortByName      = "name"
	SortByVolume    = "volume"
)

// LayoutFilter contains criteria for filtering layouts.
type LayoutFilter struct {
	// NameContains matches layouts whose name contains this text, ignoring case.
	NameContains string

	// MinVolume filters layouts whose container volume is >= this value.
	MinVolume *float64

	// MaxVolume filters layouts whose container volume is <= this value.
	MaxVolume *float64

	// Limit specifies the maximum number of results. Zero means no limit.
	Limit int

	// Offset specifies the starting position for pagination
	Offset int

	// SortBy specifies the field to sort by (created_at, name, volume)
	SortBy string

	// SortOrder specifies ascending ("asc") or descending ("desc")
	SortOrder string
}

// Matches reports whether l satisfies the filter's criteria.
// Paging and sorting are not considered.
func (f LayoutFilter) Matches(l *entity.Layout) bool {
	if f.NameContains != "" &&
		!strings.Contains(strings.ToLower(l.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	vol := l.Root.Volume()
	if f.MinVolume != nil && vol < *f.MinVolume {
		return false
	}
	if f.MaxVolume != nil && vol > *f.MaxVolume {
		return false
	}
	return true
}

// Apply filters, sorts and pages layouts in memory.
// Store adapters without server-side querying share it.
func (f LayoutFilter) Apply(layouts []*entity.Layout) []*entity.Layout {
	out := make([]*entity.Layout, 0, len(layouts))
	for _, l := range layouts {
		if f.Matches(l) {
			out = append(out, l)
		}
	}

	// Ties fall back to the ID so results are stable across stores.
	less := func(a, b *entity.Layout) bool {
		switch f.SortBy {
		case SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case SortByVolume:
			if va, vb := a.Root.Volume(), b.Root.Volume(); va != vb {
				return va < vb
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID.String() < b.ID.String()
	}
	desc := strings.EqualFold(f.SortOrder, "desc")
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.Layout{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

// LayoutRepository defines the interface for layout persistance operations.
//
// Example usage:
//
// repo := memory.NewLayoutRepository()
// layout, err := repo.GetByID(ctx, layoutID)
type LayoutRepository interface {
	// Create persists a new layout to the data store.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - layout: The layout to create
	//
	// Returns:
	//   - error: ErrDuplicateLayout if the ID is taken
	Create(ctx context.Context, layout *entity.Layout) error

	// GetByID retrieves a layout by its unique identifier.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - id: The layout's UUID
	//
	// Returns:
	//   - *entity.Layout: The retrieved layout, or nil if not found
	//   - error: ErrLayoutNotFound if layout doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Layout, error)

	// Snapshot returns the stored form of a layout as is. The box trees are
	// not rebuilt, so this is the cheap read for export.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - id: The layout's UUID
	//
	// Returns:
	//   - entity.LayoutSnapshot: a copy the caller may modify freely
	//   - error: ErrLayoutNotFound if layout doesn't exist
	Snapshot(ctx context.Context, id uuid.UUID) (entity.LayoutSnapshot, error)

	// Update persists changes to an existing layout.
	// layout.Version must equal the stored version; on success it is
	// incremented.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - layout: The layout to update
	//
	// Returns:
	//   - error: ErrOptimisticLock if version mismatch
	Update(ctx context.Context, layout *entity.Layout) error

	// Delete removes a layout from the data store.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - id: The layout's UUID
	//
	// Returns:
	//   - error: ErrLayoutNotFound if layout doesn't exist
	Delete(ctx context.Context, id uuid.UUID) error

	// FindAll retrieves layouts matching the given filter criteria.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - filter: Criteria to filter layouts
	//
	// Returns:
	//   - []*entity.Layout: List of matching layouts
	//   - error: any error encountered during retrieval
	FindAll(ctx context.Context, filter LayoutFilter) ([]*entity.Layout, error)

	// Count returns the total number of layouts matching the filter.
	// Limit and Offset are ignored.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadlines
	//   - filter: Criteria to filter layouts
	//
	// Returns:
	//   - int64: Count of matching layouts
	//   - error: any error encountered during counting
	Count(ctx context.Context, filter LayoutFilter) (int64, error)
}
