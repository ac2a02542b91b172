// Package memory provides in-process implementations of repository interfaces.
// It backs the CLI and single-instance deployments, and serves as the
// reference store in tests.
package memory

import (
	"context"
	"sync"

	"github.com/barkimedes/go-deepcopy"
	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
)

// LayoutRepository keeps layouts as snapshots in a map.
// Stored records never share memory with the layouts passed in or handed out.
type LayoutRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]entity.LayoutSnapshot
}

// NewLayoutRepository creates an empty repository.
func NewLayoutRepository() *LayoutRepository {
	return &LayoutRepository{records: make(map[uuid.UUID]entity.LayoutSnapshot)}
}

func (r *LayoutRepository) Create(ctx context.Context, layout *entity.Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if layout == nil || layout.Root == nil {
		return repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[layout.ID]; exists {
		return repository.ErrDuplicateLayout
	}
	r.records[layout.ID] = layout.Snapshot()
	return nil
}

func (r *LayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()

	if !ok {
		return nil, repository.ErrLayoutNotFound
	}
	return entity.LayoutFromSnapshot(rec)
}

// Snapshot returns a deep copy of the stored record without rebuilding or
// re-validating the box trees.
func (r *LayoutRepository) Snapshot(ctx context.Context, id uuid.UUID) (entity.LayoutSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return entity.LayoutSnapshot{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return entity.LayoutSnapshot{}, repository.ErrLayoutNotFound
	}
	// IDs and timestamps are values; only the box trees would be shared.
	rec.Items = deepcopy.MustAnything(rec.Items).([]entity.BoxSnapshot)
	rec.Root = deepcopy.MustAnything(rec.Root).(entity.BoxSnapshot)
	return rec, nil
}

func (r *LayoutRepository) Update(ctx context.Context, layout *entity.Layout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if layout == nil || layout.Root == nil {
		return repository.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[layout.ID]
	if !ok {
		return repository.ErrLayoutNotFound
	}
	if rec.Version != layout.Version {
		return repository.ErrOptimisticLock
	}

	next := layout.Snapshot()
	next.Version++
	r.records[layout.ID] = next
	layout.Version = next.Version
	return nil
}

func (r *LayoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return repository.ErrLayoutNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *LayoutRepository) FindAll(ctx context.Context, filter repository.LayoutFilter) ([]*entity.Layout, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all), nil
}

func (r *LayoutRepository) Count(ctx context.Context, filter repository.LayoutFilter) (int64, error) {
	all, err := r.all(ctx)
	if err != nil {
		return 0, err
	}
	filter.Limit, filter.Offset = 0, 0
	return int64(len(filter.Apply(all))), nil
}

func (r *LayoutRepository) all(ctx context.Context) ([]*entity.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Layout, 0, len(r.records))
	for _, rec := range r.records {
		l, err := entity.LayoutFromSnapshot(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

var _ repository.LayoutRepository = (*LayoutRepository)(nil)
