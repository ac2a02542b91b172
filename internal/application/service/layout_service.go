// Package service contains the application use cases. Services orchestrate
// domain entities and repositories and speak DTOs to the outer layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
)

// Service errors.
var (
	// ErrLimitExceeded is returned when a request exceeds the packing limits.
	ErrLimitExceeded = errors.New("packing limit exceeded")

	// ErrInvalidUnit is returned for a normalization unit that is not positive.
	ErrInvalidUnit = errors.New("normalization unit must be a positive number")
)

// Limits bounds the size of packing requests.
type Limits struct {
	// DefaultUnit is used when a normalize request gives no unit.
	DefaultUnit float64

	// MaxChildren caps the children of any single box, including the
	// number of items of a layout.
	MaxChildren int

	// MaxDepth caps the nesting depth of a layout, its container included.
	MaxDepth int
}

// DefaultLimits returns limits suitable for tests and the CLI.
func DefaultLimits() Limits {
	return Limits{DefaultUnit: valueobject.DefaultUnit, MaxChildren: 1000, MaxDepth: 32}
}

// LayoutService implements the layout use cases.
type LayoutService struct {
	repo   repository.LayoutRepository
	log    port.Logger
	limits Limits
}

// NewLayoutService creates a new LayoutService.
//
// Parameters:
//   - repo: layout store
//   - log: logger for use case events
//   - limits: request size limits
//
// Returns:
//   - *LayoutService: the service
func NewLayoutService(repo repository.LayoutRepository, log port.Logger, limits Limits) *LayoutService {
	return &LayoutService{repo: repo, log: log.With("component", "layout_service"), limits: limits}
}

// IsInvalidRequest reports whether err was caused by the caller's input
// rather than by the service or its store.
func IsInvalidRequest(err error) bool {
	return valueobject.IsValidationError(err) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, dto.ErrPackWithoutChildren) ||
		errors.Is(err, entity.ErrInvalidLayoutName) ||
		errors.Is(err, entity.ErrLayoutNameTooLong) ||
		errors.Is(err, entity.ErrEmptyLayout) ||
		errors.Is(err, entity.ErrInvalidChild)
}

// Pack creates and stores a new layout.
//
// Parameters:
//   - ctx: request context
//   - req: name, items and optional normalization unit
//
// Returns:
//   - *dto.LayoutResponse: the stored layout
//   - error: validation, limit, geometry or store errors
func (s *LayoutService) Pack(ctx context.Context, req dto.PackRequest) (*dto.LayoutResponse, error) {
	if err := s.checkItems(req.Items, 0); err != nil {
		return nil, err
	}
	items, err := dto.BoxesFromRequests("items", req.Items)
	if err != nil {
		return nil, err
	}

	layout, err := entity.NewLayout(req.Name, items)
	if err != nil {
		return nil, err
	}
	if req.Normalize != nil {
		if err := s.normalize(layout, *req.Normalize); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, layout); err != nil {
		return nil, fmt.Errorf("store layout: %w", err)
	}

	s.log.WithContext(ctx).Info("Layout packed",
		"layout_id", layout.ID,
		"items", len(layout.Items),
		"container", layout.Container().String(),
	)
	resp := dto.FromLayout(layout)
	return &resp, nil
}

// Get returns a stored layout.
func (s *LayoutService) Get(ctx context.Context, id uuid.UUID) (*dto.LayoutResponse, error) {
	layout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromLayout(layout)
	return &resp, nil
}

// Export returns the stored form of a layout, suitable for backup or for
// feeding back to another store.
func (s *LayoutService) Export(ctx context.Context, id uuid.UUID) (*entity.LayoutSnapshot, error) {
	snap, err := s.repo.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Debug("Layout exported", "layout_id", id, "version", snap.Version)
	return &snap, nil
}

// List returns one page of layout summaries.
func (s *LayoutService) List(ctx context.Context, q dto.ListLayoutsQuery) (dto.PaginateResponse[dto.LayoutSummaryResponse], error) {
	filter := repository.LayoutFilter{
		NameContains: q.Name,
		MinVolume:    q.MinVolume,
		MaxVolume:    q.MaxVolume,
		Limit:        q.Limit,
		Offset:       q.Offset,
		SortBy:       q.SortBy,
		SortOrder:    q.SortOrder,
	}

	layouts, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return dto.PaginateResponse[dto.LayoutSummaryResponse]{}, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return dto.PaginateResponse[dto.LayoutSummaryResponse]{}, err
	}

	items := make([]dto.LayoutSummaryResponse, len(layouts))
	for i, l := range layouts {
		items[i] = dto.FromLayoutSummary(l)
	}
	return dto.NewPaginateResponse(items, total, q.Limit, q.Offset), nil
}

// AddItems appends items to a layout and re-packs it.
//
// Returns:
//   - *dto.LayoutResponse: the updated layout
//   - error: repository.ErrLayoutNotFound, repository.ErrOptimisticLock,
//     or validation and limit errors
func (s *LayoutService) AddItems(ctx context.Context, id uuid.UUID, req dto.AddItemsRequest) (*dto.LayoutResponse, error) {
	layout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkItems(req.Items, len(layout.Items)); err != nil {
		return nil, err
	}
	items, err := dto.BoxesFromRequests("items", req.Items)
	if err != nil {
		return nil, err
	}
	if err := layout.AddItems(items); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, layout); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Layout items added",
		"layout_id", layout.ID,
		"added", len(items),
		"items", len(layout.Items),
	)
	resp := dto.FromLayout(layout)
	return &resp, nil
}

// Normalize rescales a stored layout.
//
// Returns:
//   - *dto.LayoutResponse: the updated layout
//   - error: ErrInvalidUnit, valueobject.ErrDegenerateGeometry or store errors
func (s *LayoutService) Normalize(ctx context.Context, id uuid.UUID, req dto.NormalizeRequest) (*dto.LayoutResponse, error) {
	unit := s.limits.DefaultUnit
	if req.Unit != nil {
		unit = *req.Unit
	}

	layout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.normalize(layout, unit); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, layout); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("Layout normalized", "layout_id", layout.ID, "unit", unit)
	resp := dto.FromLayout(layout)
	return &resp, nil
}

// Delete removes a stored layout.
func (s *LayoutService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("Layout deleted", "layout_id", id)
	return nil
}

// CheckFit reports whether a box fits inside a container. Nothing is stored.
func (s *LayoutService) CheckFit(ctx context.Context, req dto.FitRequest) (*dto.FitResponse, error) {
	if err := s.checkTree(req.Box, 1); err != nil {
		return nil, err
	}
	if err := s.checkTree(req.Container, 1); err != nil {
		return nil, err
	}
	box, err := req.Box.ToBox("box")
	if err != nil {
		return nil, err
	}
	container, err := req.Container.ToBox("container")
	if err != nil {
		return nil, err
	}

	resp := &dto.FitResponse{
		Fits:      box.FitsInside(container),
		Box:       dto.FromDimensions(box.DimensionsWithMarginApplied()),
		Container: dto.FromDimensions(container.DimensionsWithMarginApplied()),
	}
	if req.AllowRotation {
		rotated := FitsInAnyOrientation(box.DimensionsWithMarginApplied(), container.DimensionsWithMarginApplied())
		resp.FitsRotated = &rotated
	}

	s.log.WithContext(ctx).Debug("Fit checked", "fits", resp.Fits, "box", box.String(), "container", container.String())
	return resp, nil
}

// FitsInAnyOrientation reports whether some axis-aligned turn of b fits in c.
// Matching sorted extents is enough: if the i-th smallest side of b exceeds
// the i-th smallest side of c, no permutation can fit.
func FitsInAnyOrientation(b, c valueobject.Dimensions) bool {
	bs := sortedExtents(b)
	cs := sortedExtents(c)
	for i := range bs {
		if bs[i] > cs[i] {
			return false
		}
	}
	return true
}

func sortedExtents(d valueobject.Dimensions) []float64 {
	e := []float64{d.Width(), d.Height(), d.Length()}
	slices.Sort(e)
	return e
}

func (s *LayoutService) normalize(layout *entity.Layout, unit float64) error {
	if !(unit > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidUnit, unit)
	}
	return layout.Normalize(unit)
}

// checkItems validates the item list of a layout that already holds
// existing items. The layout container is one level above the items.
func (s *LayoutService) checkItems(items []dto.BoxRequest, existing int) error {
	if n := existing + len(items); n > s.limits.MaxChildren {
		return fmt.Errorf("%w: %d items, at most %d allowed", ErrLimitExceeded, n, s.limits.MaxChildren)
	}
	for _, item := range items {
		if err := s.checkTree(item, 2); err != nil {
			return err
		}
	}
	return nil
}

// checkTree walks a request tree whose root sits at the given level,
// counting the container of a layout as level 1.
func (s *LayoutService) checkTree(r dto.BoxRequest, level int) error {
	if level > s.limits.MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d levels", ErrLimitExceeded, s.limits.MaxDepth)
	}
	if len(r.Children) > s.limits.MaxChildren {
		return fmt.Errorf("%w: box with %d children, at most %d allowed", ErrLimitExceeded, len(r.Children), s.limits.MaxChildren)
	}
	for _, c := range r.Children {
		if err := s.checkTree(c, level+1); err != nil {
			return err
		}
	}
	return nil
}
