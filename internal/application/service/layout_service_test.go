package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
	"github.com/hapkiduki/boxpack/internal/infrastructure/persistance/memory"
)

type recordingLogger struct {
	messages *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{messages: &[]string{}}
}

func (l recordingLogger) Debug(msg string, _ ...interface{}) { *l.messages = append(*l.messages, msg) }
func (l recordingLogger) Info(msg string, _ ...interface{})  { *l.messages = append(*l.messages, msg) }
func (l recordingLogger) Warn(msg string, _ ...interface{})  { *l.messages = append(*l.messages, msg) }
func (l recordingLogger) Error(msg string, _ ...interface{}) { *l.messages = append(*l.messages, msg) }
func (l recordingLogger) With(...interface{}) port.Logger    { return l }
func (l recordingLogger) WithContext(context.Context) port.Logger {
	return l
}

func item() dto.BoxRequest {
	return dto.BoxRequest{Width: 3, Height: 2, Length: 1, Margin: 1}
}

func unit(v float64) *float64 { return &v }

func newService(t *testing.T, limits Limits) (*LayoutService, recordingLogger) {
	t.Helper()
	log := newRecordingLogger()
	return NewLayoutService(memory.NewLayoutRepository(), log, limits), log
}

func TestPack(t *testing.T) {
	svc, log := newService(t, DefaultLimits())
	ctx := context.Background()

	resp, err := svc.Pack(ctx, dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item(), item(), item()}})
	require.NoError(t, err)
	assert.Equal(t, dto.DimensionsResponse{Width: 4, Height: 5, Length: 9}, resp.Container)
	assert.Equal(t, 3, resp.ItemCount)
	assert.Equal(t, 1, resp.Version)
	assert.Contains(t, *log.messages, "Layout packed")

	got, err := svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Container, got.Container)
	assert.Equal(t, resp.Placements, got.Placements)
}

func TestExport(t *testing.T) {
	svc, _ := newService(t, DefaultLimits())
	ctx := context.Background()

	resp, err := svc.Pack(ctx, dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item(), item()}, Normalize: unit(2)})
	require.NoError(t, err)

	snap, err := svc.Export(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, snap.ID)
	assert.Equal(t, 2.0, snap.Unit)
	assert.Len(t, snap.Items, 2)
	assert.Len(t, snap.Root.Children, 2)
	assert.Equal(t, 3.0, snap.Items[0].Width)

	_, err = svc.Export(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrLayoutNotFound)
}

func TestPackNormalized(t *testing.T) {
	svc, _ := newService(t, DefaultLimits())

	resp, err := svc.Pack(context.Background(), dto.PackRequest{
		Name:      "shelf",
		Items:     []dto.BoxRequest{item(), item(), item()},
		Normalize: unit(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Unit)
	assert.InDelta(t, 1.0, resp.Container.Length, 1e-9)
	assert.InDelta(t, 4.0/9.0, resp.Container.Width, 1e-9)
}

func TestPackRejectsInvalidRequests(t *testing.T) {
	limits := Limits{DefaultUnit: 1, MaxChildren: 2, MaxDepth: 3}
	svc, _ := newService(t, limits)
	deep := dto.BoxRequest{Width: 1, Height: 1, Length: 1, Children: []dto.BoxRequest{
		{Width: 1, Height: 1, Length: 1, Children: []dto.BoxRequest{{Width: 1, Height: 1, Length: 1}}},
	}}
	zero := dto.BoxRequest{}

	tests := []struct {
		name string
		req  dto.PackRequest
		want error
	}{
		{"empty name", dto.PackRequest{Items: []dto.BoxRequest{item()}}, entity.ErrInvalidLayoutName},
		{"no items", dto.PackRequest{Name: "x"}, entity.ErrEmptyLayout},
		{"negative width", dto.PackRequest{Name: "x", Items: []dto.BoxRequest{{Width: -1}}}, valueobject.ErrNegativeDimension},
		{"too many items", dto.PackRequest{Name: "x", Items: []dto.BoxRequest{item(), item(), item()}}, ErrLimitExceeded},
		{"too deep", dto.PackRequest{Name: "x", Items: []dto.BoxRequest{deep}}, ErrLimitExceeded},
		{"zero unit", dto.PackRequest{Name: "x", Items: []dto.BoxRequest{item()}, Normalize: unit(0)}, ErrInvalidUnit},
		{"degenerate", dto.PackRequest{Name: "x", Items: []dto.BoxRequest{zero}, Normalize: unit(1)}, valueobject.ErrDegenerateGeometry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Pack(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	list, err := svc.List(context.Background(), dto.ListLayoutsQuery{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestIsInvalidRequest(t *testing.T) {
	assert.True(t, IsInvalidRequest(ErrLimitExceeded))
	assert.True(t, IsInvalidRequest(valueobject.NewValidationError("width", -1, valueobject.ErrNegativeDimension)))
	assert.True(t, IsInvalidRequest(entity.ErrEmptyLayout))
	assert.False(t, IsInvalidRequest(valueobject.ErrDegenerateGeometry))
	assert.False(t, IsInvalidRequest(repository.ErrLayoutNotFound))
}

func TestAddItems(t *testing.T) {
	svc, _ := newService(t, Limits{DefaultUnit: 1, MaxChildren: 3, MaxDepth: 8})
	ctx := context.Background()

	created, err := svc.Pack(ctx, dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item()}, Normalize: unit(2)})
	require.NoError(t, err)

	updated, err := svc.AddItems(ctx, created.ID, dto.AddItemsRequest{Items: []dto.BoxRequest{item(), item()}})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.ItemCount)
	assert.Equal(t, 2, updated.Version)
	assert.InDelta(t, 2.0, updated.Container.Length, 1e-9)

	_, err = svc.AddItems(ctx, created.ID, dto.AddItemsRequest{Items: []dto.BoxRequest{item()}})
	assert.ErrorIs(t, err, ErrLimitExceeded)

	_, err = svc.AddItems(ctx, uuid.New(), dto.AddItemsRequest{Items: []dto.BoxRequest{item()}})
	assert.ErrorIs(t, err, repository.ErrLayoutNotFound)
}

func TestNormalize(t *testing.T) {
	svc, _ := newService(t, Limits{DefaultUnit: 10, MaxChildren: 10, MaxDepth: 8})
	ctx := context.Background()

	created, err := svc.Pack(ctx, dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item(), item(), item()}})
	require.NoError(t, err)

	resp, err := svc.Normalize(ctx, created.ID, dto.NormalizeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10.0, resp.Unit)
	assert.InDelta(t, 10.0, resp.Container.Length, 1e-9)

	resp, err = svc.Normalize(ctx, created.ID, dto.NormalizeRequest{Unit: unit(1)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, resp.Container.Length, 1e-9)
	last := resp.Positions[len(resp.Positions)-1]
	assert.InDelta(t, resp.Container.Length, last.Max.Z, 1e-9)

	_, err = svc.Normalize(ctx, created.ID, dto.NormalizeRequest{Unit: unit(-1)})
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestListAndDelete(t *testing.T) {
	svc, _ := newService(t, DefaultLimits())
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"a shelf", "b shelf", "c rack"} {
		resp, err := svc.Pack(ctx, dto.PackRequest{Name: name, Items: []dto.BoxRequest{item()}})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	page, err := svc.List(ctx, dto.ListLayoutsQuery{Name: "shelf", SortBy: repository.SortByName, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a shelf", page.Items[0].Name)

	require.NoError(t, svc.Delete(ctx, ids[0]))
	assert.ErrorIs(t, svc.Delete(ctx, ids[0]), repository.ErrLayoutNotFound)
	_, err = svc.Get(ctx, ids[0])
	assert.True(t, repository.IsNotFoundError(err))
}

func TestCheckFit(t *testing.T) {
	svc, _ := newService(t, DefaultLimits())
	ctx := context.Background()

	tall := dto.BoxRequest{Width: 1, Height: 5, Length: 1}
	flat := dto.BoxRequest{Width: 5, Height: 1, Length: 5}

	resp, err := svc.CheckFit(ctx, dto.FitRequest{Box: tall, Container: flat})
	require.NoError(t, err)
	assert.False(t, resp.Fits)
	assert.Nil(t, resp.FitsRotated)

	resp, err = svc.CheckFit(ctx, dto.FitRequest{Box: tall, Container: flat, AllowRotation: true})
	require.NoError(t, err)
	assert.False(t, resp.Fits)
	require.NotNil(t, resp.FitsRotated)
	assert.True(t, *resp.FitsRotated)

	resp, err = svc.CheckFit(ctx, dto.FitRequest{Box: flat, Container: flat})
	require.NoError(t, err)
	assert.True(t, resp.Fits)

	_, err = svc.CheckFit(ctx, dto.FitRequest{Box: dto.BoxRequest{Width: -1}, Container: flat})
	assert.True(t, IsInvalidRequest(err))
}

func TestFitsInAnyOrientation(t *testing.T) {
	tests := []struct {
		name string
		b, c valueobject.Dimensions
		want bool
	}{
		{"same", valueobject.MustNewDimensions(1, 2, 3), valueobject.MustNewDimensions(1, 2, 3), true},
		{"permuted", valueobject.MustNewDimensions(3, 1, 2), valueobject.MustNewDimensions(1, 2, 3), true},
		{"too long", valueobject.MustNewDimensions(1, 1, 4), valueobject.MustNewDimensions(3, 3, 3), false},
		{"diagonal does not help", valueobject.MustNewDimensions(2, 2, 2), valueobject.MustNewDimensions(1, 3, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FitsInAnyOrientation(tt.b, tt.c))
		})
	}
}
