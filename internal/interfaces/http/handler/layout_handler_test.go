package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/application/service"
	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/middleware"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})              {}
func (nopLogger) Info(string, ...interface{})               {}
func (nopLogger) Warn(string, ...interface{})               {}
func (nopLogger) Error(string, ...interface{})              {}
func (l nopLogger) With(...interface{}) port.Logger         { return l }
func (l nopLogger) WithContext(context.Context) port.Logger { return l }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newServer(t *testing.T, limits service.Limits) http.Handler {
	t.Helper()
	svc := service.NewLayoutService(memory.NewLayoutRepository(), nopLogger{}, limits)
	return NewRouter(
		RouterConfig{Version: "test", AllowedOrigins: []string{"*"}, RequestTimeout: time.Minute},
		nopLogger{},
		NewLayoutHandler(svc, nopLogger{}, 1<<16, "test"),
		NewHealthHandler("test", time.Now(), nil),
	)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) dto.APIResponse[T] {
	t.Helper()
	var body dto.APIResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func item() dto.BoxRequest {
	return dto.BoxRequest{Width: 3, Height: 2, Length: 1, Margin: 1}
}

func createLayout(t *testing.T, h http.Handler, name string, items ...dto.BoxRequest) dto.LayoutResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{Name: name, Items: items})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[dto.LayoutResponse](t, rec).Data
}

func TestCreateAndGetLayout(t *testing.T) {
	h := newServer(t, service.DefaultLimits())

	rec := do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item(), item(), item()}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "test", rec.Header().Get("X-API-Version"))

	created := decodeBody[dto.LayoutResponse](t, rec)
	require.True(t, created.Success)
	require.NotNil(t, created.Meta)
	assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), created.Meta.RequestID)
	assert.Equal(t, "/v1/layouts/"+created.Data.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, dto.DimensionsResponse{Width: 4, Height: 5, Length: 9}, created.Data.Container)
	assert.Len(t, created.Data.Placements, 4, spew.Sdump(created.Data.Placements))

	rec = do(t, h, http.MethodGet, "/v1/layouts/"+created.Data.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[dto.LayoutResponse](t, rec)
	assert.Equal(t, created.Data.Positions, got.Data.Positions)
}

func TestCreateLayoutValidation(t *testing.T) {
	h := newServer(t, service.DefaultLimits())

	rec := do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{
		Name:  "shelf",
		Items: []dto.BoxRequest{item(), {Width: 1, Height: -4, Length: 1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[any](t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, CodeValidation, body.Error.Code)
	require.Len(t, body.Error.ValidationErrors, 1)
	assert.Equal(t, "items[1].height", body.Error.ValidationErrors[0].Field)
	assert.Equal(t, -4.0, body.Error.ValidationErrors[0].Value)

	rec = do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{Items: []dto.BoxRequest{item()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decodeBody[any](t, rec).Error.Code)
}

func TestCreateLayoutBadJSON(t *testing.T) {
	h := newServer(t, service.DefaultLimits())

	req := httptest.NewRequest(http.MethodPost, "/v1/layouts", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidJSON, decodeBody[any](t, rec).Error.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/layouts", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreateLayoutTooLarge(t *testing.T) {
	svc := service.NewLayoutService(memory.NewLayoutRepository(), nopLogger{}, service.DefaultLimits())
	h := NewRouter(RouterConfig{}, nopLogger{}, NewLayoutHandler(svc, nopLogger{}, 16, ""), NewHealthHandler("", time.Now(), nil))

	rec := do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item()}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLayoutNotFoundAndBadID(t *testing.T) {
	h := newServer(t, service.DefaultLimits())

	rec := do(t, h, http.MethodGet, "/v1/layouts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeBody[any](t, rec).Error.Code)

	rec = do(t, h, http.MethodGet, "/v1/layouts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v2/anything", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportLayout(t *testing.T) {
	h := newServer(t, service.DefaultLimits())
	created := createLayout(t, h, "shelf", item(), item())

	rec := do(t, h, http.MethodGet, "/v1/layouts/"+created.ID.String()+"/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeBody[entity.LayoutSnapshot](t, rec).Data
	assert.Equal(t, created.ID, snap.ID)
	assert.Equal(t, "shelf", snap.Name)
	assert.Equal(t, 1, snap.Version)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 1.0, snap.Items[0].Margin)

	rebuilt, err := entity.LayoutFromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, created.Container, dto.FromDimensions(rebuilt.Container()))

	rec = do(t, h, http.MethodGet, "/v1/layouts/"+uuid.NewString()+"/snapshot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemsAndNormalize(t *testing.T) {
	h := newServer(t, service.DefaultLimits())
	created := createLayout(t, h, "shelf", item())
	base := "/v1/layouts/" + created.ID.String()

	rec := do(t, h, http.MethodPost, base+"/items", dto.AddItemsRequest{Items: []dto.BoxRequest{item(), item()}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[dto.LayoutResponse](t, rec).Data
	assert.Equal(t, 3, updated.ItemCount)
	assert.Equal(t, 2, updated.Version)

	// No body: the configured default unit applies.
	rec = do(t, h, http.MethodPost, base+"/normalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	normalized := decodeBody[dto.LayoutResponse](t, rec).Data
	assert.InDelta(t, 1.0, normalized.Container.Length, 1e-9)

	half := 0.5
	rec = do(t, h, http.MethodPost, base+"/normalize", dto.NormalizeRequest{Unit: &half})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.5, decodeBody[dto.LayoutResponse](t, rec).Data.Container.Length, 1e-9)
}

func TestNormalizeDegenerate(t *testing.T) {
	h := newServer(t, service.DefaultLimits())
	created := createLayout(t, h, "flat", dto.BoxRequest{})

	rec := do(t, h, http.MethodPost, "/v1/layouts/"+created.ID.String()+"/normalize", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeDegenerateGeometry, decodeBody[any](t, rec).Error.Code)
}

func TestListAndDeleteLayouts(t *testing.T) {
	h := newServer(t, service.DefaultLimits())
	a := createLayout(t, h, "a shelf", item())
	createLayout(t, h, "b shelf", item())
	createLayout(t, h, "rack", item())

	rec := do(t, h, http.MethodGet, "/v1/layouts?name=shelf&sort_by=name&sort_order=desc&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decodeBody[dto.PaginateResponse[dto.LayoutSummaryResponse]](t, rec).Data
	assert.Equal(t, int64(2), page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b shelf", page.Items[0].Name)

	for _, bad := range []string{"limit=0", "limit=101", "offset=-1", "sort_by=color", "sort_order=up", "min_volume=big"} {
		rec = do(t, h, http.MethodGet, "/v1/layouts?"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}

	rec = do(t, h, http.MethodDelete, "/v1/layouts/"+a.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/layouts/"+a.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckFitEndpoint(t *testing.T) {
	h := newServer(t, service.DefaultLimits())

	rec := do(t, h, http.MethodPost, "/v1/fit", dto.FitRequest{
		Box:           dto.BoxRequest{Width: 1, Height: 5, Length: 1},
		Container:     dto.BoxRequest{Width: 5, Height: 1, Length: 5},
		AllowRotation: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fit := decodeBody[dto.FitResponse](t, rec).Data
	assert.False(t, fit.Fits)
	require.NotNil(t, fit.FitsRotated)
	assert.True(t, *fit.FitsRotated)
}

func TestLimitExceededIsBadRequest(t *testing.T) {
	h := newServer(t, service.Limits{DefaultUnit: 1, MaxChildren: 1, MaxDepth: 4})

	rec := do(t, h, http.MethodPost, "/v1/layouts", dto.PackRequest{Name: "shelf", Items: []dto.BoxRequest{item(), item()}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decodeBody[any](t, rec).Error.Code)
}

func TestHealth(t *testing.T) {
	h := newServer(t, service.DefaultLimits())
	rec := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)

	unhealthy := NewHealthHandler("test", time.Now(), map[string]port.HealthChecker{"redis": failingPinger{}})
	rec = httptest.NewRecorder()
	unhealthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Checks["redis"].Status)
}
