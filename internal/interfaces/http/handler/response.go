// Package handler contains the HTTP handlers of the layout API.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/application/service"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
	"github.com/hapkiduki/boxpack/internal/domain/valueobject"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/middleware"
)

// Error codes returned in the API envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeDegenerateGeometry = "DEGENERATE_GEOMETRY"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

func meta(r *http.Request, version string) *dto.ResponseMeta {
	return &dto.ResponseMeta{
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version,
	}
}

func respond[T any](w http.ResponseWriter, r *http.Request, status int, version string, data T) {
	body := dto.NewSuccessResponse(data)
	body.Meta = meta(r, version)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, maxBytes int64, v any, allowEmpty bool) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	err := render.DecodeJSON(r.Body, v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeError maps err onto a status and an error envelope.
func writeError(w http.ResponseWriter, r *http.Request, log port.Logger, err error) {
	var body dto.APIResponse[any]
	status := http.StatusInternalServerError

	switch {
	case service.IsInvalidRequest(err):
		status = http.StatusBadRequest
		if fields := dto.ValidationErrorsFrom(err); len(fields) > 0 {
			body = dto.NewValidationErrorResponse[any](fields)
		} else {
			body = dto.NewErrorResponse[any](CodeValidation, err.Error())
		}
	case errors.Is(err, valueobject.ErrDegenerateGeometry):
		status = http.StatusUnprocessableEntity
		body = dto.NewErrorResponse[any](CodeDegenerateGeometry, err.Error())
	case repository.IsNotFoundError(err):
		status = http.StatusNotFound
		body = dto.NewErrorResponse[any](CodeNotFound, err.Error())
	case repository.IsConflictError(err):
		status = http.StatusConflict
		body = dto.NewErrorResponse[any](CodeConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		body = dto.NewErrorResponse[any](CodeTimeout, "Request timed out")
	default:
		log.WithContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		body = dto.NewErrorResponse[any](CodeInternal, "An unexpected error occurred")
	}

	body.Meta = meta(r, "")
	render.Status(r, status)
	render.JSON(w, r, body)
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	body := dto.NewErrorResponse[any](CodeInvalidJSON, err.Error())
	body.Meta = meta(r, "")
	render.Status(r, status)
	render.JSON(w, r, body)
}

// NotFound handles unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, http.StatusNotFound, CodeNotFound, "The requested resource was not found")
}

// MethodNotAllowed handles known routes with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The requested method is not allowed for this resource")
}
