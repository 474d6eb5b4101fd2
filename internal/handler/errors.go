package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/service"
)

// debugErrors, when enabled, includes the internal error text in 500
// responses. Set from config at startup; never enabled in production.
var debugErrors bool

// SetDebugErrors toggles error detail in 500 responses.
func SetDebugErrors(on bool) { debugErrors = on }

// respondError translates domain sentinels into HTTP responses. Validation
// faults are 400, unresolved IDs 404, permission faults 403, duplicate keys
// 409; everything else is a generic 500 so internals never leak.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrReferenceNotFound),
		errors.Is(err, service.ErrSubcategoryNotFound),
		errors.Is(err, service.ErrNoMatchingLinks):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrMissingRequiredSection),
		errors.Is(err, service.ErrLastSection):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden),
		errors.Is(err, service.ErrStatusChangeNotAllowed):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	if debugErrors {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// decodeBody reads and decodes a JSON object body, rejecting empty or
// malformed payloads before any validation runs. The raw map is returned so
// callers can run key-set checks against their schema.
func decodeBody(c echo.Context) (map[string]any, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, errors.New("unreadable body")
	}
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if len(obj) == 0 {
		return nil, errors.New("empty body")
	}
	return obj, nil
}

// rebind decodes the already-verified raw object into a typed DTO.
func rebind(obj map[string]any, dst any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
