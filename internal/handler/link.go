package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/middleware"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/service"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// LinkHandler exposes the standalone link mutations.
type LinkHandler struct {
	Svc *service.LinkService
}

func NewLinkHandler(svc *service.LinkService) *LinkHandler {
	return &LinkHandler{Svc: svc}
}

var linkPatchOptional = []string{"employeeID", "fdcID", "sdcID", "contentStatus"}

// Update patches the link of a content item. References must resolve;
// non-privileged employees are limited to the lone editing→pending
// submission. An explicit null sdcID clears the secondary creator.
func (h *LinkHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(nil, linkPatchOptional, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "unexpected": res.Unexpected,
		})
	}

	var patch model.LinkPatch
	if v, ok := obj["employeeID"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employeeID"})
		}
		patch.EmployeeID = &s
	}
	if v, ok := obj["fdcID"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fdcID"})
		}
		patch.FdcID = &s
	}
	if v, ok := obj["sdcID"]; ok {
		if v == nil {
			patch.SetSdcNil = true
		} else {
			s, ok := v.(string)
			if !ok || s == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sdcID"})
			}
			patch.SdcID = &s
		}
	}
	if v, ok := obj["contentStatus"]; ok {
		s, ok := v.(string)
		switch {
		case !ok:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contentStatus"})
		case s != model.StatusEditing && s != model.StatusPending && s != model.StatusReady:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contentStatus"})
		}
		patch.ContentStatus = &s
	}
	if patch.IsEmpty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty patch"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	link, err := h.Svc.UpdateLink(ctx, p, c.Param("department"), c.Param("contentId"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, link)
}
