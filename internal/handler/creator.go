package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/middleware"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/service"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// CreatorHandler manages first- and second-degree creator records. One
// handler serves both kinds; the route group decides which repository and
// placeholder ID it is bound to.
type CreatorHandler struct {
	Cfg         config.Config
	Creators    *repository.CreatorRepo
	LinkSvc     *service.LinkService
	Coordinator *access.Coordinator
	Placeholder string // placeholder creator ID for this kind
	FirstDegree bool   // link-level operations only exist for FDCs
}

func NewCreatorHandler(cfg config.Config, creators *repository.CreatorRepo, linkSvc *service.LinkService, co *access.Coordinator, placeholderID string, firstDegree bool) *CreatorHandler {
	return &CreatorHandler{Cfg: cfg, Creators: creators, LinkSvc: linkSvc,
		Coordinator: co, Placeholder: placeholderID, FirstDegree: firstDegree}
}

var creatorUpdateOptional = []string{"creatorName", "creatorBio", "creatorImage"}

// List returns all creators of this kind.
func (h *CreatorHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Creators.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one creator by ID.
func (h *CreatorHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	creator, err := h.Creators.GetByID(ctx, c.Param("creatorId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, creator)
}

// Update patches a creator record. Admin tiers pass on role; a regular
// employee must be the creator's uploader or hold a temporary allowance,
// which is consumed when the response completes.
func (h *CreatorHandler) Update(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(nil, creatorUpdateOptional, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "unexpected": res.Unexpected,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("creatorId")
	creator, err := h.Creators.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.authorizeModification(c, p, creator); err != nil {
		return err
	}

	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok || s == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + k})
		}
		switch k {
		case "creatorName":
			fields["creator_name"] = s
		case "creatorBio":
			fields["creator_bio"] = s
		case "creatorImage":
			fields["creator_image"] = s
		}
	}
	if err := h.Creators.Update(ctx, id, fields); err != nil {
		return respondError(c, err)
	}
	creator, err = h.Creators.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, creator)
}

// Delete removes a first-degree creator and every link referencing it in one
// transaction. The content those links pointed at is left for the sweep.
func (h *CreatorHandler) Delete(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	id := c.Param("creatorId")
	if id == h.Placeholder {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete the placeholder creator"})
	}
	creator, err := h.Creators.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.authorizeModification(c, p, creator); err != nil {
		return err
	}

	if h.FirstDegree {
		links, creators, err := h.LinkSvc.DeleteCreatorAndLinks(ctx, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"deleted": id, "linksDeleted": links, "creatorsDeleted": creators,
		})
	}

	// Second-degree creators have no dedicated link cleanup; their links
	// keep the fdc reference and only lose the sdc on the next patch or
	// sweep-side reconciliation.
	tx, err := h.LinkSvc.DB.BeginTx(ctx, nil)
	if err != nil {
		return respondError(c, err)
	}
	n, err := h.Creators.DeleteTx(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return respondError(c, err)
	}
	if n == 0 {
		_ = tx.Rollback()
		return respondError(c, repository.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

// Retire points every link that references this creator alone (no secondary
// creator) at the placeholder record, so the creator can be removed without
// orphaning its content. First-degree creators only.
func (h *CreatorHandler) Retire(c echo.Context) error {
	if !h.FirstDegree {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	id := c.Param("creatorId")
	if id == h.Placeholder {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot retire the placeholder creator"})
	}
	creator, err := h.Creators.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.authorizeModification(c, p, creator); err != nil {
		return err
	}
	n, err := h.LinkSvc.ReassignCreatorLinks(ctx, id, h.Placeholder)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"retired": id, "linksReassigned": n})
}

// errResponded signals that the authorization helper already wrote the
// response; the handler just stops.
var errResponded = echo.NewHTTPError(http.StatusForbidden)

// authorizeModification applies the uploader-or-allowance rule. A consumed
// allowance is released after the response is written. On denial the response
// has already been written and errResponded comes back.
func (h *CreatorHandler) authorizeModification(c echo.Context, p model.Principal, creator model.Creator) error {
	if p.IsRoot() || p.Role == model.RoleDepartmentAdmin {
		return nil
	}
	if creator.UploaderEmployeeID == p.EmployeeID {
		return nil
	}
	allowance, release, err := h.Coordinator.CheckAndConsume(c.Request().Context(), p.EmployeeID)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		return errResponded
	}
	if !allowance {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": string(access.ReasonNoTemporaryAllowance)})
		return errResponded
	}
	if release != nil {
		c.Response().After(release)
	}
	return nil
}
