package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/middleware"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/service"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// ContentHandler serves the department content surface: subcategories and the
// content lifecycle. Route-level access, explicit-deny and per-item
// modification gates have already run in the middleware chain.
type ContentHandler struct {
	Cfg      config.Config
	Svc      *service.ContentService
	Contents *repository.ContentRepo
}

func NewContentHandler(cfg config.Config, svc *service.ContentService, contents *repository.ContentRepo) *ContentHandler {
	return &ContentHandler{Cfg: cfg, Svc: svc, Contents: contents}
}

// Payload schemas. Creation declares the full key set; patch endpoints accept
// subsets of the mutable keys so the immutable ones can never slip through.
var (
	contentCreateRequired = []string{"subcategoryID", "fdc", "article"}
	contentCreateOptional = []string{"sdc", "originalWritingDate"}
	articleRequired       = []string{"articleCover", "articleName", "articleTrailer",
		"aboutArticle", "sections"}
	articlePatchOptional = []string{"articleCover", "articleName", "articleTrailer",
		"aboutArticle"}
	sectionPatchOptional = []string{"sectionArticle", "sectionImages"}
)

type contentCreateReq struct {
	SubcategoryID       string               `json:"subcategoryID"`
	Fdc                 service.CreatorSpec  `json:"fdc"`
	Sdc                 *service.CreatorSpec `json:"sdc"`
	OriginalWritingDate string               `json:"originalWritingDate"`
	Article             struct {
		ArticleCover   string                 `json:"articleCover"`
		ArticleName    string                 `json:"articleName"`
		ArticleTrailer string                 `json:"articleTrailer"`
		AboutArticle   string                 `json:"aboutArticle"`
		Sections       []service.SectionInput `json:"sections"`
	} `json:"article"`
}

// CreateSubcategory adds a named content bucket to the department.
func (h *ContentHandler) CreateSubcategory(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet([]string{"subcategoryName"}, nil, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "missing": res.Missing,
			"unexpected": res.Unexpected,
		})
	}
	name, _ := obj["subcategoryName"].(string)
	if strings.TrimSpace(name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subcategoryName required"})
	}

	dept := c.Param("department")
	id, err := utils.GenerateID(service.SubcategoryPrefix(dept))
	if err != nil {
		return respondError(c, err)
	}
	sub := model.Subcategory{SubcategoryID: id, Department: dept, SubcategoryName: name}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Contents.CreateSubcategory(ctx, sub); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sub)
}

// ListSubcategories returns the department's subcategories.
func (h *ContentHandler) ListSubcategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	subs, err := h.Contents.ListSubcategories(ctx, c.Param("department"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, subs)
}

// Create makes a content item with its sections, link and creators in one
// transaction.
func (h *ContentHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(contentCreateRequired, contentCreateOptional,
		topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "missing": res.Missing,
			"unexpected": res.Unexpected,
		})
	}
	if article, ok := obj["article"].(map[string]any); ok {
		if res := utils.CheckKeySet(articleRequired, nil, topLevelKeys(article)); !res.OK {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "article keys do not match schema", "missing": res.Missing,
				"unexpected": res.Unexpected,
			})
		}
	} else {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "article must be an object"})
	}
	var req contentCreateReq
	if err := rebind(obj, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	in := service.ContentInput{
		ArticleCover:   req.Article.ArticleCover,
		ArticleName:    req.Article.ArticleName,
		ArticleTrailer: req.Article.ArticleTrailer,
		AboutArticle:   req.Article.AboutArticle,
		Sections:       req.Article.Sections,
	}
	if req.OriginalWritingDate != "" {
		owd, ok := utils.ParseISODate(req.OriginalWritingDate)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid originalWritingDate"})
		}
		in.OriginalWritingDate = &owd
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	link, item, err := h.Svc.CreateContent(ctx, c.Param("department"),
		req.SubcategoryID, req.Fdc, req.Sdc, in, p.EmployeeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"link": link, "content": item})
}

// List returns the department's content the principal may see.
func (h *ContentHandler) List(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	out, err := h.Svc.ListContent(ctx, p, c.Param("department"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one assembled content item.
func (h *ContentHandler) Get(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	info, err := h.Svc.GetContent(ctx, p, c.Param("department"), c.Param("contentId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// UpdateSection patches one section of a content item.
func (h *ContentHandler) UpdateSection(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(nil, sectionPatchOptional, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "unexpected": res.Unexpected,
		})
	}
	var patch service.SectionPatch
	if v, ok := obj["sectionArticle"]; ok {
		s, ok := v.(string)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sectionArticle"})
		}
		patch.SectionArticle = &s
	}
	if v, ok := obj["sectionImages"]; ok {
		images, ok := stringSlice(v)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sectionImages"})
		}
		patch.SectionImages = images
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.UpdateSection(ctx, c.Param("department"), c.Param("subcategoryId"),
		c.Param("contentId"), c.Param("sectionId"), patch); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": c.Param("sectionId")})
}

// UpdateMetadata patches the original writing date. contentID and
// contentAddedDate are system-owned and rejected by the key-set check.
func (h *ContentHandler) UpdateMetadata(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet([]string{"originalWritingDate"}, nil, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "missing": res.Missing,
			"unexpected": res.Unexpected,
		})
	}
	var owd *time.Time
	if s, ok := obj["originalWritingDate"].(string); ok && s != "" {
		t, ok := utils.ParseISODate(s)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid originalWritingDate"})
		}
		owd = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.UpdateMetadata(ctx, c.Param("department"), c.Param("subcategoryId"),
		c.Param("contentId"), owd); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": c.Param("contentId")})
}

// UpdateArticle patches article fields. Sections are only mutable through the
// section endpoints; a payload naming mainContent is rejected wholesale.
func (h *ContentHandler) UpdateArticle(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(nil, articlePatchOptional, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "unexpected": res.Unexpected,
		})
	}
	cols := map[string]string{
		"articleCover": "article_cover", "articleName": "article_name",
		"articleTrailer": "article_trailer", "aboutArticle": "about_article",
	}
	fields := make(map[string]any, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + k})
		}
		fields[cols[k]] = s
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.UpdateArticle(ctx, c.Param("department"), c.Param("subcategoryId"),
		c.Param("contentId"), fields); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": c.Param("contentId")})
}

// DeleteSection removes one section; the last section of an item cannot go.
func (h *ContentHandler) DeleteSection(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Svc.DeleteSection(ctx, c.Param("department"), c.Param("subcategoryId"),
		c.Param("contentId"), c.Param("sectionId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("sectionId")})
}

// Delete removes a content item, its sections and its link atomically.
func (h *ContentHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	if err := h.Svc.DeleteContent(ctx, c.Param("department"), c.Param("subcategoryId"),
		c.Param("contentId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("contentId")})
}
