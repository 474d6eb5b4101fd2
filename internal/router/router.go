// Package router wires handlers, middleware and route groups onto the Echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/handler"
	"github.com/hemanto/magazine-backend/internal/middleware"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Cfg         config.Config
	Rdb         *redis.Client
	Employees   *repository.EmployeeRepo
	Links       *repository.LinkRepo
	Auth        *handler.AuthHandler
	Employee    *handler.EmployeeHandler
	Content     *handler.ContentHandler
	Link        *handler.LinkHandler
	Fdc         *handler.CreatorHandler
	Sdc         *handler.CreatorHandler
	Coordinator *access.Coordinator
}

// Register wires all routes. The content surface is grouped per department
// with the access chain stacked in evaluation order: token, principal load,
// department validation, route access, explicit deny; modification routes add
// the per-item gate on top.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Login is unauthenticated; in production it sits behind the Redis
	// token bucket to slow credential stuffing.
	login := e.Group("/v1/auth")
	if d.Cfg.Env == "prod" {
		login.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Rdb))
	}
	login.POST("/login", d.Auth.Login)

	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	authed.Use(middleware.LoadPrincipal(d.Employees))

	// Employee administration: root admin only.
	admin := authed.Group("/employees")
	admin.Use(middleware.RequireRootAdmin())
	admin.GET("", d.Employee.List)
	admin.POST("", d.Employee.Create)
	admin.GET("/:employeeId", d.Employee.Get, middleware.ValidateIDParam("employeeId", utils.PrefixEmployee))
	admin.PATCH("/:employeeId", d.Employee.Update, middleware.ValidateIDParam("employeeId", utils.PrefixEmployee))
	admin.DELETE("/:employeeId", d.Employee.Delete, middleware.ValidateIDParam("employeeId", utils.PrefixEmployee))
	admin.POST("/:employeeId/temporary-approval", d.Employee.GrantTemporaryApproval, middleware.ValidateIDParam("employeeId", utils.PrefixEmployee))
	admin.PUT("/:employeeId/denied-departments", d.Employee.SetDeniedDepartments, middleware.ValidateIDParam("employeeId", utils.PrefixEmployee))

	// Creator management. Reads are open to any authenticated employee;
	// writes apply the uploader-or-allowance rule inside the handler.
	fdc := authed.Group("/creators/fdc")
	fdc.GET("", d.Fdc.List)
	fdc.GET("/:creatorId", d.Fdc.Get, middleware.ValidateIDParam("creatorId", utils.PrefixFdc))
	fdc.PATCH("/:creatorId", d.Fdc.Update, middleware.ValidateIDParam("creatorId", utils.PrefixFdc))
	fdc.DELETE("/:creatorId", d.Fdc.Delete, middleware.ValidateIDParam("creatorId", utils.PrefixFdc))
	fdc.POST("/:creatorId/retire", d.Fdc.Retire, middleware.ValidateIDParam("creatorId", utils.PrefixFdc))

	sdc := authed.Group("/creators/sdc")
	sdc.GET("", d.Sdc.List)
	sdc.GET("/:creatorId", d.Sdc.Get, middleware.ValidateIDParam("creatorId", utils.PrefixSdc))
	sdc.PATCH("/:creatorId", d.Sdc.Update, middleware.ValidateIDParam("creatorId", utils.PrefixSdc))
	sdc.DELETE("/:creatorId", d.Sdc.Delete, middleware.ValidateIDParam("creatorId", utils.PrefixSdc))

	// Department content surface.
	dept := authed.Group("/content/:department")
	dept.Use(middleware.ValidateDepartment(d.Cfg.Departments))
	dept.Use(middleware.RouteAccess())
	dept.Use(middleware.ExplicitDeny())

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Rdb)
	dept.GET("/subcategories", d.Content.ListSubcategories, cache)
	dept.POST("/subcategories", d.Content.CreateSubcategory)
	dept.GET("/items", d.Content.List, cache)
	dept.GET("/items/:contentId", d.Content.Get, cache)
	dept.POST("/items", d.Content.Create)

	// Per-item writes add the modification gate, which resolves the link
	// and consumes a temporary allowance when one is needed.
	mod := dept.Group("", middleware.ModificationAccess(d.Coordinator, d.Links))
	mod.PATCH("/links/:contentId", d.Link.Update)
	mod.PATCH("/subcategories/:subcategoryId/items/:contentId/metadata", d.Content.UpdateMetadata)
	mod.PATCH("/subcategories/:subcategoryId/items/:contentId/article", d.Content.UpdateArticle)
	mod.PATCH("/subcategories/:subcategoryId/items/:contentId/sections/:sectionId", d.Content.UpdateSection,
		middleware.ValidateIDParam("sectionId", utils.PrefixSection))
	mod.DELETE("/subcategories/:subcategoryId/items/:contentId/sections/:sectionId", d.Content.DeleteSection,
		middleware.ValidateIDParam("sectionId", utils.PrefixSection))
	mod.DELETE("/subcategories/:subcategoryId/items/:contentId", d.Content.Delete)
}
