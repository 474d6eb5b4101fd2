package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// Context keys shared between the access chain and the handlers.
const (
	principalKey = "principal"
	linkKey      = "link"
)

// Principal returns the principal loaded for the current request.
func Principal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// RequestLink returns the link resolved by ModificationAccess, if any.
func RequestLink(c echo.Context) (model.Link, bool) {
	l, ok := c.Get(linkKey).(model.Link)
	return l, ok
}

// LoadPrincipal re-reads the authenticated employee from the database and
// stores the authorization view in the context. The token only names the
// employee; role, departments, denials and the allowance flag always come
// from the current record. Deactivated accounts are rejected here.
func LoadPrincipal(employees *repository.EmployeeRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get("employee_id").(string)
			if id == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			emp, err := employees.GetByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown employee"})
				}
				return err
			}
			if !emp.IsActiveAccount {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
			}
			c.Set(principalKey, model.PrincipalOf(emp))
			return next(c)
		}
	}
}

// ValidateDepartment rejects requests whose :department param is not one of
// the configured departments. The param is lowercased in place so downstream
// lookups are consistent.
func ValidateDepartment(departments []string) echo.MiddlewareFunc {
	valid := make(map[string]bool, len(departments))
	for _, d := range departments {
		valid[strings.ToLower(d)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			dept := strings.ToLower(c.Param("department"))
			if !valid[dept] {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown department"})
			}
			c.SetParamValues(setParam(c, "department", dept)...)
			return next(c)
		}
	}
}

// setParam returns the param values with one entry replaced.
func setParam(c echo.Context, name, value string) []string {
	names := c.ParamNames()
	values := append([]string(nil), c.ParamValues()...)
	for i, n := range names {
		if n == name && i < len(values) {
			values[i] = value
		}
	}
	return values
}

// ValidateIDParam rejects requests whose named param does not match the
// prefix+hex ID shape, before any handler touches the database.
func ValidateIDParam(param, prefix string) echo.MiddlewareFunc {
	re := utils.IDPattern(prefix)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !re.MatchString(c.Param(param)) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed " + param})
			}
			return next(c)
		}
	}
}

// RouteAccess gates a department surface: root admins and wildcard department
// admins pass everywhere, everyone else needs the department on their list.
func RouteAccess() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			if d := access.DecideRouteAccess(p, c.Param("department")); !d.Allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": string(d.Reason)})
			}
			return next(c)
		}
	}
}

// ExplicitDeny applies the explicit-deny list after route access: denial
// overrides membership for everyone but the root admin.
func ExplicitDeny() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			if d := access.DecideExplicitDeny(p, c.Param("department")); !d.Allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": string(d.Reason)})
			}
			return next(c)
		}
	}
}

// ModificationAccess gates writes to one content item. It resolves the item's
// link, consults the temporary allowance, and lets the request through only
// for admins or for the uploader during editing phase or an allowance window.
// When an allowance is consumed, its reset hook runs after the response is
// written, so the window covers exactly this request-response cycle. The
// resolved link is stored in the context for the handler.
func ModificationAccess(co *access.Coordinator, links *repository.LinkRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			link, err := links.GetByContentIDInDepartment(c.Request().Context(),
				c.Param("contentId"), c.Param("department"))
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusNotFound, echo.Map{"error": "content not found"})
				}
				return err
			}
			allowance, release, err := co.CheckAndConsume(c.Request().Context(), p.EmployeeID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			d := access.DecideModificationAccess(p, link, c.Param("department"), allowance)
			if !d.Allowed {
				return c.JSON(http.StatusForbidden, echo.Map{"error": string(d.Reason)})
			}
			if release != nil {
				c.Response().After(release)
			}
			c.Set(linkKey, link)
			return next(c)
		}
	}
}
