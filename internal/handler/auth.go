// Package handler contains the HTTP endpoints: login, employee
// administration, creator management, subcategories and the content
// lifecycle. Handlers bind and validate payloads, delegate to the services
// and repositories, and translate domain errors into status codes.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// AuthHandler bundles dependencies for the login endpoint.
type AuthHandler struct {
	Cfg       config.Config
	Employees *repository.EmployeeRepo
}

func NewAuthHandler(cfg config.Config, employees *repository.EmployeeRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Employees: employees}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	EmployeeID   string    `json:"employeeID"`
	Email        string    `json:"email"`
	EmployeeType string    `json:"employeeType"`
	Access       tokenPart `json:"access"`
}

// Login verifies email and password and returns a short-lived access token.
// The token carries only identity and role; authorization state is re-read
// from the employees table on every request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	emp, err := h.Employees.GetByEmailWithPassword(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(emp.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !emp.IsActiveAccount {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, emp.EmployeeID, emp.EmployeeType, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Employees.TouchLastLogin(ctx, emp.EmployeeID); err != nil {
		// Stamping failure must not block the login itself.
		c.Logger().Warnf("login: last_login stamp failed for %s: %v", emp.EmployeeID, err)
	}

	return c.JSON(http.StatusOK, loginResp{
		EmployeeID:   emp.EmployeeID,
		Email:        emp.Email,
		EmployeeType: emp.EmployeeType,
		Access:       tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
