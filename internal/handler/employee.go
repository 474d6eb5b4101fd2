package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hemanto/magazine-backend/internal/config"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// EmployeeHandler implements the root-admin-only employee administration
// surface: CRUD, the one-shot temporary approval grant, and the explicit-deny
// list.
type EmployeeHandler struct {
	Cfg       config.Config
	Employees *repository.EmployeeRepo
}

func NewEmployeeHandler(cfg config.Config, employees *repository.EmployeeRepo) *EmployeeHandler {
	return &EmployeeHandler{Cfg: cfg, Employees: employees}
}

// Payload schemas. Key sets are static per entity; an unexpected or missing
// key rejects the whole payload before any field is inspected.
var (
	employeeCreateRequired = []string{"email", "phone", "password", "employeeType",
		"department", "firstName", "lastName"}
	employeeCreateOptional = []string{"gender", "dateOfBirth", "deniedDepartment",
		"isActiveAccount"}
	employeeUpdateOptional = []string{"email", "phone", "employeeType", "department",
		"firstName", "lastName", "gender", "dateOfBirth", "isActiveAccount"}
)

type employeeCreateReq struct {
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	Password         string   `json:"password"`
	EmployeeType     string   `json:"employeeType"`
	Department       []string `json:"department"`
	DeniedDepartment []string `json:"deniedDepartment"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Gender           string   `json:"gender"`
	DateOfBirth      string   `json:"dateOfBirth"`
	IsActiveAccount  *bool    `json:"isActiveAccount"`
}

// List returns every employee record.
func (h *EmployeeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	emps, err := h.Employees.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, emps)
}

// Get returns one employee by ID.
func (h *EmployeeHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	emp, err := h.Employees.GetByID(ctx, c.Param("employeeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, emp)
}

// Create registers a new employee.
func (h *EmployeeHandler) Create(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(employeeCreateRequired, employeeCreateOptional,
		topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "missing": res.Missing,
			"unexpected": res.Unexpected,
		})
	}
	var req employeeCreateReq
	if err := rebind(obj, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := validateEmployeeFields(req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	id, err := utils.GenerateID(utils.PrefixEmployee)
	if err != nil {
		return respondError(c, err)
	}
	emp := model.Employee{
		EmployeeID:       id,
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            req.Phone,
		PasswordHash:     hash,
		EmployeeType:     strings.ToLower(req.EmployeeType),
		Department:       normalizeDepartments(req.Department),
		DeniedDepartment: normalizeDepartments(req.DeniedDepartment),
		IsActiveAccount:  true,
		DateJoined:       time.Now().UTC(),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Gender:           req.Gender,
	}
	if emp.DeniedDepartment == nil {
		emp.DeniedDepartment = []string{}
	}
	if req.IsActiveAccount != nil {
		emp.IsActiveAccount = *req.IsActiveAccount
	}
	if req.DateOfBirth != "" {
		dob, ok := utils.ParseISODate(req.DateOfBirth)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dateOfBirth"})
		}
		emp.DateOfBirth = &dob
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Employees.Create(ctx, emp); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, emp)
}

// Update patches employee fields. Email and phone stay unique; role and
// department changes take effect on the target's next request because
// authorization always re-reads the record.
func (h *EmployeeHandler) Update(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet(nil, employeeUpdateOptional, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "unexpected": res.Unexpected,
		})
	}

	fields := make(map[string]any, len(obj))
	var newType *string
	var newDepts []string
	for k, v := range obj {
		switch k {
		case "email":
			s, _ := v.(string)
			if !utils.ValidEmail(s) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
			}
			fields["email"] = strings.ToLower(strings.TrimSpace(s))
		case "phone":
			s, _ := v.(string)
			if !utils.ValidPhone(s) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone"})
			}
			fields["phone"] = s
		case "employeeType":
			s, _ := v.(string)
			if !validRole(s) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employeeType"})
			}
			role := strings.ToLower(s)
			fields["employee_type"] = role
			newType = &role
		case "department":
			depts, ok := stringSlice(v)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid department list"})
			}
			newDepts = normalizeDepartments(depts)
			raw, err := jsonArray(newDepts)
			if err != nil {
				return respondError(c, err)
			}
			fields["department"] = raw
		case "firstName", "lastName":
			s, _ := v.(string)
			if !utils.ValidName(s) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + k})
			}
			fields[map[string]string{"firstName": "first_name", "lastName": "last_name"}[k]] = s
		case "gender":
			s, _ := v.(string)
			fields["gender"] = s
		case "dateOfBirth":
			s, _ := v.(string)
			dob, ok := utils.ParseISODate(s)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dateOfBirth"})
			}
			fields["date_of_birth"] = dob
		case "isActiveAccount":
			b, ok := v.(bool)
			if !ok {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid isActiveAccount"})
			}
			fields["is_active_account"] = b
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("employeeId")
	if newType != nil || newDepts != nil {
		// The wildcard rule is checked against the record as it will look
		// after the patch, so role and department can never drift apart.
		cur, err := h.Employees.GetByID(ctx, id)
		if err != nil {
			return respondError(c, err)
		}
		effType, effDepts := cur.EmployeeType, cur.Department
		if newType != nil {
			effType = *newType
		}
		if newDepts != nil {
			effDepts = newDepts
		}
		if msg := rootPairError(effType, effDepts); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
	}
	if err := h.Employees.Update(ctx, id, fields); err != nil {
		return respondError(c, err)
	}
	emp, err := h.Employees.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, emp)
}

// Delete removes an employee account. Their links survive; content they
// uploaded stays owned by the dangling ID until reassigned.
func (h *EmployeeHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Employees.Delete(ctx, c.Param("employeeId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": c.Param("employeeId")})
}

// GrantTemporaryApproval arms the one-shot allowance for an employee. The
// flag covers exactly one completed modification request and is cleared by
// the coordinator's release hook.
func (h *EmployeeHandler) GrantTemporaryApproval(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("employeeId")
	if _, err := h.Employees.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	if err := h.Employees.SetTemporaryApproval(ctx, id, true); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"employeeID": id, "temporaryApproval": true})
}

type deniedReq struct {
	DeniedDepartment []string `json:"deniedDepartment"`
}

// SetDeniedDepartments replaces an employee's explicit-deny list. Denial
// overrides membership for everyone except the root admin.
func (h *EmployeeHandler) SetDeniedDepartments(c echo.Context) error {
	obj, err := decodeBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if res := utils.CheckKeySet([]string{"deniedDepartment"}, nil, topLevelKeys(obj)); !res.OK {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "payload keys do not match schema", "missing": res.Missing,
			"unexpected": res.Unexpected,
		})
	}
	var req deniedReq
	if err := rebind(obj, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	id := c.Param("employeeId")
	denied := normalizeDepartments(req.DeniedDepartment)
	if denied == nil {
		denied = []string{}
	}
	if err := h.Employees.SetDeniedDepartments(ctx, id, denied); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"employeeID": id, "deniedDepartment": denied})
}

func validateEmployeeFields(req employeeCreateReq) string {
	if !utils.ValidEmail(req.Email) {
		return "invalid email"
	}
	if !utils.ValidPhone(req.Phone) {
		return "invalid phone"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	if !validRole(req.EmployeeType) {
		return "invalid employeeType"
	}
	if len(req.Department) == 0 {
		return "department list required"
	}
	if msg := rootPairError(req.EmployeeType, normalizeDepartments(req.Department)); msg != "" {
		return msg
	}
	if !utils.ValidName(req.FirstName) || !utils.ValidName(req.LastName) {
		return "invalid name"
	}
	return ""
}

// rootPairError enforces the wildcard rule on stored records: a root admin's
// department list is exactly ["*"]. Every authorization path assumes the pair,
// so a record carrying the role without the wildcard is rejected outright.
func rootPairError(employeeType string, departments []string) string {
	if strings.ToLower(employeeType) != model.RoleRootAdmin {
		return ""
	}
	if len(departments) == 1 && departments[0] == model.WildcardDepartment {
		return ""
	}
	return `root admin department list must be exactly ["*"]`
}

func validRole(s string) bool {
	switch strings.ToLower(s) {
	case model.RoleRootAdmin, model.RoleDepartmentAdmin, model.RoleRegular:
		return true
	}
	return false
}

// normalizeDepartments lowercases and trims, keeping the wildcard as-is.
func normalizeDepartments(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
