package model // package model defines the persistent entities of the magazine backend

import (
	"strings"
	"time"
)

// Employee type codes stored in the employees table.  "ra" is a root admin,
// "da" a department admin and "na" a regular employee with no admin powers.
const (
	RoleRootAdmin       = "ra"
	RoleDepartmentAdmin = "da"
	RoleRegular         = "na"
)

// WildcardDepartment grants access to every department when present in an
// employee's department list.  Root admins always carry it.
const WildcardDepartment = "*"

// Employee mirrors the employees table.  It is the source of truth for
// authorization: a verified token only identifies the employee, the
// departments, denials and the temporary approval flag are always re-read
// from this record.
type Employee struct {
	EmployeeID        string     `json:"employeeID"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	PasswordHash      string     `json:"-"`
	EmployeeType      string     `json:"employeeType"`
	Department        []string   `json:"department"`
	DeniedDepartment  []string   `json:"deniedDepartment"`
	TemporaryApproval bool       `json:"temporaryApproval"`
	IsActiveAccount   bool       `json:"isActiveAccount"`
	DateJoined        time.Time  `json:"dateJoined"`
	LastLogin         *time.Time `json:"lastLogin"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Gender            string     `json:"gender"`
	DateOfBirth       *time.Time `json:"dateOfBirth"`
}

// Principal is the authorization view of an employee for a single request.
type Principal struct {
	EmployeeID         string
	Role               string
	Departments        []string
	DeniedDepartments  []string
	TemporaryAllowance bool
}

// PrincipalOf builds the Principal for an employee record.
func PrincipalOf(e Employee) Principal {
	return Principal{
		EmployeeID:         e.EmployeeID,
		Role:               strings.ToLower(e.EmployeeType),
		Departments:        e.Department,
		DeniedDepartments:  e.DeniedDepartment,
		TemporaryAllowance: e.TemporaryApproval,
	}
}

// HasWildcard reports whether the principal's department list contains "*".
func (p Principal) HasWildcard() bool {
	for _, d := range p.Departments {
		if d == WildcardDepartment {
			return true
		}
	}
	return false
}

// InDepartment reports membership in a department, case-insensitively.
// The wildcard does not count as membership here; callers that want the
// wildcard rule use IsRoot or check HasWildcard explicitly.
func (p Principal) InDepartment(department string) bool {
	for _, d := range p.Departments {
		if strings.EqualFold(d, department) {
			return true
		}
	}
	return false
}

// IsDenied reports whether the department appears on the explicit-deny list.
func (p Principal) IsDenied(department string) bool {
	for _, d := range p.DeniedDepartments {
		if strings.EqualFold(d, department) {
			return true
		}
	}
	return false
}

// IsRoot reports whether the principal is a root admin.  Root status requires
// both the "ra" type and the wildcard department; the two are kept consistent
// by the employee admin endpoints, and every bypass in the access engine uses
// this single predicate.
func (p Principal) IsRoot() bool {
	return p.Role == RoleRootAdmin && p.HasWildcard()
}
