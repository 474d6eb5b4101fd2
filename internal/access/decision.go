// Package access implements the authorization engine: pure decision
// functions over a request principal plus the temporary allowance
// coordinator that backs one-shot elevated modifications.
//
// Decisions are evaluated in layers.  Route access gates a whole department
// surface; explicit denial is checked independently and overrides membership
// for everyone except root admins; modification access is the stricter,
// per-record gate that only the uploader (or an admin) can pass.  Root-admin
// bypass always requires both the "ra" role and the wildcard department —
// the same predicate everywhere.
package access

import (
	"strings"

	"github.com/hemanto/magazine-backend/internal/model"
)

// Reason explains a denial.  Allowed decisions carry an empty reason.
type Reason string

const (
	ReasonDeniedDepartment     Reason = "department explicitly denied"
	ReasonNotAMember           Reason = "not permitted in this department"
	ReasonNotOwner             Reason = "not the uploader of this content"
	ReasonNotEditingPhase      Reason = "content is not in editing phase"
	ReasonNoTemporaryAllowance Reason = "no temporary allowance granted"
	ReasonInvalidStatusChange  Reason = "only a lone contentStatus=pending change is permitted"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// DecideRouteAccess gates a department-level route.  Root admins and
// department admins holding the wildcard pass everywhere; everyone else needs
// the department on their list.
func DecideRouteAccess(p model.Principal, department string) Decision {
	if p.IsRoot() {
		return allow()
	}
	if p.Role == model.RoleDepartmentAdmin && p.HasWildcard() {
		return allow()
	}
	if p.InDepartment(department) {
		return allow()
	}
	return deny(ReasonNotAMember)
}

// DecideExplicitDeny applies the explicit-deny list.  It is checked
// independently of membership and overrides it for non-root principals.
func DecideExplicitDeny(p model.Principal, department string) Decision {
	if p.IsRoot() {
		return allow()
	}
	if p.IsDenied(department) {
		return deny(ReasonDeniedDepartment)
	}
	return allow()
}

// DecideModificationAccess gates edits to one specific content item.  Admin
// tiers pass on role; a regular employee passes only as the original uploader
// of the item, and then only while the link is still in editing phase or a
// temporary allowance is currently granted.
func DecideModificationAccess(p model.Principal, link model.Link, department string, allowance bool) Decision {
	if p.IsRoot() {
		return allow()
	}
	if p.Role == model.RoleDepartmentAdmin {
		for _, d := range p.Departments {
			if d == model.WildcardDepartment || strings.EqualFold(d, department) {
				return allow()
			}
		}
	}
	if link.EmployeeID != p.EmployeeID {
		return deny(ReasonNotOwner)
	}
	if link.ContentStatus == model.StatusEditing {
		return allow()
	}
	if allowance {
		return allow()
	}
	if link.ContentStatus == model.StatusPending || link.ContentStatus == model.StatusReady {
		return deny(ReasonNotEditingPhase)
	}
	return deny(ReasonNoTemporaryAllowance)
}

// HasFullAccess reports whether the principal belongs to an admin tier for
// the given department: root admin, or department admin whose list covers the
// department (wildcard or case-insensitive match).
func HasFullAccess(p model.Principal, department string) bool {
	if p.IsRoot() {
		return true
	}
	if p.Role != model.RoleDepartmentAdmin {
		return false
	}
	for _, d := range p.Departments {
		if d == model.WildcardDepartment || strings.EqualFold(d, department) {
			return true
		}
	}
	return false
}

// ValidateStatusChange enforces the one-way submission workflow on link
// patches.  Admin-tier principals may patch freely.  A regular employee may
// only submit {contentStatus: "pending"} as the sole field, and only while
// the link currently sits in editing phase; pending and ready are beyond
// their reach.
func ValidateStatusChange(p model.Principal, link model.Link, patch model.LinkPatch, department string) Decision {
	if HasFullAccess(p, department) {
		return allow()
	}
	if !patch.StatusOnly() || *patch.ContentStatus != model.StatusPending {
		return deny(ReasonInvalidStatusChange)
	}
	if link.ContentStatus != model.StatusEditing {
		return deny(ReasonInvalidStatusChange)
	}
	return allow()
}
