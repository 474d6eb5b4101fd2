package access

import (
	"context"
	"errors"
	"log"

	"github.com/hemanto/magazine-backend/internal/model"
)

// AllowanceStore is the slice of employee persistence the coordinator needs.
// *repository.EmployeeRepo satisfies it.
type AllowanceStore interface {
	GetByID(ctx context.Context, employeeID string) (model.Employee, error)
	SetTemporaryApproval(ctx context.Context, employeeID string, approved bool) error
}

// ErrNoEmployee is returned when the allowance check cannot resolve the
// requesting employee.
var ErrNoEmployee = errors.New("no logged-in employee found")

// Coordinator owns the temporary allowance flag.  The flag is a one-shot
// escalation: it covers exactly one completed request-response cycle and is
// reset by the release hook, not by a timer.  All mutation of the flag goes
// through this type.
//
// Two racing requests against the same employee may both observe the flag as
// true before either release fires; the reset is last-writer-wins.  This is
// an accepted trade-off for a low-traffic admin action, not a single-use
// token guarantee.
type Coordinator struct {
	store AllowanceStore
}

// NewCoordinator returns a Coordinator over the given employee store.
func NewCoordinator(store AllowanceStore) *Coordinator {
	if store == nil {
		panic("nil store passed to NewCoordinator")
	}
	return &Coordinator{store: store}
}

// CheckAndConsume reports whether the employee currently holds an elevated
// window.  Root admins with the wildcard department are always granted and
// get no release hook.  For everyone else the current temporaryApproval value
// is returned; when it is true the caller must arrange for release to run
// after the response has been written, which clears and persists the flag.
func (co *Coordinator) CheckAndConsume(ctx context.Context, employeeID string) (bool, func(), error) {
	emp, err := co.store.GetByID(ctx, employeeID)
	if err != nil {
		return false, nil, ErrNoEmployee
	}
	p := model.PrincipalOf(emp)
	if p.IsRoot() {
		return true, nil, nil
	}
	if !emp.TemporaryApproval {
		return false, nil, nil
	}
	release := func() {
		// Runs after the response; the request context is gone by then.
		if err := co.store.SetTemporaryApproval(context.Background(), employeeID, false); err != nil {
			log.Printf("allowance: failed to reset temporaryApproval for %s: %v", employeeID, err)
			return
		}
		log.Printf("allowance: temporaryApproval reset for %s", employeeID)
	}
	return true, release, nil
}
