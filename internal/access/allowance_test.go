package access

import (
	"context"
	"testing"

	"github.com/hemanto/magazine-backend/internal/model"
)

// fakeStore records SetTemporaryApproval calls.
type fakeStore struct {
	employees map[string]model.Employee
	resets    []string
}

func (f *fakeStore) GetByID(_ context.Context, id string) (model.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return model.Employee{}, ErrNoEmployee
	}
	return e, nil
}

func (f *fakeStore) SetTemporaryApproval(_ context.Context, id string, approved bool) error {
	e := f.employees[id]
	e.TemporaryApproval = approved
	f.employees[id] = e
	if !approved {
		f.resets = append(f.resets, id)
	}
	return nil
}

func TestCheckAndConsumeOneShot(t *testing.T) {
	store := &fakeStore{employees: map[string]model.Employee{
		"emp_aaaaaaaaaaaa": {
			EmployeeID:        "emp_aaaaaaaaaaaa",
			EmployeeType:      "na",
			Department:        []string{"goddo"},
			TemporaryApproval: true,
		},
	}}
	co := NewCoordinator(store)

	granted, release, err := co.CheckAndConsume(context.Background(), "emp_aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("CheckAndConsume: %v", err)
	}
	if !granted {
		t.Fatal("armed flag must grant the window")
	}
	if release == nil {
		t.Fatal("granted non-root window must come with a release hook")
	}

	// The grant holds until release runs; a second check before the
	// response completes still sees the flag.
	granted2, _, err := co.CheckAndConsume(context.Background(), "emp_aaaaaaaaaaaa")
	if err != nil || !granted2 {
		t.Fatalf("flag must stay set until release: granted=%v err=%v", granted2, err)
	}

	release()
	if len(store.resets) != 1 || store.resets[0] != "emp_aaaaaaaaaaaa" {
		t.Fatalf("release must persist the reset, got %v", store.resets)
	}

	granted3, release3, err := co.CheckAndConsume(context.Background(), "emp_aaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("CheckAndConsume after release: %v", err)
	}
	if granted3 || release3 != nil {
		t.Fatal("window must cover exactly one completed cycle")
	}
}

func TestCheckAndConsumeRootAdmin(t *testing.T) {
	store := &fakeStore{employees: map[string]model.Employee{
		"emp_bbbbbbbbbbbb": {
			EmployeeID:   "emp_bbbbbbbbbbbb",
			EmployeeType: "ra",
			Department:   []string{"*"},
		},
	}}
	co := NewCoordinator(store)

	granted, release, err := co.CheckAndConsume(context.Background(), "emp_bbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("CheckAndConsume: %v", err)
	}
	if !granted || release != nil {
		t.Fatal("root admin is always granted with no release hook")
	}
	if len(store.resets) != 0 {
		t.Fatal("root admin grant must not touch the flag")
	}
}

func TestCheckAndConsumeUnknownEmployee(t *testing.T) {
	co := NewCoordinator(&fakeStore{employees: map[string]model.Employee{}})
	if _, _, err := co.CheckAndConsume(context.Background(), "emp_cccccccccccc"); err != ErrNoEmployee {
		t.Fatalf("want ErrNoEmployee, got %v", err)
	}
}
