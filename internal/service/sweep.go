package service

import (
	"context"
	"log"
	"time"

	"github.com/hemanto/magazine-backend/internal/queue"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// SweepPublisher is the slice of the event pipeline the sweep uses.
type SweepPublisher interface {
	SweepCompleted(ctx context.Context, ev queue.SweepReportEvent) error
}

// Sweeper is the orphan reconciliation job. Deletes leave dangling references
// behind on purpose; the sweep walks the link table's reference columns and
// removes creators and content that no link points at anymore. A second
// maintenance step rehashes any employee password still stored in plaintext
// from a legacy import. Each step runs in isolation so one failure never
// blocks the others.
type Sweeper struct {
	Links     *repository.LinkRepo
	Fdcs      *repository.CreatorRepo
	Sdcs      *repository.CreatorRepo
	Contents  *repository.ContentRepo
	Employees *repository.EmployeeRepo

	// Departments drives the per-department content scan.
	Departments []string
	// PlaceholderFdcID and PlaceholderSdcID are never collected even when
	// unreferenced; retired creators' links are reassigned onto them.
	PlaceholderFdcID string
	PlaceholderSdcID string
	Interval         time.Duration
	BcryptCost       int
	Events           SweepPublisher // optional
}

// Start runs one sweep immediately and then on every tick until the context
// is cancelled. It blocks; run it in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	s.RunOnce(ctx)
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweep: stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes all sweep steps and returns the report that was also
// logged and published.
func (s *Sweeper) RunOnce(ctx context.Context) queue.SweepReportEvent {
	started := time.Now().UTC()
	report := queue.SweepReportEvent{StartedAt: started.Format(time.RFC3339)}

	report.Steps = append(report.Steps,
		s.step("orphaned first-degree creators", func() (int64, error) {
			return s.sweepCreators(ctx, s.Fdcs, "fdc_id", s.PlaceholderFdcID)
		}),
		s.step("orphaned second-degree creators", func() (int64, error) {
			return s.sweepCreators(ctx, s.Sdcs, "sdc_id", s.PlaceholderSdcID)
		}))
	for _, dept := range s.Departments {
		dept := dept
		report.Steps = append(report.Steps,
			s.step("orphaned content in "+dept, func() (int64, error) {
				return s.sweepContents(ctx, dept)
			}))
	}
	report.Steps = append(report.Steps,
		s.step("plaintext password rehash", func() (int64, error) {
			return s.rehashPasswords(ctx)
		}))

	report.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if s.Events != nil {
		if err := s.Events.SweepCompleted(ctx, report); err != nil {
			log.Printf("sweep: publish report failed: %v", err)
		}
	}
	return report
}

func (s *Sweeper) step(name string, fn func() (int64, error)) queue.SweepStep {
	st := queue.SweepStep{Name: name}
	n, err := fn()
	st.Removed = n
	if err != nil {
		st.Error = err.Error()
		log.Printf("sweep: %s failed: %v", name, err)
		return st
	}
	if n == 0 {
		log.Printf("sweep: %s: no drift", name)
	} else {
		log.Printf("sweep: %s: removed %d", name, n)
	}
	return st
}

// sweepCreators removes creators no link references. The snapshot of
// referenced IDs is taken before the creator scan so a creator added between
// the two reads can at worst survive until the next run, never be deleted
// while referenced.
func (s *Sweeper) sweepCreators(ctx context.Context, repo *repository.CreatorRepo, column, placeholderID string) (int64, error) {
	referenced, err := s.Links.ReferencedIDs(ctx, column)
	if err != nil {
		return 0, err
	}
	ids, err := repo.IDs(ctx)
	if err != nil {
		return 0, err
	}
	orphans := subtract(ids, referenced, placeholderID)
	if len(orphans) > 0 {
		log.Printf("sweep: collecting %s orphans: %v", column, orphans)
	}
	return repo.DeleteByIDs(ctx, orphans)
}

// sweepContents removes a department's content items no link references,
// sections included.
func (s *Sweeper) sweepContents(ctx context.Context, department string) (int64, error) {
	referenced, err := s.Links.ReferencedIDs(ctx, "content_id")
	if err != nil {
		return 0, err
	}
	ids, err := s.Contents.ContentIDs(ctx, department)
	if err != nil {
		return 0, err
	}
	orphans := subtract(ids, referenced, "")
	if len(orphans) > 0 {
		log.Printf("sweep: collecting %s content orphans: %v", department, orphans)
	}
	return s.Contents.DeleteContentsByIDs(ctx, orphans)
}

// rehashPasswords bcrypt-hashes every employee password stored in plaintext.
// Rows are rewritten one at a time so one bad row never aborts the rest.
func (s *Sweeper) rehashPasswords(ctx context.Context) (int64, error) {
	plain, err := s.Employees.ListPlaintextPasswords(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for employeeID, password := range plain {
		hash, err := utils.HashPassword(password, s.BcryptCost)
		if err != nil {
			log.Printf("sweep: hash password for %s failed: %v", employeeID, err)
			continue
		}
		if err := s.Employees.SetPasswordHash(ctx, employeeID, hash); err != nil {
			log.Printf("sweep: store password hash for %s failed: %v", employeeID, err)
			continue
		}
		n++
	}
	return n, nil
}

// subtract returns the members of ids absent from referenced, skipping the
// exempt ID.
func subtract(ids, referenced []string, exempt string) []string {
	seen := make(map[string]struct{}, len(referenced))
	for _, id := range referenced {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if id == exempt {
			continue
		}
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
