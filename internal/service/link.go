package service

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/repository"
)

// LinkService owns every standalone mutation of link records: patching a
// link's references, the editing→pending submission workflow, bulk
// reassignment onto the placeholder creator, and deleting a creator together
// with its links. Link writes that pair with content writes live in
// ContentService instead, where they share the content transaction.
type LinkService struct {
	DB        *sql.DB
	Links     *repository.LinkRepo
	Fdcs      *repository.CreatorRepo
	Sdcs      *repository.CreatorRepo
	Employees *repository.EmployeeRepo
}

// NewLinkService wires a LinkService.
func NewLinkService(db *sql.DB, links *repository.LinkRepo, fdcs, sdcs *repository.CreatorRepo, employees *repository.EmployeeRepo) *LinkService {
	if db == nil || links == nil || fdcs == nil || sdcs == nil || employees == nil {
		panic("nil dependency passed to NewLinkService")
	}
	return &LinkService{DB: db, Links: links, Fdcs: fdcs, Sdcs: sdcs, Employees: employees}
}

// UpdateLink patches the link for a content item.  Every replacement
// reference must resolve to an existing entity, and non-privileged employees
// are held to the one-way submission rule: only {contentStatus: "pending"} as
// the sole field, and only while the link is still in editing phase.
func (s *LinkService) UpdateLink(ctx context.Context, p model.Principal, department, contentID string, patch model.LinkPatch) (model.Link, error) {
	link, err := s.Links.GetByContentIDInDepartment(ctx, contentID, department)
	if err != nil {
		return model.Link{}, err
	}

	if d := access.ValidateStatusChange(p, link, patch, department); !d.Allowed {
		return model.Link{}, ErrStatusChangeNotAllowed
	}

	// Validate replacement references before touching the row.
	if patch.FdcID != nil {
		if _, err := s.Fdcs.GetByID(ctx, *patch.FdcID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Link{}, ErrReferenceNotFound
			}
			return model.Link{}, err
		}
	}
	if patch.SdcID != nil {
		if _, err := s.Sdcs.GetByID(ctx, *patch.SdcID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Link{}, ErrReferenceNotFound
			}
			return model.Link{}, err
		}
	}
	if patch.EmployeeID != nil {
		if _, err := s.Employees.GetByID(ctx, *patch.EmployeeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Link{}, ErrReferenceNotFound
			}
			return model.Link{}, err
		}
	}

	if err := s.Links.Update(ctx, contentID, patch); err != nil {
		return model.Link{}, err
	}
	return s.Links.GetByContentID(ctx, contentID)
}

// ReassignCreatorLinks consolidates links onto another creator: every link
// whose fdc is the source and whose sdc is null is pointed at the target.
// Used when a creator record is being retired in favor of the placeholder.
// Zero modified rows is a failure, whether the source creator has no links at
// all or every one of its links carries a secondary creator.
func (s *LinkService) ReassignCreatorLinks(ctx context.Context, fromFdcID, toFdcID string) (int64, error) {
	n, err := s.Links.ReassignFdcWhereSdcNull(ctx, fromFdcID, toFdcID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoMatchingLinks
	}
	return n, nil
}

// DeleteCreatorAndLinks removes a first-degree creator and every link that
// references it in one transaction. The content rows those links pointed at
// become orphans and are collected by the next reconciliation sweep.
func (s *LinkService) DeleteCreatorAndLinks(ctx context.Context, fdcID string) (linksDeleted, creatorsDeleted int64, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.Printf("link: rollback failed: %v", rbErr)
			}
		}
	}()

	linksDeleted, err = s.Links.DeleteByFdcIDTx(ctx, tx, fdcID)
	if err != nil {
		return 0, 0, err
	}
	creatorsDeleted, err = s.Fdcs.DeleteTx(ctx, tx, fdcID)
	if err != nil {
		return 0, 0, err
	}
	if creatorsDeleted == 0 {
		err = repository.ErrNotFound
		return 0, 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, err
	}
	return linksDeleted, creatorsDeleted, nil
}
