package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/hemanto/magazine-backend/internal/access"
	"github.com/hemanto/magazine-backend/internal/model"
	"github.com/hemanto/magazine-backend/internal/queue"
	"github.com/hemanto/magazine-backend/internal/repository"
	"github.com/hemanto/magazine-backend/internal/utils"
)

// ContentPrefix derives a department's content ID prefix from its name:
// "goddo" → "god_". Subcategory IDs extend it with "sub_" ("god_sub_").
func ContentPrefix(department string) string {
	d := strings.ToLower(department)
	if len(d) > 3 {
		d = d[:3]
	}
	return d + "_"
}

// SubcategoryPrefix derives a department's subcategory ID prefix.
func SubcategoryPrefix(department string) string {
	return ContentPrefix(department) + "sub_"
}

// CreatorSpec selects a creator for new content: either an existing record by
// ID or an inline payload for a creator that does not exist yet.
type CreatorSpec struct {
	CreatorID string              `json:"creatorID"`
	New       *model.CreatorInput `json:"new"`
}

// SectionInput is one section of a content creation payload.
type SectionInput struct {
	SectionArticle string   `json:"sectionArticle"`
	SectionImages  []string `json:"sectionImages"`
}

// ContentInput is the article part of a content creation payload.
type ContentInput struct {
	ArticleCover        string         `json:"articleCover"`
	ArticleName         string         `json:"articleName"`
	ArticleTrailer      string         `json:"articleTrailer"`
	AboutArticle        string         `json:"aboutArticle"`
	OriginalWritingDate *time.Time     `json:"originalWritingDate"`
	Sections            []SectionInput `json:"sections"`
}

// SectionPatch carries the mutable section fields. Nil means unchanged.
type SectionPatch struct {
	SectionArticle *string  `json:"sectionArticle"`
	SectionImages  []string `json:"sectionImages"`
}

// Publisher is the slice of the event pipeline the content engine uses.
// Publishing is best-effort: failures are logged, never surfaced.
type Publisher interface {
	ContentCreated(ctx context.Context, ev queue.ContentEvent) error
	ContentDeleted(ctx context.Context, ev queue.ContentEvent) error
}

// ContentService is the content lifecycle engine. Every write that touches a
// content item and its link commits in one transaction; callers never observe
// a content row without a link or a link without content on this path.
type ContentService struct {
	DB        *sql.DB
	Contents  *repository.ContentRepo
	Links     *repository.LinkRepo
	Fdcs      *repository.CreatorRepo
	Sdcs      *repository.CreatorRepo
	Employees *repository.EmployeeRepo
	Events    Publisher // optional
}

// NewContentService wires a ContentService.
func NewContentService(db *sql.DB, contents *repository.ContentRepo, links *repository.LinkRepo, fdcs, sdcs *repository.CreatorRepo, employees *repository.EmployeeRepo, events Publisher) *ContentService {
	if db == nil || contents == nil || links == nil || fdcs == nil || sdcs == nil || employees == nil {
		panic("nil dependency passed to NewContentService")
	}
	return &ContentService{DB: db, Contents: contents, Links: links, Fdcs: fdcs,
		Sdcs: sdcs, Employees: employees, Events: events}
}

// CreateContent creates a content item inside an existing subcategory along
// with its link and, when given inline payloads, its creators — all in one
// transaction. The payload must carry at least one section and every section
// its article body; both are checked before any row is written so a rejected
// payload leaves no creator, content or link behind.
func (s *ContentService) CreateContent(ctx context.Context, department, subcategoryID string, fdc CreatorSpec, sdc *CreatorSpec, in ContentInput, uploaderEmployeeID string) (model.Link, model.ContentItem, error) {
	if len(in.Sections) == 0 {
		return model.Link{}, model.ContentItem{}, ErrMissingRequiredSection
	}
	for _, sec := range in.Sections {
		if strings.TrimSpace(sec.SectionArticle) == "" {
			return model.Link{}, model.ContentItem{}, ErrMissingRequiredSection
		}
	}
	if fdc.CreatorID == "" && fdc.New == nil {
		return model.Link{}, model.ContentItem{}, ErrReferenceNotFound
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Link{}, model.ContentItem{}, err
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("content: rollback failed: %v", rbErr)
		}
	}

	ok, err := s.Contents.SubcategoryExistsTx(ctx, tx, department, subcategoryID)
	if err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}
	if !ok {
		rollback()
		return model.Link{}, model.ContentItem{}, ErrSubcategoryNotFound
	}

	fdcID, err := s.resolveCreatorTx(ctx, tx, s.Fdcs, utils.PrefixFdc, fdc, uploaderEmployeeID)
	if err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}
	var sdcID *string
	if sdc != nil {
		id, err := s.resolveCreatorTx(ctx, tx, s.Sdcs, utils.PrefixSdc, *sdc, uploaderEmployeeID)
		if err != nil {
			rollback()
			return model.Link{}, model.ContentItem{}, err
		}
		sdcID = &id
	}

	contentID, err := utils.GenerateID(ContentPrefix(department))
	if err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}
	now := time.Now().UTC()
	item := model.ContentItem{
		SubcategoryID: subcategoryID,
		Department:    department,
		Metadata: model.Metadata{
			ContentID:           contentID,
			ContentAddedDate:    now,
			OriginalWritingDate: in.OriginalWritingDate,
		},
		Article: model.Article{
			ArticleCover:   in.ArticleCover,
			ArticleName:    in.ArticleName,
			ArticleTrailer: in.ArticleTrailer,
			AboutArticle:   in.AboutArticle,
		},
	}
	if err := s.Contents.InsertContentTx(ctx, tx, item); err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}
	for _, secIn := range in.Sections {
		secID, err := utils.GenerateID(utils.PrefixSection)
		if err != nil {
			rollback()
			return model.Link{}, model.ContentItem{}, err
		}
		images := secIn.SectionImages
		if images == nil {
			images = []string{}
		}
		sec := model.Section{
			SectionID:        secID,
			SectionAddedDate: now,
			SectionArticle:   secIn.SectionArticle,
			SectionImages:    images,
		}
		if err := s.Contents.InsertSectionTx(ctx, tx, contentID, sec); err != nil {
			rollback()
			return model.Link{}, model.ContentItem{}, err
		}
		item.Article.MainContent = append(item.Article.MainContent, sec)
	}

	linkID, err := utils.GenerateID(utils.PrefixLink)
	if err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}
	link := model.Link{
		LinkID:        linkID,
		EmployeeID:    uploaderEmployeeID,
		ContentID:     contentID,
		FdcID:         fdcID,
		SdcID:         sdcID,
		ContentStatus: model.StatusEditing,
	}
	if err := s.Links.CreateTx(ctx, tx, link); err != nil {
		rollback()
		return model.Link{}, model.ContentItem{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Link{}, model.ContentItem{}, err
	}

	s.publish(ctx, "created", link, department)
	return link, item, nil
}

// resolveCreatorTx returns the ID of an existing creator or inserts a new one
// inside the transaction.
func (s *ContentService) resolveCreatorTx(ctx context.Context, tx *sql.Tx, repo *repository.CreatorRepo, prefix string, spec CreatorSpec, uploaderEmployeeID string) (string, error) {
	if spec.CreatorID != "" {
		if _, err := repo.GetByID(ctx, spec.CreatorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrReferenceNotFound
			}
			return "", err
		}
		return spec.CreatorID, nil
	}
	if spec.New == nil {
		return "", ErrReferenceNotFound
	}
	id, err := utils.GenerateID(prefix)
	if err != nil {
		return "", err
	}
	c := model.Creator{
		CreatorID:          id,
		CreatorName:        spec.New.CreatorName,
		CreatorBio:         spec.New.CreatorBio,
		CreatorImage:       spec.New.CreatorImage,
		UploaderEmployeeID: uploaderEmployeeID,
	}
	if err := repo.CreateTx(ctx, tx, c); err != nil {
		return "", err
	}
	return id, nil
}

// GetContent returns one content item with its link, creators and, for
// admin-tier principals, the uploading employee. Non-admins only see their
// own uploads.
func (s *ContentService) GetContent(ctx context.Context, p model.Principal, department, contentID string) (model.ContentWithInfo, error) {
	link, err := s.Links.GetByContentIDInDepartment(ctx, contentID, department)
	if err != nil {
		return model.ContentWithInfo{}, err
	}
	full := access.HasFullAccess(p, department)
	if !full && link.EmployeeID != p.EmployeeID {
		return model.ContentWithInfo{}, repository.ErrForbidden
	}
	return s.assemble(ctx, link, department, full)
}

// ListContent returns every content item in a department the principal may
// see, assembled with creators and (for admins) uploader info. Links whose
// referenced rows are missing are skipped with a warning; the sweep deals
// with them.
func (s *ContentService) ListContent(ctx context.Context, p model.Principal, department string) ([]model.ContentWithInfo, error) {
	uploader := ""
	full := access.HasFullAccess(p, department)
	if !full {
		uploader = p.EmployeeID
	}
	links, err := s.Links.ListByDepartment(ctx, department, uploader)
	if err != nil {
		return nil, err
	}
	out := make([]model.ContentWithInfo, 0, len(links))
	for _, link := range links {
		info, err := s.assemble(ctx, link, department, full)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("content: link %s references missing rows, skipping", link.LinkID)
				continue
			}
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *ContentService) assemble(ctx context.Context, link model.Link, department string, withEmployee bool) (model.ContentWithInfo, error) {
	info := model.ContentWithInfo{Link: link}
	item, err := s.Contents.GetContent(ctx, department, link.ContentID)
	if err != nil {
		return model.ContentWithInfo{}, err
	}
	info.Content = item
	fdc, err := s.Fdcs.GetByID(ctx, link.FdcID)
	if err != nil {
		return model.ContentWithInfo{}, err
	}
	info.Fdc = &fdc
	if link.SdcID != nil {
		sdc, err := s.Sdcs.GetByID(ctx, *link.SdcID)
		if err != nil {
			return model.ContentWithInfo{}, err
		}
		info.Sdc = &sdc
	}
	if withEmployee {
		emp, err := s.Employees.GetByID(ctx, link.EmployeeID)
		if err != nil {
			return model.ContentWithInfo{}, err
		}
		info.Employee = &emp
	}
	return info, nil
}

// UpdateSection merges a patch into the section identified by the exact
// department+subcategory+content+section chain. A chain that does not resolve
// as a unit is ErrNotFound, even if its parts exist separately.
func (s *ContentService) UpdateSection(ctx context.Context, department, subcategoryID, contentID, sectionID string, patch SectionPatch) error {
	if patch.SectionArticle == nil && patch.SectionImages == nil {
		return nil
	}
	if patch.SectionArticle != nil && strings.TrimSpace(*patch.SectionArticle) == "" {
		return ErrMissingRequiredSection
	}
	n, err := s.Contents.UpdateSection(ctx, department, subcategoryID, contentID, sectionID,
		patch.SectionArticle, patch.SectionImages)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateMetadata sets the original writing date for the exact
// subcategory+content pair. contentID and contentAddedDate are system-owned
// and never patched.
func (s *ContentService) UpdateMetadata(ctx context.Context, department, subcategoryID, contentID string, originalWritingDate *time.Time) error {
	n, err := s.Contents.UpdateMetadata(ctx, department, subcategoryID, contentID,
		map[string]any{"original_writing_date": originalWritingDate})
	if err != nil {
		return err
	}
	if n == 0 {
		return s.verifyPair(ctx, department, subcategoryID, contentID)
	}
	return nil
}

// UpdateArticle merges article fields for the exact subcategory+content pair.
// The handler's key-set check has already rejected mainContent.
func (s *ContentService) UpdateArticle(ctx context.Context, department, subcategoryID, contentID string, fields map[string]any) error {
	n, err := s.Contents.UpdateArticle(ctx, department, subcategoryID, contentID, fields)
	if err != nil {
		return err
	}
	if n == 0 {
		return s.verifyPair(ctx, department, subcategoryID, contentID)
	}
	return nil
}

// verifyPair distinguishes "no-op update" from "pair does not exist" when an
// UPDATE touched zero rows.
func (s *ContentService) verifyPair(ctx context.Context, department, subcategoryID, contentID string) error {
	item, err := s.Contents.GetContent(ctx, department, contentID)
	if err != nil {
		return err
	}
	if item.SubcategoryID != subcategoryID {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteSection removes one section, refusing to delete the item's last one.
func (s *ContentService) DeleteSection(ctx context.Context, department, subcategoryID, contentID, sectionID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("content: rollback failed: %v", rbErr)
		}
	}
	count, err := s.Contents.CountSectionsTx(ctx, tx, contentID)
	if err != nil {
		rollback()
		return err
	}
	n, err := s.Contents.DeleteSectionTx(ctx, tx, department, subcategoryID, contentID, sectionID)
	if err != nil {
		rollback()
		return err
	}
	if n == 0 {
		rollback()
		return repository.ErrNotFound
	}
	if count <= 1 {
		// The delete matched the item's only section; undo it.
		rollback()
		return ErrLastSection
	}
	return tx.Commit()
}

// DeleteContent removes a content item, its sections and its link in one
// transaction. If either half touches nothing while the other succeeded the
// transaction rolls back and the condition is reported as a consistency
// fault, not silently ignored.
func (s *ContentService) DeleteContent(ctx context.Context, department, subcategoryID, contentID string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Printf("content: rollback failed: %v", rbErr)
		}
	}
	linkRows, err := s.Links.DeleteByContentIDTx(ctx, tx, department, contentID)
	if err != nil {
		rollback()
		return err
	}
	contentRows, err := s.Contents.DeleteContentTx(ctx, tx, department, subcategoryID, contentID)
	if err != nil {
		rollback()
		return err
	}
	if linkRows == 0 && contentRows == 0 {
		rollback()
		return repository.ErrNotFound
	}
	if linkRows == 0 || contentRows == 0 {
		rollback()
		log.Printf("content: inconsistent delete for %s in %s: linkRows=%d contentRows=%d",
			contentID, subcategoryID, linkRows, contentRows)
		return ErrConsistency
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.publish(ctx, "deleted", model.Link{ContentID: contentID}, department)
	return nil
}

func (s *ContentService) publish(ctx context.Context, kind string, link model.Link, department string) {
	if s.Events == nil {
		return
	}
	ev := queue.ContentEvent{
		ContentID:  link.ContentID,
		LinkID:     link.LinkID,
		EmployeeID: link.EmployeeID,
		Department: department,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	var err error
	if kind == "created" {
		err = s.Events.ContentCreated(ctx, ev)
	} else {
		err = s.Events.ContentDeleted(ctx, ev)
	}
	if err != nil {
		log.Printf("content: publish %s event failed: %v", kind, err)
	}
}
