package model

import "time"

// The original data model nested content items inside subcategory documents
// and sections inside content items.  Here the tree is explicit: subcategories,
// contents and sections are separate tables keyed by generated IDs, and the
// nested shape below is only assembled for responses.

// Subcategory is a named bucket of content items within one department.
// Content can only be created inside an existing subcategory.
type Subcategory struct {
	SubcategoryID   string    `json:"subcategoryID"`
	Department      string    `json:"department"`
	SubcategoryName string    `json:"subcategoryName"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Section is one body-text block of a content item.  Every content item has
// at least one section; deleting the last one is rejected.
type Section struct {
	SectionID        string    `json:"sectionID"`
	SectionAddedDate time.Time `json:"sectionAddedDate"`
	SectionArticle   string    `json:"sectionArticle"`
	SectionImages    []string  `json:"sectionImages"`
}

// Metadata carries the system-stamped identity of a content item.
type Metadata struct {
	ContentID           string     `json:"contentID"`
	ContentAddedDate    time.Time  `json:"contentAddedDate"`
	OriginalWritingDate *time.Time `json:"originalWritingDate"`
}

// Article is the presentational part of a content item.  MainContent is
// only mutable through the section endpoints.
type Article struct {
	ArticleCover   string    `json:"articleCover"`
	ArticleName    string    `json:"articleName"`
	ArticleTrailer string    `json:"articleTrailer"`
	AboutArticle   string    `json:"aboutArticle"`
	MainContent    []Section `json:"mainContent"`
}

// ContentItem is the assembled nested view of one content row with its
// sections, as served to clients.
type ContentItem struct {
	SubcategoryID   string   `json:"subcategoryID"`
	SubcategoryName string   `json:"subcategoryName"`
	Department      string   `json:"department"`
	Metadata        Metadata `json:"metadata"`
	Article         Article  `json:"article"`
}

// ContentWithInfo bundles a content item with its link and creator records
// for list/detail responses.  Employee is only populated for admins.
type ContentWithInfo struct {
	Link     Link        `json:"link"`
	Content  ContentItem `json:"content"`
	Fdc      *Creator    `json:"fdc"`
	Sdc      *Creator    `json:"sdc,omitempty"`
	Employee *Employee   `json:"employee,omitempty"`
}
