package model

import "time"

// Creator kinds, matching the fdc_/sdc_ ID prefixes.
const (
	CreatorKindFirst  = "fdc"
	CreatorKindSecond = "sdc"
)

// Creator is a content creator record.  First-degree and second-degree
// creators share the same shape and live in separate tables; the kind is
// implied by the repository a record came from and by its ID prefix.
type Creator struct {
	CreatorID          string    `json:"creatorID"`
	CreatorName        string    `json:"creatorName"`
	CreatorBio         string    `json:"creatorBio"`
	CreatorImage       string    `json:"creatorImage"`
	UploaderEmployeeID string    `json:"uploaderEmployeeID"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// CreatorInput is the payload for creating a new creator, either standalone
// or inline while creating content.
type CreatorInput struct {
	CreatorName  string `json:"creatorName"`
	CreatorBio   string `json:"creatorBio"`
	CreatorImage string `json:"creatorImage"`
}
