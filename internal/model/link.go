package model

import "time"

// Content workflow statuses.  A regular employee may only move a link from
// editing to pending; pending to ready is an admin action.
const (
	StatusEditing = "editing"
	StatusPending = "pending"
	StatusReady   = "ready"
)

// Link is the join record tying one content item to its uploader and its
// creators.  It is the system's only cross-collection reference mechanism:
// there are no foreign keys, so every contentID in a department table must
// have exactly one link row and the reconciliation sweep repairs drift.
type Link struct {
	LinkID        string    `json:"linkID"`
	EmployeeID    string    `json:"employeeID"`
	ContentID     string    `json:"contentID"`
	FdcID         string    `json:"fdcID"`
	SdcID         *string   `json:"sdcID"`
	ContentStatus string    `json:"contentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LinkPatch carries the updatable link fields.  Nil means "leave unchanged".
// SetSdcNil distinguishes "clear the SDC" from "no change".
type LinkPatch struct {
	EmployeeID    *string
	FdcID         *string
	SdcID         *string
	SetSdcNil     bool
	ContentStatus *string
}

// IsEmpty reports whether the patch changes nothing.
func (p LinkPatch) IsEmpty() bool {
	return p.EmployeeID == nil && p.FdcID == nil && p.SdcID == nil &&
		!p.SetSdcNil && p.ContentStatus == nil
}

// StatusOnly reports whether the patch touches contentStatus and nothing else.
func (p LinkPatch) StatusOnly() bool {
	return p.ContentStatus != nil && p.EmployeeID == nil && p.FdcID == nil &&
		p.SdcID == nil && !p.SetSdcNil
}
