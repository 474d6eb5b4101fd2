// Package service implements the domain logic between the HTTP handlers and
// the repositories: link consistency, the content lifecycle, and the orphan
// reconciliation sweep.
package service

import "errors"

// ErrReferenceNotFound is returned when a patch or creation payload points at
// an employee or creator that does not exist.
var ErrReferenceNotFound = errors.New("referenced entity not found")

// ErrNoMatchingLinks is returned by the bulk creator reassignment when the
// update modifies zero rows, whether the source creator has no links or all
// of its links carry a secondary creator.
var ErrNoMatchingLinks = errors.New("no links matched the source creator")

// ErrSubcategoryNotFound is returned when content creation targets a
// subcategory that does not exist in the department.
var ErrSubcategoryNotFound = errors.New("subcategory not found")

// ErrMissingRequiredSection is returned when a content payload has no
// sections or a section without its article body.
var ErrMissingRequiredSection = errors.New("every content item needs at least one section with an article body")

// ErrLastSection is returned when a delete would remove a content item's only
// remaining section.
var ErrLastSection = errors.New("cannot delete the only section of a content item")

// ErrStatusChangeNotAllowed is returned when a non-privileged employee sends
// a link patch outside the lone editing→pending submission.
var ErrStatusChangeNotAllowed = errors.New("status change not allowed")

// ErrConsistency is returned when the two halves of a paired content+link
// write did not both apply. The transaction is rolled back; the condition is
// logged with full context because the atomicity layer should have made it
// impossible.
var ErrConsistency = errors.New("content and link records are inconsistent")
