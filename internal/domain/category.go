package domain

import "time"

// Category is flat reference data tagged onto tickets. Name is unique; Slug
// is derived from Name. A category cannot be deleted while tickets reference it.
type Category struct {
	ID           string
	Name         string
	Slug         string
	Description  *string
	TicketsCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
