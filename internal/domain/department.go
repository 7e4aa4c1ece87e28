package domain

import "time"

// Department represents a government service area. Name carries the
// long-form label ("Health - Public Health Directorate"); assignment matches
// on the short-form prefix before the separator.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
