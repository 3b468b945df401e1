package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCourseNotFound = errors.New("course not found")

// Course is the slice of the catalog the payment core reads.
// The catalog itself is owned by another service.
type Course struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Price      int64      `json:"price"`
	MentorID   *uuid.UUID `json:"mentor_id,omitempty"`
	AccessDays int        `json:"access_days"` // 0 = lifetime
	IsActive   bool       `json:"is_active"`
}

// AccessWindow returns [start, end) of the purchased access; end is nil for lifetime courses.
func (c *Course) AccessWindow(start time.Time) (time.Time, *time.Time) {
	if c.AccessDays <= 0 {
		return start, nil
	}
	end := start.AddDate(0, 0, c.AccessDays)
	return start, &end
}
