package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"course-payments/internal/domains/revenue/model"
	"course-payments/internal/shared/middleware"
)

// Filter is a WHERE clause over transactions t JOIN courses c, built with
// positional arguments. Role scoping lives here so a caller cannot forget it.
type Filter struct {
	conditions []string
	args       []interface{}
}

func newBaseFilter() *Filter {
	return &Filter{conditions: []string{"t.is_paid = true", "t.deleted_at IS NULL"}}
}

// add appends a predicate; format holds one %d for the argument's position.
func (f *Filter) add(format string, arg interface{}) {
	f.args = append(f.args, arg)
	f.conditions = append(f.conditions, fmt.Sprintf(format, len(f.args)))
}

func (f *Filter) Where() string {
	return "WHERE " + strings.Join(f.conditions, " AND ")
}

func (f *Filter) Args() []interface{} {
	return append([]interface{}(nil), f.args...)
}

// Scope returns the base filter for actor. Admins read everything, mentors
// only their own courses, everyone else nothing.
func Scope(actor model.Actor) (*Filter, error) {
	f := newBaseFilter()
	switch actor.Role {
	case middleware.RoleAdmin:
		return f, nil
	case middleware.RoleMentor:
		if actor.UserID == uuid.Nil {
			return nil, model.ErrScopeForbidden
		}
		f.add("c.mentor_id = $%d", actor.UserID)
		return f, nil
	default:
		return nil, model.ErrScopeForbidden
	}
}

// ApplyFilters narrows f. The date range is inclusive of both calendar days
// and is matched against the coverage start.
func ApplyFilters(f *Filter, c model.Criteria) *Filter {
	if c.PartyID != nil {
		f.add("c.mentor_id = $%d", *c.PartyID)
	}
	if c.CourseID != nil {
		f.add("t.course_id = $%d", *c.CourseID)
	}
	if c.From != nil {
		f.add("t.started_at >= $%d", startOfDay(*c.From))
	}
	if c.To != nil {
		f.add("t.started_at < $%d", startOfDay(*c.To).AddDate(0, 0, 1))
	}
	return f
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
