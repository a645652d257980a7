package holiday

import (
	"context"
	"time"
)

type Holiday struct {
	Date        time.Time
	Name        string
	CountryCode string
}

// Calendar looks up public holidays. Implementations degrade to an empty
// list on failure, which means "no holiday adjustment".
type Calendar interface {
	Holidays(ctx context.Context, countryCode string, year int) []Holiday
}

// Set is a date-keyed lookup built from a holiday list.
type Set map[string]Holiday

func NewSet(holidays []Holiday) Set {
	s := make(Set, len(holidays))
	for _, h := range holidays {
		s[h.Date.Format("2006-01-02")] = h
	}
	return s
}

func (s Set) Contains(date time.Time) bool {
	_, ok := s[date.Format("2006-01-02")]
	return ok
}
