package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/lorrc/atendimento-dashboard/internal/core/errors"
)

// PeriodLayout is the format used for period bounds on the wire.
const PeriodLayout = "2006-01-02T15:04:05.000Z07:00"

// Period is an inclusive date range. Bounds are kept as received so that an
// unparsable bound can be handled fail-open by the filtering engine.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DefaultPeriod returns [first day of now's month 00:00, now's day 23:59:59.999].
func DefaultPeriod(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Period{
		Start: first.Format(PeriodLayout),
		End:   EndOfDay(now).Format(PeriodLayout),
	}
}

// StartOfDay returns 00:00:00.000 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// ValidatePeriod checks a period submitted by a client: both bounds must parse,
// the start may not follow the end, and neither bound may fall after today.
func ValidatePeriod(p Period, now time.Time) error {
	start, ok := ParseTimestamp(p.Start, now.Location())
	if !ok {
		return fmt.Errorf("%w: unparsable start %q", apperrors.ErrInvalidPeriod, p.Start)
	}
	end, ok := ParseTimestamp(p.End, now.Location())
	if !ok {
		return fmt.Errorf("%w: unparsable end %q", apperrors.ErrInvalidPeriod, p.End)
	}
	if StartOfDay(start).After(StartOfDay(end)) {
		return fmt.Errorf("%w: start is after end", apperrors.ErrInvalidPeriod)
	}
	today := EndOfDay(now)
	if start.After(today) || end.After(today) {
		return apperrors.ErrFuturePeriod
	}
	return nil
}

// FilterState holds the active facet selections and the optional period.
// It is owned by a single writer; readers take a Snapshot.
type FilterState struct {
	facets map[FacetName]map[string]struct{}
	period *Period
}

// NewFilterState returns an empty state: no facets and no period.
func NewFilterState() *FilterState {
	return &FilterState{facets: make(map[FacetName]map[string]struct{})}
}

// Toggle adds value to the facet's set, or removes it when already present.
// A facet whose set becomes empty is dropped. Values are not checked against
// any vocabulary.
func (s *FilterState) Toggle(facet FacetName, value string) {
	values, ok := s.facets[facet]
	if !ok {
		values = make(map[string]struct{})
		s.facets[facet] = values
	}
	if _, present := values[value]; present {
		delete(values, value)
	} else {
		values[value] = struct{}{}
	}
	if len(values) == 0 {
		delete(s.facets, facet)
	}
}

// SetPeriod replaces the current period.
func (s *FilterState) SetPeriod(start, end string) {
	s.period = &Period{Start: start, End: end}
}

// ResetPeriod replaces the period with the default range for now, keeping facet selections.
func (s *FilterState) ResetPeriod(now time.Time) {
	p := DefaultPeriod(now)
	s.period = &p
}

// Clear removes every facet selection and restores the default period.
func (s *FilterState) Clear(now time.Time) {
	s.facets = make(map[FacetName]map[string]struct{})
	s.ResetPeriod(now)
}

// Snapshot returns an immutable copy of the state.
func (s *FilterState) Snapshot() FilterSnapshot {
	snap := FilterSnapshot{facets: make(map[FacetName][]string, len(s.facets))}
	for facet, values := range s.facets {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		snap.facets[facet] = list
	}
	if s.period != nil {
		p := *s.period
		snap.period = &p
	}
	return snap
}

// FilterSnapshot is a read-only view of a FilterState at one instant.
type FilterSnapshot struct {
	facets map[FacetName][]string
	period *Period
}

// IsEmpty reports whether no facet and no period is active.
func (s FilterSnapshot) IsEmpty() bool {
	return len(s.facets) == 0 && s.period == nil
}

// ActiveFacets returns the facets with at least one selected value, in display order.
func (s FilterSnapshot) ActiveFacets() []FacetName {
	active := make([]FacetName, 0, len(s.facets))
	for _, f := range Facets {
		if _, ok := s.facets[f]; ok {
			active = append(active, f)
		}
	}
	return active
}

// Values returns a copy of the selected values of a facet, sorted.
func (s FilterSnapshot) Values(facet FacetName) []string {
	values := s.facets[facet]
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Accepts reports whether value is selected for the facet.
func (s FilterSnapshot) Accepts(facet FacetName, value string) bool {
	values := s.facets[facet]
	i := sort.SearchStrings(values, value)
	return i < len(values) && values[i] == value
}

// Period returns the active period, if any.
func (s FilterSnapshot) Period() (Period, bool) {
	if s.period == nil {
		return Period{}, false
	}
	return *s.period, true
}

// MarshalJSON renders the filterChange payload: one entry per active facet plus "period".
func (s FilterSnapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.facets)+1)
	for facet, values := range s.facets {
		out[string(facet)] = values
	}
	if s.period != nil {
		out["period"] = *s.period
	}
	return json.Marshal(out)
}
