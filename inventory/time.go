package inventory

import (
	"time"
)

// =============================================================================
// DATE STAMP - Day-granularity time abstraction (all scheduling is per-day)
// =============================================================================

// DateStamp is a calendar date. Commitments start and end on whole days;
// nothing in the system cares about hours or minutes.
type DateStamp struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a DateStamp normalized to UTC midnight.
func NewDate(year int, month time.Month, day int) DateStamp {
	return DateStamp{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar date.
func DateOf(t time.Time) DateStamp {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date. Core validation paths never call
// this themselves; callers pass "now" in explicitly so tests stay deterministic.
func Today() DateStamp {
	return DateOf(time.Now().UTC())
}

// ParseDate parses an ISO-8601 YYYY-MM-DD date.
func ParseDate(s string) (DateStamp, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateStamp{}, err
	}
	return DateOf(t), nil
}

// NoEndDate is the far-future sentinel used when a requisition has no end date.
// Commitments carrying it are open until someone closes them explicitly.
func NoEndDate() DateStamp {
	return NewDate(2999, time.January, 1)
}

// ApprovalWindowDays bounds how far a start date may drift from today in either
// direction before a requisition is rejected.
const ApprovalWindowDays = 30

// Comparison
func (d DateStamp) Before(other DateStamp) bool        { return d.normalize().Before(other.normalize()) }
func (d DateStamp) After(other DateStamp) bool         { return d.normalize().After(other.normalize()) }
func (d DateStamp) Equal(other DateStamp) bool         { return d.normalize().Equal(other.normalize()) }
func (d DateStamp) BeforeOrEqual(other DateStamp) bool { return !d.After(other) }
func (d DateStamp) AfterOrEqual(other DateStamp) bool  { return !d.Before(other) }

func (d DateStamp) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d DateStamp) AddDays(n int) DateStamp { return DateOf(d.Time.AddDate(0, 0, n)) }

func (d DateStamp) IsZero() bool { return d.Time.IsZero() }

func (d DateStamp) String() string { return d.normalize().Format(dateLayout) }

// key is a stable map key for timeline buckets. time.Time equality is not
// reliable as a map key across locations, so we key by the formatted date.
func (d DateStamp) key() string { return d.String() }
