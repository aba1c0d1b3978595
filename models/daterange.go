// models/daterange.go
package models

import (
	"errors"
	"iter"
	"time"
)

const DateLayout = "2006-01-02"

var ErrEmptyRange = errors.New("check-out must be after check-in")

// Day truncates t to its calendar date at UTC midnight. The wall-clock date
// in t's own location is kept, so 23:30 local time is still the same day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DateRange is the half-open interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// NewDateRange normalises both ends to calendar days and rejects stays
// that are not at least one night long.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if !r.CheckOut.After(r.CheckIn) {
		return ErrEmptyRange
	}
	return nil
}

// Overlaps reports whether a and b share at least one night. A check-out on
// the same day as another check-in is not an overlap.
func Overlaps(a, b DateRange) bool {
	return a.CheckIn.Before(b.CheckOut) && b.CheckIn.Before(a.CheckOut)
}

// Contains reports whether day is one of the nights in r.
func Contains(r DateRange, day time.Time) bool {
	day = Day(day)
	return !day.Before(r.CheckIn) && day.Before(r.CheckOut)
}

func (r DateRange) Overlaps(other DateRange) bool { return Overlaps(r, other) }

func (r DateRange) Contains(day time.Time) bool { return Contains(r, day) }

const secondsPerDay = 24 * 60 * 60

// Nights counts calendar days between the ends. It works on Unix seconds
// since time.Duration tops out near 292 years.
func (r DateRange) Nights() int {
	return int((r.CheckOut.Unix() - r.CheckIn.Unix()) / secondsPerDay)
}

// Days yields every night of the stay, CheckOut excluded.
func (r DateRange) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r DateRange) String() string {
	return "[" + r.CheckIn.Format(DateLayout) + ", " + r.CheckOut.Format(DateLayout) + ")"
}

// MonthRange covers every day of the given month.
func MonthRange(year int, month time.Month) DateRange {
	first := Date(year, month, 1)
	return DateRange{CheckIn: first, CheckOut: first.AddDate(0, 1, 0)}
}
