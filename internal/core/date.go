package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	isoLayout    = "2006-01-02"
	germanLayout = "02.01.2006"
)

// Date is a calendar date. The canonical textual form is ISO YYYY-MM-DD;
// bank exports carry the German DD.MM.YYYY form.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseGermanDate parses DD.MM.YYYY, the booking-date format of the export.
func ParseGermanDate(s string) (Date, error) {
	t, err := time.Parse(germanLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ParseISODate parses the canonical YYYY-MM-DD form.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// ISO returns the canonical YYYY-MM-DD form.
func (d Date) ISO() string {
	return d.Format(isoLayout)
}

// German returns the DD.MM.YYYY form used by the export.
func (d Date) German() string {
	return d.Format(germanLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// MonthsAgo returns the date n months before d, at the same day of month
// where possible. Used to anchor the detector's rolling window.
func (d Date) MonthsAgo(n int) Date {
	return Date{Time: d.AddDate(0, -n, 0)}
}

// StartOfDay drops any time-of-day component. Window anchors derived from the
// wall clock carry one; store queries compare whole days.
func (d Date) StartOfDay() Date {
	year, month, day := d.Date()
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}
