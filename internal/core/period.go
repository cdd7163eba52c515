// Package core holds the ledger's domain types and pure calculations:
// periods, month records, net worth and the financial health score.
package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod reports a malformed or out-of-range period.
var ErrInvalidPeriod = errors.New("invalid period")

// Period identifies one calendar month. The zero value is not a valid period.
type Period struct {
	Year  int
	Month int
}

// NewPeriod normalizes out-of-range months through the calendar, so
// NewPeriod(2025, 13) is January 2026.
func NewPeriod(year, month int) Period {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses the canonical "YYYY_MM" form.
func ParsePeriod(s string) (Period, error) {
	var p Period
	if _, err := fmt.Sscanf(s, "%4d_%2d", &p.Year, &p.Month); err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if s != p.Key() {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Key renders the period in its canonical zero-padded form, which sorts
// lexicographically in chronological order.
func (p Period) Key() string {
	return fmt.Sprintf("%04d_%02d", p.Year, p.Month)
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 || p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: year=%d month=%d", ErrInvalidPeriod, p.Year, p.Month)
	}
	return nil
}

func (p Period) Previous() Period {
	return NewPeriod(p.Year, p.Month-1)
}

func (p Period) Next() Period {
	return NewPeriod(p.Year, p.Month+1)
}

// Before reports whether p is chronologically earlier than other.
func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

// Compare returns -1, 0 or 1 by chronological order.
func (p Period) Compare(other Period) int {
	switch {
	case p.Year != other.Year:
		if p.Year < other.Year {
			return -1
		}
		return 1
	case p.Month != other.Month:
		if p.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (p Period) MarshalText() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return []byte(p.Key()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
