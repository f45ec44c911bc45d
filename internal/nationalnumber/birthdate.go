package nationalnumber

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidBirthDate indicates the value does not denote a calendar date.
var ErrInvalidBirthDate = errors.New("invalid birth date")

const dateLayout = "2006-01-02"

var birthDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
}

// BirthDate is a calendar date without time of day or location.
// The zero value means "no birth date".
type BirthDate struct {
	t time.Time
}

// NewBirthDate validates year/month/day against the real calendar
// (days in month, leap years).
func NewBirthDate(year int, month time.Month, day int) (BirthDate, error) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return BirthDate{}, ErrInvalidBirthDate
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return BirthDate{}, ErrInvalidBirthDate
	}
	return BirthDate{t: t}, nil
}

// BirthDateOf keeps the calendar date of t as seen in t's own location.
func BirthDateOf(t time.Time) BirthDate {
	if t.IsZero() {
		return BirthDate{}
	}
	return BirthDate{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseBirthDate accepts ISO dates, RFC3339 timestamps and the usual
// Belgian day-first notations (02/01/2006, 02.01.2006, 02-01-2006).
func ParseBirthDate(s string) (BirthDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BirthDate{}, ErrInvalidBirthDate
	}
	for _, l := range birthDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return BirthDateOf(t), nil
		}
	}
	return BirthDate{}, ErrInvalidBirthDate
}

func (b BirthDate) Year() int { return b.t.Year() }

func (b BirthDate) Month() time.Month { return b.t.Month() }

func (b BirthDate) Day() int { return b.t.Day() }

func (b BirthDate) IsZero() bool { return b.t.IsZero() }

// Time returns midnight UTC of the date.
func (b BirthDate) Time() time.Time { return b.t }

// Equal compares year, month and day.
func (b BirthDate) Equal(o BirthDate) bool {
	return b.Year() == o.Year() && b.Month() == o.Month() && b.Day() == o.Day()
}

// String renders the ISO form, or "" for the zero value.
func (b BirthDate) String() string {
	if b.IsZero() {
		return ""
	}
	return b.t.Format(dateLayout)
}

func (b BirthDate) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BirthDate) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*b = BirthDate{}
		return nil
	}
	parsed, err := ParseBirthDate(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
