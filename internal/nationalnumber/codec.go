// Package nationalnumber formats Belgian national numbers (NISS/INSZ),
// derives the birth date they embed and checks it against a birth date
// entered separately.
//
// Every function is pure and safe for concurrent use. Malformed or partial
// input never produces an error or a panic: extraction reports false and
// the coherence check passes, so callers can run them on each keystroke.
package nationalnumber

import (
	"strings"
	"time"
)

// Length is the number of digits in a complete national number.
const Length = 11

// Codec binds the operations to a clock. The clock only feeds the century
// window used to expand the 2-digit birth year.
type Codec struct {
	now func() time.Time
}

// NewCodec returns a codec reading the current year from now.
// A nil now falls back to time.Now.
func NewCodec(now func() time.Time) Codec {
	return Codec{now: now}
}

var defaultCodec = NewCodec(time.Now)

func (c Codec) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Digits returns the first 11 digits of input with everything else dropped.
func Digits(input string) string { return digitsOf(input, Length) }

// Format strips every non-digit, keeps at most 11 digits and re-applies the
// XX.XX.XX-XXX.XX mask as far as the digits reach.
func Format(input string) string {
	d := digitsOf(input, Length)
	switch n := len(d); {
	case n <= 2:
		return d
	case n <= 4:
		return d[:2] + "." + d[2:]
	case n <= 6:
		return d[:2] + "." + d[2:4] + "." + d[4:]
	case n <= 9:
		return d[:2] + "." + d[2:4] + "." + d[4:6] + "-" + d[6:]
	default:
		return d[:2] + "." + d[2:4] + "." + d[4:6] + "-" + d[6:9] + "." + d[9:]
	}
}

// ExtractBirthDate reads YYMMDD from the first six digits using the wall
// clock for the century window.
func ExtractBirthDate(nationalNumber string) (BirthDate, bool) {
	return defaultCodec.ExtractBirthDate(nationalNumber)
}

// IsCoherent uses the wall clock for the century window.
func IsCoherent(nationalNumber string, birthDate BirthDate) bool {
	return defaultCodec.IsCoherent(nationalNumber, birthDate)
}

// IsCoherentString uses the wall clock for the century window.
func IsCoherentString(nationalNumber, birthDate string) bool {
	return defaultCodec.IsCoherentString(nationalNumber, birthDate)
}

// ExtractBirthDate reads YYMMDD from the first six digits.
//
// The year is resolved with a window: yy <= current year % 100 gives 20yy,
// anything above gives 19yy. This is an approximation; people born more
// than a century ago resolve to the wrong century, and the checksum based
// disambiguation for post-2000 births is not applied.
//
// It reports false when fewer than six digits are present or when the
// digits do not form a real calendar date.
func (c Codec) ExtractBirthDate(nationalNumber string) (BirthDate, bool) {
	d := digitsOf(nationalNumber, 6)
	if len(d) < 6 {
		return BirthDate{}, false
	}

	yy := twoDigits(d[0:2])
	month := twoDigits(d[2:4])
	day := twoDigits(d[4:6])

	year := 1900 + yy
	if yy <= c.clock().Year()%100 {
		year = 2000 + yy
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return BirthDate{}, false
	}

	bd, err := NewBirthDate(year, time.Month(month), day)
	if err != nil {
		return BirthDate{}, false
	}
	return bd, true
}

// IsCoherent reports whether the birth date embedded in nationalNumber
// matches birthDate. It only flags demonstrable contradictions: an empty
// number, a zero birth date or a number that does not encode a date all
// count as coherent.
func (c Codec) IsCoherent(nationalNumber string, birthDate BirthDate) bool {
	if strings.TrimSpace(nationalNumber) == "" || birthDate.IsZero() {
		return true
	}
	extracted, ok := c.ExtractBirthDate(nationalNumber)
	if !ok {
		return true
	}
	return extracted.Equal(birthDate)
}

// IsCoherentString is IsCoherent for a birth date still in text form.
// Text that does not parse as a date is treated as absent.
func (c Codec) IsCoherentString(nationalNumber, birthDate string) bool {
	parsed, err := ParseBirthDate(birthDate)
	if err != nil {
		return true
	}
	return c.IsCoherent(nationalNumber, parsed)
}

// digitsOf keeps ASCII digits only, stopping once limit digits are collected.
// Multi-byte UTF-8 sequences never contain bytes in '0'..'9', so a byte scan
// is safe on arbitrary input.
func digitsOf(s string, limit int) string {
	var b strings.Builder
	b.Grow(limit)
	for i := 0; i < len(s) && b.Len() < limit; i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func twoDigits(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
