package nationalnumber

import "errors"

// ErrIncomplete indicates fewer than 11 digits were supplied.
var ErrIncomplete = errors.New("national number must contain 11 digits")

// NationalNumber is a complete 11-digit national number.
//
// Invariants:
//   - exactly 11 ASCII digits
//   - the punctuated form is derived, never stored
type NationalNumber struct {
	digits string
}

// Parse accepts any punctuation. Digits beyond the 11th are dropped, the same
// way Format drops them.
func Parse(raw string) (NationalNumber, error) {
	d := digitsOf(raw, Length)
	if len(d) != Length {
		return NationalNumber{}, ErrIncomplete
	}
	return NationalNumber{digits: d}, nil
}

// MustParse panics on incomplete input. Use only in tests or with constants.
func MustParse(raw string) NationalNumber {
	n, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return n
}

// Digits returns the raw 11 digits.
func (n NationalNumber) Digits() string { return n.digits }

// String returns the punctuated form YY.MM.DD-SSS.CC.
func (n NationalNumber) String() string { return Format(n.digits) }

func (n NationalNumber) IsZero() bool { return n.digits == "" }

// BirthDate extracts the embedded birth date with the wall clock window.
func (n NationalNumber) BirthDate() (BirthDate, bool) {
	return defaultCodec.ExtractBirthDate(n.digits)
}

// Mask hides the sequence and checksum digits, e.g. "85.05.15-***.**".
func (n NationalNumber) Mask() string {
	if n.IsZero() {
		return ""
	}
	return Mask(n.digits)
}

// Mask formats any input like Format and replaces every digit after the
// birth date with '*', so incomplete numbers are hidden too:
// "8505151234" gives "85.05.15-***.*".
func Mask(input string) string {
	b := []byte(Format(input))
	seen := 0
	for i, c := range b {
		if c < '0' || c > '9' {
			continue
		}
		if seen++; seen > 6 {
			b[i] = '*'
		}
	}
	return string(b)
}
