// Package identifiers validates the Belgian business identifiers used by the
// company wizard and the company import: IBAN, BCE/KBO enterprise number,
// VAT number and ONSS/RSZ employer number.
package identifiers

import (
	"errors"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidIBAN = errors.New("invalid IBAN")
	ErrInvalidBCE  = errors.New("invalid BCE number: expected 10 digits starting with 0 or 1 and a valid mod-97 check")
	ErrInvalidVAT  = errors.New("invalid VAT number: expected BE followed by a valid BCE number")
	ErrInvalidONSS = errors.New("invalid ONSS number: expected 9 or 10 digits")
)

var (
	ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bcePattern  = regexp.MustCompile(`^[01][0-9]{9}$`)
	onssPattern = regexp.MustCompile(`^[0-9]{9,10}$`)
	separators  = strings.NewReplacer(" ", "", ".", "", "-", "", "/", "", "\t", "")
)

func normalize(s string) string {
	return strings.ToUpper(separators.Replace(strings.TrimSpace(s)))
}

// NormalizeIBAN removes separators and upper-cases.
func NormalizeIBAN(s string) string { return normalize(s) }

// CheckIBAN verifies the ISO 13616 structure and the mod-97 check digits.
func CheckIBAN(s string) error {
	v := NormalizeIBAN(s)
	if !ibanPattern.MatchString(v) {
		return ErrInvalidIBAN
	}
	if strings.HasPrefix(v, "BE") && len(v) != 16 {
		return ErrInvalidIBAN
	}
	if mod97(v[4:]+v[:4]) != 1 {
		return ErrInvalidIBAN
	}
	return nil
}

func ValidIBAN(s string) bool { return CheckIBAN(s) == nil }

// FormatIBAN groups a valid IBAN by four characters. Invalid input is
// returned normalized but ungrouped.
func FormatIBAN(s string) string {
	v := NormalizeIBAN(s)
	if CheckIBAN(v) != nil {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v[i:min(i+4, len(v))])
	}
	return b.String()
}

// NormalizeBCE strips separators and an optional BE prefix. Legacy 9-digit
// numbers get their leading zero back.
func NormalizeBCE(s string) string {
	return padBCE(strings.TrimPrefix(normalize(s), "BE"))
}

func padBCE(v string) string {
	if len(v) == 9 {
		return "0" + v
	}
	return v
}

// CheckBCE verifies the shape and that the last two digits equal
// 97 - (first eight digits mod 97).
func CheckBCE(s string) error {
	return checkBCEDigits(NormalizeBCE(s))
}

// checkBCEDigits works on an already normalized number.
func checkBCEDigits(v string) error {
	if !bcePattern.MatchString(v) {
		return ErrInvalidBCE
	}
	base, err := strconv.Atoi(v[:8])
	if err != nil {
		return ErrInvalidBCE
	}
	check, err := strconv.Atoi(v[8:])
	if err != nil {
		return ErrInvalidBCE
	}
	if 97-base%97 != check {
		return ErrInvalidBCE
	}
	return nil
}

func ValidBCE(s string) bool { return CheckBCE(s) == nil }

// FormatBCE renders 0123.456.789 for a valid number.
func FormatBCE(s string) string {
	v := NormalizeBCE(s)
	if checkBCEDigits(v) != nil {
		return v
	}
	return v[:4] + "." + v[4:7] + "." + v[7:]
}

// CheckVAT requires the BE prefix followed by a valid BCE number.
func CheckVAT(s string) error {
	v := normalize(s)
	if !strings.HasPrefix(v, "BE") {
		return ErrInvalidVAT
	}
	if err := checkBCEDigits(padBCE(v[2:])); err != nil {
		return ErrInvalidVAT
	}
	return nil
}

func ValidVAT(s string) bool { return CheckVAT(s) == nil }

// FormatVAT renders BE0123456789. It also accepts a bare BCE number, which
// is how VAT numbers are derived for companies imported without one.
func FormatVAT(s string) string {
	bce := NormalizeBCE(s)
	if checkBCEDigits(bce) != nil {
		return normalize(s)
	}
	return "BE" + bce
}

// NormalizeONSS strips separators.
func NormalizeONSS(s string) string { return normalize(s) }

// CheckONSS is a format check only.
func CheckONSS(s string) error {
	if !onssPattern.MatchString(NormalizeONSS(s)) {
		return ErrInvalidONSS
	}
	return nil
}

func ValidONSS(s string) bool { return CheckONSS(s) == nil }

// mod97 computes the ISO 7064 remainder with letters expanded to 10..35.
func mod97(s string) int {
	var digits strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
		default:
			return -1
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return -1
	}
	return int(new(big.Int).Mod(n, big.NewInt(97)).Int64())
}
