package nationalnumber

import (
	"testing"
	"time"
)

// FuzzCodec checks the operations never panic and keep their invariants on
// arbitrary input.
func FuzzCodec(f *testing.F) {
	f.Add("")
	f.Add("85.05.15-123.45")
	f.Add("99999999999")
	f.Add("000229")
	f.Add("'; DROP TABLE collaborators;--")
	f.Add(string([]byte{0xff, 0xfe, '1', '2'}))
	f.Add("12345678901234567890")

	c := NewCodec(func() time.Time { return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) })

	f.Fuzz(func(t *testing.T, input string) {
		formatted := Format(input)
		if len(formatted) > 15 {
			t.Fatalf("formatted value too long: %q", formatted)
		}
		if Format(formatted) != formatted {
			t.Fatalf("format not idempotent: %q -> %q", formatted, Format(formatted))
		}
		if digitsOf(formatted, 100) != digitsOf(input, Length) {
			t.Fatalf("digits lost: %q -> %q", input, formatted)
		}

		bd, ok := c.ExtractBirthDate(input)
		d := digitsOf(input, Length)
		if len(d) < 6 && ok {
			t.Fatalf("extracted a date from %d digits", len(d))
		}
		if ok {
			if bd.Time().Format("0102") != d[2:6] {
				t.Fatalf("date %s does not match digits %q", bd, d[:6])
			}
			if !c.IsCoherent(input, bd) {
				t.Fatalf("number %q not coherent with its own date %s", input, bd)
			}
		} else if !c.IsCoherentString(input, "1985-05-15") {
			t.Fatalf("non-extractable number %q reported a contradiction", input)
		}
	})
}
