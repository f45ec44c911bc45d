package utils

import "strings"

// ParseFullName splits a full name written surname first, the way Belgian
// payroll exports list people: "Dupont Jean Pierre" gives ("Dupont",
// "Jean Pierre"). A comma marks the split explicitly, so compound surnames
// survive: "Van den Berg, Anna".
func ParseFullName(fullname string) (last, first string) {
	fullname = strings.Join(strings.Fields(fullname), " ")
	if fullname == "" {
		return "", ""
	}

	if l, f, ok := strings.Cut(fullname, ","); ok {
		return strings.TrimSpace(l), strings.TrimSpace(f)
	}

	parts := strings.SplitN(fullname, " ", 2)
	last = parts[0]
	if len(parts) > 1 {
		first = parts[1]
	}
	return last, first
}
