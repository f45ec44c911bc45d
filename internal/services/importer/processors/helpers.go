package processors

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"secretariat_import/internal/nationalnumber"
	"secretariat_import/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// parseDate accepts the same layouts as birth dates. Empty input gives nil.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := nationalnumber.ParseBirthDate(s)
	if err != nil {
		return nil, err
	}
	t := d.Time()
	return &t, nil
}

// redactRow copies a row for storage: national numbers are masked and
// passwords dropped.
func redactRow(m ports.Row) ports.Row {
	out := make(ports.Row, len(m))
	for k, v := range m {
		switch k {
		case "password":
			if v != "" {
				out[k] = "***"
			}
		case "national_number":
			out[k] = nationalnumber.Mask(v)
		default:
			out[k] = v
		}
	}
	return out
}

// describeValidation flattens validator errors into "field: rule" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("invalid %s (%s)", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func newModelID() string { return uuid.NewString() }

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
