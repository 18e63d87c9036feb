package pivot

import (
	"fmt"
	"regexp"
	"time"

	"github.com/damon-houk/ratepivot/internal/apperrors"
)

// DateLayout is the ISO calendar date layout used on both sides of the pivot
const DateLayout = "2006-01-02"

var boundPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MatchesDatePattern reports whether s has the YYYY-MM-DD shape.
// Calendar validity is not checked: "2019-13-40" matches.
func MatchesDatePattern(s string) bool {
	return boundPattern.MatchString(s)
}

// ValidateBound rejects a non-empty bound that does not match the date pattern
func ValidateBound(bound string) error {
	if bound == "" || MatchesDatePattern(bound) {
		return nil
	}
	return fmt.Errorf("%w: max date %q must match YYYY-MM-DD", apperrors.ErrInvalidArgument, bound)
}

func nextDay(date string) (string, error) {
	return shiftDay(date, 1)
}

func previousDay(date string) (string, error) {
	return shiftDay(date, -1)
}

func shiftDay(date string, days int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a calendar date", apperrors.ErrMalformedInput, date)
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}
