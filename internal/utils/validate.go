package utils

import (
	"regexp"
	"strings"
	"time"
)

// Field validators for employee and creator payloads.  Rules follow the
// submission format the magazine staff portal uses: plain ASCII names,
// conventional email shape, E.164-ish phone numbers and ISO dates.

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z]+$`)
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidName checks a personal name: letters only, no spaces or digits.
func ValidName(s string) bool {
	return s != "" && nameRe.MatchString(s)
}

// ValidEmail checks basic email shape and dot placement in the local part.
func ValidEmail(s string) bool {
	if strings.Count(s, "@") != 1 || !emailRe.MatchString(s) {
		return false
	}
	local := s[:strings.Index(s, "@")]
	if strings.Contains(local, "..") || strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	return true
}

// ValidPhone checks an international phone number: optional +, 7-15 digits.
func ValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// ParseISODate parses a YYYY-MM-DD date in UTC.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
