package recurrence

import (
	"github.com/teambition/rrule-go"
)

// IsValidRule reports whether s parses as a well-formed recurrence rule.
// Callers use it to reject user-entered rules before they are persisted;
// Expand itself fails soft on anything that slips through.
func IsValidRule(s string) bool {
	s = normalizeRule(s)
	if s == "" {
		return false
	}
	_, err := rrule.StrToRRule(s)
	return err == nil
}
