package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// customPhrase is the fallback for anything Describe cannot phrase.
const customPhrase = "Custom recurrence"

// weekdayNames is indexed by rrule's weekday numbering (Monday = 0).
var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Describe maps a recurrence rule to a short human phrase for display, e.g.
// "Every week on Thursday" or "Every month on the 2nd Tuesday". It covers
// every rule GenerateRule produces and degrades to a generic phrase for
// anything else. start anchors phrases that depend on the base event's date.
func Describe(rule string, start time.Time) string {
	r, err := rrule.StrToRRule(normalizeRule(rule))
	if err != nil {
		return customPhrase
	}
	opts := r.OrigOptions

	var phrase string
	switch opts.Freq {
	case rrule.DAILY:
		phrase = every("day", "days", opts.Interval)
	case rrule.WEEKLY:
		phrase = describeWeekly(opts)
	case rrule.MONTHLY:
		phrase = describeMonthly(opts, start)
	case rrule.YEARLY:
		phrase = every("year", "years", opts.Interval) + " on " + start.Format("January 2")
	default:
		return customPhrase
	}
	if phrase == "" {
		return customPhrase
	}

	switch {
	case opts.Count > 0:
		phrase += fmt.Sprintf(", %d times", opts.Count)
	case !opts.Until.IsZero():
		phrase += " until " + opts.Until.Format("Jan 2, 2006")
	}
	return phrase
}

func describeWeekly(opts rrule.ROption) string {
	if len(opts.Byweekday) == 0 {
		return every("week", "weeks", opts.Interval)
	}
	if isWorkweek(opts.Byweekday) {
		return "Every weekday"
	}
	names := make([]string, 0, len(opts.Byweekday))
	for _, d := range opts.Byweekday {
		if d.N() != 0 {
			return ""
		}
		names = append(names, weekdayNames[d.Day()])
	}
	return every("week", "weeks", opts.Interval) + " on " + strings.Join(names, ", ")
}

func describeMonthly(opts rrule.ROption, start time.Time) string {
	base := every("month", "months", opts.Interval)
	if len(opts.Byweekday) == 1 && opts.Byweekday[0].N() != 0 {
		d := opts.Byweekday[0]
		return fmt.Sprintf("%s on the %s %s", base, ordinal(d.N()), weekdayNames[d.Day()])
	}
	if len(opts.Byweekday) > 0 {
		return ""
	}
	day := start.Day()
	if len(opts.Bymonthday) == 1 {
		day = opts.Bymonthday[0]
	}
	return fmt.Sprintf("%s on day %d", base, day)
}

func every(singular, plural string, interval int) string {
	if interval > 1 {
		return fmt.Sprintf("Every %d %s", interval, plural)
	}
	return "Every " + singular
}

// isWorkweek reports whether days is exactly Monday through Friday.
func isWorkweek(days []rrule.Weekday) bool {
	if len(days) != 5 {
		return false
	}
	seen := [7]bool{}
	for _, d := range days {
		if d.N() != 0 {
			return false
		}
		seen[d.Day()] = true
	}
	return seen[0] && seen[1] && seen[2] && seen[3] && seen[4]
}

// ordinal renders 1 as "1st", 2 as "2nd" and so on. Negative offsets count
// from the end of the month ("last", "2nd to last").
func ordinal(n int) string {
	if n < 0 {
		if n == -1 {
			return "last"
		}
		return ordinal(-n) + " to last"
	}
	suffix := "th"
	switch n % 10 {
	case 1:
		if n%100 != 11 {
			suffix = "st"
		}
	case 2:
		if n%100 != 12 {
			suffix = "nd"
		}
	case 3:
		if n%100 != 13 {
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
