package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Preset identifies a recurrence pattern the UI offers directly.
type Preset string

const (
	PresetDaily    Preset = "DAILY"
	PresetWeekly   Preset = "WEEKLY"   // weekly on the start date's weekday
	PresetMonthly  Preset = "MONTHLY"  // monthly on the nth weekday of the month
	PresetYearly   Preset = "YEARLY"
	PresetWeekdays Preset = "WEEKDAYS" // Monday through Friday
	// PresetCustom marks a rule the user typed themselves; GenerateRule
	// cannot produce it. Gate such rules with IsValidRule instead.
	PresetCustom Preset = "CUSTOM"
)

// EndMode describes how a series ends.
type EndMode string

const (
	EndNever      EndMode = "NEVER"
	EndUntil      EndMode = "UNTIL"
	EndAfterCount EndMode = "AFTER_COUNT"
)

// EndPolicy bounds a generated rule. Until is read for EndUntil, Count for
// EndAfterCount; both are ignored otherwise.
type EndPolicy struct {
	Mode  EndMode
	Until time.Time
	Count int
}

const untilLayout = "20060102T150405Z"

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// GenerateRule builds the RRULE body for a preset anchored at start.
// Weekly presets derive the weekday from start; monthly presets derive the
// nth-weekday-of-month pattern from start's day of month. The result is
// deterministic for identical inputs.
func GenerateRule(preset Preset, start time.Time, end EndPolicy) (string, error) {
	var rule string
	switch preset {
	case PresetDaily:
		rule = "FREQ=DAILY"
	case PresetWeekly:
		rule = fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s", rruleWeekdays[start.Weekday()])
	case PresetMonthly:
		nth := (start.Day() + 6) / 7 // ceil(dayOfMonth / 7)
		rule = fmt.Sprintf("FREQ=MONTHLY;BYDAY=%d%s", nth, rruleWeekdays[start.Weekday()])
	case PresetYearly:
		rule = "FREQ=YEARLY"
	case PresetWeekdays:
		rule = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
	case PresetCustom:
		return "", fmt.Errorf("custom rules are authored by the caller, not generated")
	default:
		return "", fmt.Errorf("unknown recurrence preset %q", preset)
	}

	switch end.Mode {
	case EndNever, "":
		// Unbounded.
	case EndUntil:
		// End of the chosen day in UTC, so the named date itself still
		// produces an occurrence.
		until := time.Date(
			end.Until.Year(), end.Until.Month(), end.Until.Day(),
			23, 59, 59, 0, time.UTC,
		)
		rule += ";UNTIL=" + until.Format(untilLayout)
	case EndAfterCount:
		count := end.Count
		if count < 1 {
			count = 1
		}
		rule += fmt.Sprintf(";COUNT=%d", count)
	default:
		return "", fmt.Errorf("unknown recurrence end mode %q", end.Mode)
	}

	return rule, nil
}
