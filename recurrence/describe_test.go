package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	start := time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC) // Tuesday, January 9

	tests := []struct {
		name string
		rule string
		want string
	}{
		{"daily", "FREQ=DAILY", "Every day"},
		{"daily interval", "FREQ=DAILY;INTERVAL=3", "Every 3 days"},
		{"weekly single day", "FREQ=WEEKLY;BYDAY=TH", "Every week on Thursday"},
		{"weekly multiple days", "FREQ=WEEKLY;BYDAY=MO,WE", "Every week on Monday, Wednesday"},
		{"weekly no byday", "FREQ=WEEKLY", "Every week"},
		{"biweekly", "FREQ=WEEKLY;INTERVAL=2;BYDAY=FR", "Every 2 weeks on Friday"},
		{"workweek", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR", "Every weekday"},
		{"monthly nth weekday", "FREQ=MONTHLY;BYDAY=2TU", "Every month on the 2nd Tuesday"},
		{"monthly first", "FREQ=MONTHLY;BYDAY=1MO", "Every month on the 1st Monday"},
		{"monthly third", "FREQ=MONTHLY;BYDAY=3WE", "Every month on the 3rd Wednesday"},
		{"monthly last", "FREQ=MONTHLY;BYDAY=-1FR", "Every month on the last Friday"},
		{"monthly plain uses start day", "FREQ=MONTHLY", "Every month on day 9"},
		{"monthly bymonthday", "FREQ=MONTHLY;BYMONTHDAY=15", "Every month on day 15"},
		{"yearly", "FREQ=YEARLY", "Every year on January 9"},
		{"counted", "FREQ=DAILY;COUNT=10", "Every day, 10 times"},
		{"until", "FREQ=DAILY;UNTIL=20240315T235959Z", "Every day until Mar 15, 2024"},
		{"hourly degrades", "FREQ=HOURLY", "Custom recurrence"},
		{"garbage degrades", "soon and often", "Custom recurrence"},
		{"empty degrades", "", "Custom recurrence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.rule, start))
		})
	}
}

// Every generated preset must get a real phrase, never the generic fallback.
func TestDescribe_CoversAllGeneratedPresets(t *testing.T) {
	start := time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)
	presets := []Preset{PresetDaily, PresetWeekly, PresetMonthly, PresetYearly, PresetWeekdays}

	for _, preset := range presets {
		rule, err := GenerateRule(preset, start, EndPolicy{Mode: EndNever})
		require.NoError(t, err)
		assert.NotEqual(t, customPhrase, Describe(rule, start), "preset %s", preset)
	}
}
