package cache

import "time"

// dateLayouts are the calendar-date shapes accepted for an end_date
// parameter, tried in order.
var dateLayouts = []string{"2006-01-02", "20060102", "2006/01/02"}

// isFresh implements §4.5's freshness rule: an entry whose resolved
// T_end is strictly before today never expires (historical data is
// immutable). Otherwise it expires at the next local-midnight boundary
// after storedAt.
func isFresh(params map[string]string, storedAt, now time.Time) bool {
	tEnd := resolveEndDate(params, now)
	today := truncateToDay(now)

	if tEnd.Before(today) {
		return true
	}

	nextMidnight := truncateToDay(storedAt).AddDate(0, 0, 1)
	return now.Before(nextMidnight)
}

// resolveEndDate parses params["end_date"] as a calendar date if present
// and parseable, defaulting to "today" otherwise (§4.5).
func resolveEndDate(params map[string]string, now time.Time) time.Time {
	raw, present := params["end_date"]
	if !present || raw == "" {
		return truncateToDay(now)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return truncateToDay(t)
		}
	}
	return truncateToDay(now)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
