package subscriber

import "time"

// Periods last one calendar year.
const periodYears = 1

// Date normalizes t to midnight UTC so period math never depends on the
// time-of-day or zone the caller happened to carry.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstPeriod computes the initial subscription window for a brand new
// subscriber: it starts today and runs one year.
func FirstPeriod(today time.Time) (start, end time.Time) {
	start = Date(today)
	return start, start.AddDate(periodYears, 0, 0)
}

// NextPeriod computes the renewal window that follows current. If the current
// period has already lapsed the new one starts today, otherwise it starts the
// day after the current end date so there is no gap and no overlap.
func NextPeriod(current Subscription, today time.Time) (start, end time.Time) {
	day := Date(today)
	if current.EndDate.Before(day) {
		start = day
	} else {
		start = current.EndDate.AddDate(0, 0, 1)
	}
	return start, start.AddDate(periodYears, 0, 0)
}
