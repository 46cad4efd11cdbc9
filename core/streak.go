package core

import "time"

// StreakRecord is the mutable per-wallet streak state kept by ledgers.
// LastActive holds a YYYY-MM-DD date; the empty string means no activity yet.
type StreakRecord struct {
	Current    int
	Longest    int
	LastActive string
}

// DateKey formats a time as the calendar-day key used by streak records.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AdvanceStreak updates a streak record for activity at the given time.
// It returns false when the record is unchanged because the day was
// already marked active. The streak extends only when the previous
// active day is exactly yesterday; any gap resets it to 1.
func AdvanceStreak(rec *StreakRecord, now time.Time) bool {
	today := DateKey(now)
	if rec.LastActive == today {
		return false
	}

	yesterday := DateKey(now.AddDate(0, 0, -1))
	if rec.LastActive == yesterday {
		rec.Current++
	} else {
		rec.Current = 1
	}
	if rec.Current > rec.Longest {
		rec.Longest = rec.Current
	}
	rec.LastActive = today
	return true
}
