package model

import "time"

// RecordFolder is a derived grouping key of records by capture date. Month
// and Day are nil above their granularity: {2024, nil, nil} is the year
// folder, {2024, 7, nil} a month folder, {2024, 7, 14} a day folder.
// Folders are never persisted.
type RecordFolder struct {
	Year  int  `json:"year"`
	Month *int `json:"month,omitempty"`
	Day   *int `json:"day,omitempty"`
	Count int  `json:"count"` // matching records inside the folder
}

// RecordFolders is one page of record folders.
type RecordFolders struct {
	TotalCount int64          `json:"totalCount"`
	Items      []RecordFolder `json:"items"`
}

// ToDateRange expands the folder key into the inclusive UTC date range it
// covers. An unset month widens to the full year, an unset day to the full
// month. This exactly inverts the grouping that produced the folder, which
// folder-scoped bulk operations rely on.
func (f RecordFolder) ToDateRange() (start, end time.Time) {
	startMonth := time.January
	endMonth := time.December
	if f.Month != nil {
		startMonth = time.Month(*f.Month)
		endMonth = startMonth
	}

	startDay := 1
	endDay := daysInMonth(f.Year, endMonth)
	if f.Day != nil {
		startDay = *f.Day
		endDay = *f.Day
	}

	start = time.Date(f.Year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	end = time.Date(f.Year, endMonth, endDay, 0, 0, 0, 0, time.UTC)
	return start, end
}

// Contains reports whether the given date falls inside the folder's range.
func (f RecordFolder) Contains(date time.Time) bool {
	start, end := f.ToDateRange()
	day := date.UTC().Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
