// Package folders buckets record capture dates into year/month/day folders.
package folders

import (
	"sort"
	"time"

	"github.com/we-kode/mml.media/model"
)

// Granularity selects the folder level records are grouped on.
type Granularity int

const (
	ByYear Granularity = iota
	ByMonth
	ByDay
)

// GranularityFor derives the grouping level from the caller's date range.
// No range groups by year. A range inside a single year groups by month,
// inside a single month by day. A range spanning several years stays on the
// year level, the only reading consistent with RecordFolder.ToDateRange.
func GranularityFor(filter model.TagFilter) Granularity {
	if !filter.HasDateRange() {
		return ByYear
	}

	start := filter.StartDate.UTC()
	end := filter.EndDate.UTC()
	if start.Year() != end.Year() {
		return ByYear
	}
	if start.Month() != end.Month() {
		return ByMonth
	}
	return ByDay
}

// Aggregate groups the given capture dates on the requested level and
// returns the folders ordered by grouping key descending, each carrying the
// count of dates that fell into it.
func Aggregate(dates []time.Time, granularity Granularity) []model.RecordFolder {
	type key struct {
		year, month, day int
	}

	counts := make(map[key]int, len(dates))
	for _, date := range dates {
		u := date.UTC()
		k := key{year: u.Year()}
		if granularity >= ByMonth {
			k.month = int(u.Month())
		}
		if granularity == ByDay {
			k.day = u.Day()
		}
		counts[k]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		if keys[i].month != keys[j].month {
			return keys[i].month > keys[j].month
		}
		return keys[i].day > keys[j].day
	})

	result := make([]model.RecordFolder, 0, len(keys))
	for _, k := range keys {
		folder := model.RecordFolder{Year: k.year, Count: counts[k]}
		if granularity >= ByMonth {
			month := k.month
			folder.Month = &month
		}
		if granularity == ByDay {
			day := k.day
			folder.Day = &day
		}
		result = append(result, folder)
	}
	return result
}

// Page applies folder-level skip/take pagination.
func Page(all []model.RecordFolder, skip, take int) []model.RecordFolder {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return nil
	}
	end := len(all)
	if take > 0 && skip+take < end {
		end = skip + take
	}
	return all[skip:end]
}
