package folders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/we-kode/mml.media/model"
)

func date(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func rangeFilter(start, end string) model.TagFilter {
	s := date(start)
	e := date(end)
	return model.TagFilter{StartDate: &s, EndDate: &e}
}

func TestGranularitySelection(t *testing.T) {
	assert.Equal(t, ByYear, GranularityFor(model.TagFilter{}))
	assert.Equal(t, ByYear, GranularityFor(rangeFilter("2022-03-01T00:00:00Z", "2024-03-01T00:00:00Z")))
	assert.Equal(t, ByMonth, GranularityFor(rangeFilter("2024-01-01T00:00:00Z", "2024-06-30T00:00:00Z")))
	assert.Equal(t, ByDay, GranularityFor(rangeFilter("2024-06-01T00:00:00Z", "2024-06-30T00:00:00Z")))
}

func TestInvalidRangeFallsBackToYear(t *testing.T) {
	// End before start is no usable range.
	assert.Equal(t, ByYear, GranularityFor(rangeFilter("2024-06-30T00:00:00Z", "2024-06-01T00:00:00Z")))
}

func TestAggregateByYearDescendingWithCounts(t *testing.T) {
	dates := []time.Time{
		date("2022-01-10T08:00:00Z"),
		date("2024-05-02T08:00:00Z"),
		date("2024-11-20T08:00:00Z"),
		date("2023-07-01T08:00:00Z"),
	}

	result := Aggregate(dates, ByYear)

	require.Len(t, result, 3)
	assert.Equal(t, 2024, result[0].Year)
	assert.Equal(t, 2, result[0].Count)
	assert.Equal(t, 2023, result[1].Year)
	assert.Equal(t, 2022, result[2].Year)
	assert.Nil(t, result[0].Month)
}

func TestAggregateByDay(t *testing.T) {
	dates := []time.Time{
		date("2024-06-03T08:00:00Z"),
		date("2024-06-03T19:00:00Z"),
		date("2024-06-01T08:00:00Z"),
	}

	result := Aggregate(dates, ByDay)

	require.Len(t, result, 2)
	require.NotNil(t, result[0].Day)
	assert.Equal(t, 3, *result[0].Day)
	assert.Equal(t, 2, result[0].Count)
	assert.Equal(t, 1, *result[1].Day)
}

func TestAggregatedFoldersRoundTripTheirDates(t *testing.T) {
	dates := []time.Time{
		date("2024-06-03T08:00:00Z"),
		date("2024-06-17T23:30:00Z"),
		date("2024-02-29T12:00:00Z"),
	}

	for _, granularity := range []Granularity{ByYear, ByMonth, ByDay} {
		result := Aggregate(dates, granularity)
		for _, d := range dates {
			contained := false
			for _, folder := range result {
				if folder.Contains(d) {
					contained = true
					break
				}
			}
			assert.True(t, contained, "date %s lost at granularity %d", d, granularity)
		}
	}
}

func TestPage(t *testing.T) {
	all := Aggregate([]time.Time{
		date("2021-01-01T00:00:00Z"),
		date("2022-01-01T00:00:00Z"),
		date("2023-01-01T00:00:00Z"),
		date("2024-01-01T00:00:00Z"),
	}, ByYear)

	page := Page(all, 1, 2)
	require.Len(t, page, 2)
	assert.Equal(t, 2023, page[0].Year)
	assert.Equal(t, 2022, page[1].Year)

	assert.Empty(t, Page(all, 10, 2))
	assert.Len(t, Page(all, 0, 0), 4)
}
