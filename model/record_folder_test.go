package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intptr(v int) *int { return &v }

func TestToDateRangeYearFolder(t *testing.T) {
	folder := RecordFolder{Year: 2024}
	start, end := folder.ToDateRange()

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestToDateRangeMonthFolder(t *testing.T) {
	folder := RecordFolder{Year: 2024, Month: intptr(2)}
	start, end := folder.ToDateRange()

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	// 2024 is a leap year.
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)
}

func TestToDateRangeDayFolder(t *testing.T) {
	folder := RecordFolder{Year: 2023, Month: intptr(7), Day: intptr(14)}
	start, end := folder.ToDateRange()

	assert.Equal(t, time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start, end)
}

func TestFolderContainsRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 15, 13, 45, 12, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	for _, date := range dates {
		month := int(date.Month())
		day := date.Day()

		folders := []RecordFolder{
			{Year: date.Year()},
			{Year: date.Year(), Month: &month},
			{Year: date.Year(), Month: &month, Day: &day},
		}
		for _, folder := range folders {
			assert.True(t, folder.Contains(date), "folder %+v should contain %s", folder, date)
		}
	}
}

func TestFolderDoesNotContainOutsideDates(t *testing.T) {
	folder := RecordFolder{Year: 2024, Month: intptr(3)}

	assert.False(t, folder.Contains(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)))
	assert.False(t, folder.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, folder.Contains(time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC)))
}
