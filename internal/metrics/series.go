package metrics

import (
	"fmt"
	"time"

	"campaigndash/internal/models"
)

const DateLayout = "2006-01-02"

// MonthRange returns the first and last calendar day of the month as YYYY-MM-DD.
func MonthRange(year int, month int) (since string, until string, err error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("month %d out of range", month)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

func DaysIn(year int, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Point is one day of a dense series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// FillDaily builds a series with one point per calendar day of the month.
// Days absent from samples are zero; several samples on one day fold by kind.
// Samples outside the month are ignored.
func FillDaily(samples []models.MetricSample, year int, month int, kind Kind) []Point {
	days := DaysIn(year, month)
	acc := make([]accumulator, days)

	for _, s := range samples {
		d, err := time.Parse(DateLayout, s.Date)
		if err != nil || d.Year() != year || int(d.Month()) != month {
			continue
		}
		acc[d.Day()-1].add(s.MetricValue)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	series := make([]Point, days)
	for i := range series {
		series[i] = Point{
			Date:  first.AddDate(0, 0, i).Format(DateLayout),
			Value: acc[i].value(kind),
		}
	}
	return series
}
