package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/models"
)

func TestMonthRange(t *testing.T) {
	cases := []struct {
		year, month  int
		since, until string
	}{
		{2024, 2, "2024-02-01", "2024-02-29"},
		{2023, 2, "2023-02-01", "2023-02-28"},
		{2024, 12, "2024-12-01", "2024-12-31"},
		{2025, 4, "2025-04-01", "2025-04-30"},
	}
	for _, tc := range cases {
		since, until, err := MonthRange(tc.year, tc.month)
		require.NoError(t, err)
		assert.Equal(t, tc.since, since)
		assert.Equal(t, tc.until, until)
	}

	_, _, err := MonthRange(2024, 13)
	assert.Error(t, err)
}

func TestFillDailyIsDense(t *testing.T) {
	samples := []models.MetricSample{
		{Date: "2024-02-03", MetricValue: 5},
		{Date: "2024-02-03", MetricValue: 7},
		{Date: "2024-02-29", MetricValue: 1},
		{Date: "2024-03-01", MetricValue: 99},
		{Date: "garbage", MetricValue: 99},
	}

	series := FillDaily(samples, 2024, 2, Clicks)

	require.Len(t, series, 29)
	assert.Equal(t, "2024-02-01", series[0].Date)
	assert.Equal(t, 0.0, series[0].Value)
	assert.Equal(t, 12.0, series[2].Value)
	assert.Equal(t, Point{Date: "2024-02-29", Value: 1}, series[28])
}

func TestFillDailyAveragesRates(t *testing.T) {
	samples := []models.MetricSample{
		{Date: "2023-04-10", MetricValue: 1.0},
		{Date: "2023-04-10", MetricValue: 2.0},
	}

	series := FillDaily(samples, 2023, 4, CTR)

	require.Len(t, series, 30)
	assert.InDelta(t, 1.5, series[9].Value, 1e-9)
	assert.Equal(t, 0.0, series[10].Value)
}

func TestFillDailyEmpty(t *testing.T) {
	for month := 1; month <= 12; month++ {
		assert.Len(t, FillDaily(nil, 2023, month, Impressions), DaysIn(2023, month))
	}
}

func TestGroupBy(t *testing.T) {
	samples := []models.MetricSample{
		{Campaign: "Spring", Platform: "facebook", MetricValue: 10},
		{Campaign: "Summer", Platform: "instagram", MetricValue: 4},
		{Campaign: "Spring", Platform: "instagram", MetricValue: 6},
		{Campaign: "", Platform: "", MetricValue: 1},
	}

	byCampaign, err := GroupBy(samples, ByCampaign, Clicks)
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Key: "Spring", Value: 16},
		{Key: "Summer", Value: 4},
		{Key: "Unknown Campaign", Value: 1},
	}, byCampaign)
	assert.Equal(t, 21.0, Total(byCampaign))

	byPlatform, err := GroupBy(samples, ByPlatform, CPC)
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Key: "facebook", Value: 10},
		{Key: "instagram", Value: 5},
		{Key: "Unknown Platform", Value: 1},
	}, byPlatform)

	_, err = GroupBy(samples, Dimension("country"), Clicks)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	stats := Summarize(map[Kind][]models.MetricSample{
		Clicks:      {{MetricValue: 3}, {MetricValue: 4}},
		Impressions: {{MetricValue: 100}},
		CPC:         {{MetricValue: 1}, {MetricValue: 2}, {MetricValue: 3}},
	})

	assert.Equal(t, 7.0, stats[Clicks])
	assert.Equal(t, 100.0, stats[Impressions])
	assert.Equal(t, 2.0, stats[CPC])
	assert.Equal(t, 0.0, stats[CTR])
}

func TestSortToggle(t *testing.T) {
	state := DefaultSort()
	assert.Equal(t, SortState{Column: ColumnClicks, Direction: Descending}, state)

	state = state.Toggle(ColumnClicks)
	assert.Equal(t, Ascending, state.Direction)
	state = state.Toggle(ColumnClicks)
	assert.Equal(t, Descending, state.Direction)

	state = state.Toggle(ColumnCTR)
	assert.Equal(t, SortState{Column: ColumnCTR, Direction: Ascending}, state)
	assert.Equal(t, "↑", state.Arrow(ColumnCTR))
	assert.Equal(t, "", state.Arrow(ColumnClicks))
}

func TestSortRows(t *testing.T) {
	rows := []models.CampaignRow{
		{Campaign: "b", Clicks: 2, CTR: 0.5},
		{Campaign: "a", Clicks: 10, CTR: 1.5},
		{Campaign: "c", Clicks: 5, CTR: 0.1},
	}

	byClicks := SortRows(rows, DefaultSort())
	assert.Equal(t, []string{"a", "c", "b"}, campaigns(byClicks))

	byName := SortRows(rows, SortState{Column: ColumnCampaign, Direction: Ascending})
	assert.Equal(t, []string{"a", "b", "c"}, campaigns(byName))

	reversed := SortRows(byName, SortState{Column: ColumnCampaign, Direction: Descending})
	assert.Equal(t, []string{"c", "b", "a"}, campaigns(reversed))

	assert.Equal(t, "b", rows[0].Campaign, "input must not be reordered")
}

func TestKindFormat(t *testing.T) {
	assert.Equal(t, "1,234,567", Clicks.Format(1234567))
	assert.Equal(t, "12", Impressions.Format(12))
	assert.Equal(t, "13", Clicks.Format(12.5))
	assert.Equal(t, "-3", Clicks.Format(-2.6))
	assert.Equal(t, "-1,235", Clicks.Format(-1234.5))
	assert.Equal(t, "0", Clicks.Format(-0.4))
	assert.Equal(t, "₹0.57", CPC.Format(0.567))
	assert.Equal(t, "2.3%", CTR.Format(2.34))

	k, err := ParseKind(" CTR ")
	require.NoError(t, err)
	assert.Equal(t, CTR, k)
	_, err = ParseKind("spend")
	assert.Error(t, err)
}

func campaigns(rows []models.CampaignRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Campaign
	}
	return out
}
