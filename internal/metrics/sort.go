package metrics

import (
	"fmt"
	"sort"

	"campaigndash/internal/models"
)

type Column string

const (
	ColumnCampaign    Column = "campaign"
	ColumnClicks      Column = "clicks"
	ColumnImpressions Column = "impressions"
	ColumnCPC         Column = "cpc"
	ColumnCTR         Column = "ctr"
)

func ParseColumn(s string) (Column, error) {
	switch c := Column(s); c {
	case ColumnCampaign, ColumnClicks, ColumnImpressions, ColumnCPC, ColumnCTR:
		return c, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortState is the table's current sort column and direction.
type SortState struct {
	Column    Column
	Direction Direction
}

// DefaultSort shows the most-clicked campaigns first.
func DefaultSort() SortState {
	return SortState{Column: ColumnClicks, Direction: Descending}
}

// Toggle reverses the direction when the same column is selected again and
// resets to ascending when a different column is selected.
func (s SortState) Toggle(column Column) SortState {
	if s.Column == column {
		if s.Direction == Ascending {
			return SortState{Column: column, Direction: Descending}
		}
		return SortState{Column: column, Direction: Ascending}
	}
	return SortState{Column: column, Direction: Ascending}
}

// Arrow is the header indicator for column.
func (s SortState) Arrow(column Column) string {
	if s.Column != column {
		return ""
	}
	if s.Direction == Ascending {
		return "↑"
	}
	return "↓"
}

// SortRows returns a sorted copy; the input is left untouched.
func SortRows(rows []models.CampaignRow, state SortState) []models.CampaignRow {
	out := make([]models.CampaignRow, len(rows))
	copy(out, rows)

	less := func(a, b models.CampaignRow) bool {
		if state.Column == ColumnCampaign {
			return a.Campaign < b.Campaign
		}
		return numeric(a, state.Column) < numeric(b, state.Column)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if state.Direction == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func numeric(r models.CampaignRow, c Column) float64 {
	switch c {
	case ColumnClicks:
		return r.Clicks
	case ColumnImpressions:
		return r.Impressions
	case ColumnCPC:
		return r.CPC
	case ColumnCTR:
		return r.CTR
	}
	return 0
}
