package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
)

// MetricSource fetches one month of samples for a metric.
type MetricSource interface {
	Monthly(ctx context.Context, since, until, metric string) ([]models.MetricSample, error)
}

type CampaignSource interface {
	AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error)
}

// Selection is the year/month picked in the dashboard header.
type Selection struct {
	Year  int
	Month int
}

func CurrentSelection(now time.Time) Selection {
	return Selection{Year: now.Year(), Month: int(now.Month())}
}

func (s Selection) Range() (string, string, error) {
	return metrics.MonthRange(s.Year, s.Month)
}

func (s Selection) String() string {
	if s.Month < 1 || s.Month > 12 {
		return fmt.Sprintf("%d-%02d", s.Year, s.Month)
	}
	return fmt.Sprintf("%s %d", time.Month(s.Month), s.Year)
}

// YearOptions lists the current year and the four before it, newest first.
func YearOptions(now time.Time) []int {
	years := make([]int, 5)
	for i := range years {
		years[i] = now.Year() - i
	}
	return years
}

// MonthOptions lists the month names January..December.
func MonthOptions() []string {
	names := make([]string, 12)
	for i := range names {
		names[i] = time.Month(i + 1).String()
	}
	return names
}

type Shape string

const (
	ShapeDaily    Shape = "daily"
	ShapeCampaign Shape = "campaign"
	ShapePlatform Shape = "platform"
)

// MetricView is one chart: a metric reshaped into a daily series or grouped
// by campaign or platform.
type MetricView struct {
	Kind  metrics.Kind
	Shape Shape
}

// ViewData is what a MetricView renders. Only one of Daily and Groups is set.
type ViewData struct {
	View      MetricView
	Selection Selection
	Daily     []metrics.Point
	Groups    []metrics.Group
	Total     float64
}

func (v MetricView) Title() string {
	switch v.Shape {
	case ShapeCampaign:
		return v.Kind.Label() + " by campaign"
	case ShapePlatform:
		return v.Kind.Label() + " by platform"
	}
	return "Daily " + v.Kind.Label()
}

func (v MetricView) Load(ctx context.Context, src MetricSource, sel Selection) (ViewData, error) {
	since, until, err := sel.Range()
	if err != nil {
		return ViewData{}, err
	}

	samples, err := src.Monthly(ctx, since, until, string(v.Kind))
	if err != nil {
		return ViewData{}, fmt.Errorf("load %s: %w", v.Title(), err)
	}
	return v.Shape.apply(v, sel, samples)
}

func (s Shape) apply(v MetricView, sel Selection, samples []models.MetricSample) (ViewData, error) {
	data := ViewData{View: v, Selection: sel}
	switch s {
	case ShapeDaily:
		data.Daily = metrics.FillDaily(samples, sel.Year, sel.Month, v.Kind)
	case ShapeCampaign, ShapePlatform:
		groups, err := metrics.GroupBy(samples, metrics.Dimension(s), v.Kind)
		if err != nil {
			return ViewData{}, err
		}
		data.Groups = groups
		data.Total = metrics.Total(groups)
	default:
		return ViewData{}, fmt.Errorf("unknown view shape %q", s)
	}
	return data, nil
}

// LoadStats fetches every metric of the month concurrently and folds them
// into the summary cards. The first failure cancels the rest.
func LoadStats(ctx context.Context, src MetricSource, sel Selection) (metrics.Stats, error) {
	since, until, err := sel.Range()
	if err != nil {
		return nil, err
	}

	series := make([][]models.MetricSample, len(metrics.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range metrics.Kinds {
		g.Go(func() error {
			samples, err := src.Monthly(gctx, since, until, string(kind))
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			series[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKind := make(map[metrics.Kind][]models.MetricSample, len(series))
	for i, kind := range metrics.Kinds {
		byKind[kind] = series[i]
	}
	return metrics.Summarize(byKind), nil
}

// CampaignTable is the all-time campaign table with its sort state.
type CampaignTable struct {
	Sort metrics.SortState
	rows []models.CampaignRow
}

func NewCampaignTable() *CampaignTable {
	return &CampaignTable{Sort: metrics.DefaultSort()}
}

func (t *CampaignTable) Load(ctx context.Context, src CampaignSource, limit int) error {
	rows, err := src.AllTime(ctx, limit)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}
	t.rows = rows
	return nil
}

func (t *CampaignTable) Toggle(column metrics.Column) {
	t.Sort = t.Sort.Toggle(column)
}

func (t *CampaignTable) Rows() []models.CampaignRow {
	return metrics.SortRows(t.rows, t.Sort)
}
