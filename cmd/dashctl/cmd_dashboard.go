package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campaigndash/internal/dashboard"
	"campaigndash/internal/insights"
	"campaigndash/internal/metrics"
)

var (
	dashYear   int
	dashMonth  int
	dashMetric string
	dashSort   string
	dashLimit  int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the monthly metrics and the campaign table",
	Long: `Render the summary cards, the daily chart and the campaign and platform
breakdowns for one metric and month, followed by the all-time campaign table.

--sort takes a column name (campaign, clicks, impressions, cpc, ctr). Prefix it
with '-' for descending order. Each panel reports its own failure.`,
	RunE: runDashboard,
}

func init() {
	now := time.Now()
	dashboardCmd.Flags().IntVar(&dashYear, "year", now.Year(), "Year (one of the last five)")
	dashboardCmd.Flags().IntVar(&dashMonth, "month", int(now.Month()), "Month 1-12")
	dashboardCmd.Flags().StringVar(&dashMetric, "metric", string(metrics.Clicks), "clicks, impressions, cpc or ctr")
	dashboardCmd.Flags().StringVar(&dashSort, "sort", "-clicks", "Campaign table sort column")
	dashboardCmd.Flags().IntVar(&dashLimit, "limit", insights.DefaultLimit, "Campaign rows to fetch")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	sel := dashboard.Selection{Year: dashYear, Month: dashMonth}
	if err := checkSelection(sel, time.Now()); err != nil {
		return err
	}
	kind, err := metrics.ParseKind(dashMetric)
	if err != nil {
		return err
	}
	sortState, err := parseSort(dashSort)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	user, err := requirePage(ctx, dashboard.RouteDashboard)
	if err != nil {
		return err
	}
	logger.Debug().Str("email", user.Email).Str("metric", string(kind)).Stringer("month", sel).Msg("rendering dashboard")

	if stats, err := dashboard.LoadStats(ctx, client, sel); err != nil {
		panel(dashboard.RenderError(dashboard.Message(err)))
	} else {
		panel(dashboard.RenderStats(stats))
	}

	for _, shape := range []dashboard.Shape{dashboard.ShapeDaily, dashboard.ShapeCampaign, dashboard.ShapePlatform} {
		view := dashboard.MetricView{Kind: kind, Shape: shape}
		data, err := view.Load(ctx, client, sel)
		if err != nil {
			panel(dashboard.RenderError(dashboard.Message(err)))
			continue
		}
		panel(dashboard.RenderView(data))
	}

	table := dashboard.NewCampaignTable()
	table.Sort = sortState
	if err := table.Load(ctx, client, dashLimit); err != nil {
		panel(dashboard.RenderError(dashboard.Message(err)))
		return nil
	}
	panel(dashboard.RenderCampaigns(table.Rows(), table.Sort))
	return nil
}

func panel(s string) {
	fmt.Println(s)
	fmt.Println()
}

func checkSelection(sel dashboard.Selection, now time.Time) error {
	if sel.Month < 1 || sel.Month > 12 {
		return fmt.Errorf("month must be 1-12, got %d", sel.Month)
	}
	for _, y := range dashboard.YearOptions(now) {
		if y == sel.Year {
			return nil
		}
	}
	return fmt.Errorf("year must be one of %v", dashboard.YearOptions(now))
}

// parseSort reads "column" as ascending and "-column" as descending.
func parseSort(s string) (metrics.SortState, error) {
	dir := metrics.Ascending
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		dir, s = metrics.Descending, rest
	}
	col, err := metrics.ParseColumn(s)
	if err != nil {
		return metrics.SortState{}, err
	}
	return metrics.SortState{Column: col, Direction: dir}, nil
}
