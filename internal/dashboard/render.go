package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"campaigndash/internal/authclient"
	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
)

const barWidth = 40

var (
	accent  = lipgloss.Color("#8BC34A")
	muted   = lipgloss.Color("#6B7280")
	danger  = lipgloss.Color("#E53935")
	border  = lipgloss.Color("#2A3850")
	barFill = lipgloss.Color("#4DB6AC")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 2).
			Width(22)
	cardLabel   = lipgloss.NewStyle().Foreground(muted)
	cardValue   = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(muted)
	barStyle    = lipgloss.NewStyle().Foreground(barFill)
	errorStyle  = lipgloss.NewStyle().Foreground(danger)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func RenderError(msg string) string {
	return errorStyle.Render(msg)
}

// RenderStats lays the summary cards out side by side.
func RenderStats(stats metrics.Stats) string {
	cards := make([]string, 0, len(metrics.Kinds))
	for _, k := range metrics.Kinds {
		cards = append(cards, cardStyle.Render(
			cardLabel.Render(k.Label())+"\n"+cardValue.Render(k.Format(stats[k])),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// RenderView draws a daily series or a grouped chart as horizontal bars.
func RenderView(data ViewData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(data.View.Title() + " · " + data.Selection.String()))
	b.WriteByte('\n')

	kind := data.View.Kind
	if data.View.Shape == ShapeDaily {
		labels := make([]string, len(data.Daily))
		values := make([]float64, len(data.Daily))
		for i, p := range data.Daily {
			labels[i] = p.Date[len(p.Date)-2:]
			values[i] = p.Value
		}
		b.WriteString(bars(labels, values, kind))
		return b.String()
	}

	if len(data.Groups) == 0 {
		b.WriteString(labelStyle.Render("No data for this month"))
		return b.String()
	}
	labels := make([]string, len(data.Groups))
	values := make([]float64, len(data.Groups))
	for i, g := range data.Groups {
		labels[i] = g.Key
		values[i] = g.Value
	}
	b.WriteString(bars(labels, values, kind))
	if !kind.IsRate() {
		b.WriteString("\n" + labelStyle.Render("Total ") + cardValue.Render(kind.Format(data.Total)))
	}
	return b.String()
}

func bars(labels []string, values []float64, kind metrics.Kind) string {
	width := 0
	peak := 0.0
	for i, l := range labels {
		width = max(width, lipgloss.Width(l))
		peak = max(peak, values[i])
	}

	lines := make([]string, len(labels))
	for i, l := range labels {
		n := 0
		if peak > 0 {
			n = int(values[i] / peak * barWidth)
		}
		lines[i] = fmt.Sprintf("%s %s %s",
			labelStyle.Render(padRight(l, width)),
			barStyle.Render(strings.Repeat("█", n)+strings.Repeat("·", barWidth-n)),
			kind.Format(values[i]),
		)
	}
	return strings.Join(lines, "\n")
}

var campaignColumns = []struct {
	column metrics.Column
	title  string
}{
	{metrics.ColumnCampaign, "Campaign"},
	{metrics.ColumnClicks, "Clicks"},
	{metrics.ColumnImpressions, "Impressions"},
	{metrics.ColumnCPC, "CPC"},
	{metrics.ColumnCTR, "CTR"},
}

// RenderCampaigns renders rows in the given order with the sort arrow on the
// active column header.
func RenderCampaigns(rows []models.CampaignRow, state metrics.SortState) string {
	headers := make([]string, len(campaignColumns))
	for i, c := range campaignColumns {
		headers[i] = strings.TrimSpace(c.title + " " + state.Arrow(c.column))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col > 0 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(
			r.Campaign,
			metrics.Clicks.Format(r.Clicks),
			metrics.Impressions.Format(r.Impressions),
			metrics.CPC.Format(r.CPC),
			metrics.CTR.Format(r.CTR),
		)
	}
	return t.Render()
}

func RenderUsers(users []authclient.User) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(border)).
		Headers("Email", "Name").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, u := range users {
		t.Row(u.Email, u.Name)
	}
	return t.Render()
}

// RenderChecklist shows each password rule with a tick or a cross.
func RenderChecklist(form AuthForm) string {
	checks := form.Checklist()
	rules := []struct {
		ok   bool
		text string
	}{
		{checks.MinLength, "8 characters minimum"},
		{checks.Uppercase, "one uppercase character"},
		{checks.Lowercase, "one lowercase character"},
		{checks.Number, "one number"},
		{checks.Special, "one special character"},
	}

	lines := make([]string, len(rules))
	for i, r := range rules {
		if r.ok {
			lines[i] = barStyle.Render("✓ " + r.text)
		} else {
			lines[i] = errorStyle.Render("✗ " + r.text)
		}
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
