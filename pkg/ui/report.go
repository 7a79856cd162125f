package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"devaudience/pkg/analysis"
)

const dateLayout = "2006-01-02"

// ReportOptions controls which optional sections are rendered
type ReportOptions struct {
	// DailyDays limits the daily series to the most recent days; 0 prints all
	DailyDays int
	// TopTags limits the tag table; 0 prints all
	TopTags  int
	NoColor  bool
	Warnings []string
}

// NewTable creates a table writer in the house style
func NewTable(out io.Writer, title string, noColor bool) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(title)
	if noColor {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleRounded)
		t.Style().Title.Colors = text.Colors{text.FgCyan, text.Bold}
	}
	t.SetColumnConfigs([]table.ColumnConfig{titleFit(title)})
	return t
}

// titleFit widens the first column so a narrow table never wraps its title
func titleFit(title string) table.ColumnConfig {
	return table.ColumnConfig{Number: 1, WidthMin: text.RuneWidthWithoutEscSequences(title)}
}

// RenderReport prints every section of r
func RenderReport(out io.Writer, r analysis.Report, opts ReportOptions) {
	renderOverview(out, r, opts.NoColor)
	renderActivity(out, r, opts.NoColor)
	renderCompleteness(out, r, opts.NoColor)
	renderEngagement(out, r, opts.NoColor)
	renderDaily(out, r, opts)
	renderTags(out, r, opts)
	renderSuspicious(out, r, opts.NoColor)
	renderWarnings(out, opts)
}

func renderOverview(out io.Writer, r analysis.Report, noColor bool) {
	t := NewTable(out, "Overview", noColor)
	t.AppendRows([]table.Row{
		{"Articles", r.Articles},
		{"Published", r.Published},
		{"Drafts", r.Articles - r.Published},
		{"Followers", r.Followers},
		{"With follow date", r.WithFollowDate},
		{"Degraded", r.Degraded},
		{"Enriched", r.Enriched},
		{"Mean completeness", percent(r.MeanCompleteness)},
	})
	t.SetColumnConfigs([]table.ColumnConfig{titleFit("Overview"), {Number: 2, Align: text.AlignRight}})
	t.Render()
}

func renderActivity(out io.Writer, r analysis.Report, noColor bool) {
	t := NewTable(out, "Activity tiers", noColor)
	t.AppendHeader(table.Row{"Tier", "Followers", "Share"})
	for _, tier := range analysis.Tiers {
		t.AppendRow(table.Row{string(tier), r.Activity[tier], percent(r.Activity.Share(tier))})
	}
	t.AppendFooter(table.Row{"Total", r.Activity.Total(), ""})
	t.Render()
}

func renderCompleteness(out io.Writer, r analysis.Report, noColor bool) {
	t := NewTable(out, "Profile completeness", noColor)
	t.AppendHeader(table.Row{"Score", "Followers"})
	for _, b := range r.Completeness {
		t.AppendRow(table.Row{percent(b.Score), b.Count})
	}
	t.AppendFooter(table.Row{"Mean", percent(r.MeanCompleteness)})
	t.Render()
}

func renderEngagement(out io.Writer, r analysis.Report, noColor bool) {
	t := NewTable(out, fmt.Sprintf("Follower gain per article (%d day window)", r.Params.WindowDays), noColor)
	t.AppendHeader(table.Row{"Published", "Article", "Attributed", "In window"})
	attributed := 0
	for _, g := range r.Engagement {
		t.AppendRow(table.Row{g.PublishedAt.Format(dateLayout), truncate(g.Title, 48), g.Attributed, g.InWindow})
		attributed += g.Attributed
	}
	t.AppendFooter(table.Row{"", "Total attributed", attributed, ""})
	t.Render()
}

func renderDaily(out io.Writer, r analysis.Report, opts ReportOptions) {
	points := r.Daily
	if opts.DailyDays > 0 && len(points) > opts.DailyDays {
		points = points[len(points)-opts.DailyDays:]
	}
	if len(points) == 0 {
		return
	}

	t := NewTable(out, "New followers per day", opts.NoColor)
	t.AppendHeader(table.Row{"Date", "New", "Cumulative"})
	for _, p := range points {
		t.AppendRow(table.Row{p.Date.Format(dateLayout), p.New, p.Cumulative})
	}
	t.Render()
}

func renderTags(out io.Writer, r analysis.Report, opts ReportOptions) {
	tags := r.Tags
	if opts.TopTags > 0 && len(tags) > opts.TopTags {
		tags = tags[:opts.TopTags]
	}
	if len(tags) == 0 {
		return
	}

	t := NewTable(out, "Tags", opts.NoColor)
	t.AppendHeader(table.Row{"Tag", "Articles"})
	for _, tc := range tags {
		t.AppendRow(table.Row{tc.Tag, tc.Count})
	}
	t.Render()
}

func renderSuspicious(out io.Writer, r analysis.Report, noColor bool) {
	t := NewTable(out, "Possible bots (advisory)", noColor)
	t.AppendHeader(table.Row{"ID", "Username", "Join/follow gap (days)"})
	for _, s := range r.Suspicious {
		t.AppendRow(table.Row{s.ID, s.Username, s.GapDays})
	}
	t.AppendFooter(table.Row{"", "Flagged", len(r.Suspicious)})
	t.Render()
}

func renderWarnings(out io.Writer, opts ReportOptions) {
	if len(opts.Warnings) == 0 {
		return
	}
	t := NewTable(out, fmt.Sprintf("Warnings (%d)", len(opts.Warnings)), opts.NoColor)
	for _, w := range opts.Warnings {
		t.AppendRow(table.Row{w})
	}
	t.Render()
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n-1])) + "…"
}

// FormatAge formats how long ago t was, for cache status output
func FormatAge(now, t time.Time) string {
	d := now.Sub(t).Round(time.Second)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
