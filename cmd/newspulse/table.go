package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/seenimoa/newspulse/internal/newsfeed"
	"github.com/seenimoa/newspulse/pkg/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const maxHeadlineWidth = 60

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderResult lays out one row per article.
func renderResult(res *models.RunResult) string {
	headers := []string{"Ticker", "Price", "Event", "Polarity", "Anomaly", "Trusted", "Mentions", "Headline"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft}

	rows := make([][]string, 0, len(res.Articles))
	for _, a := range res.Articles {
		rows = append(rows, []string{
			a.Ticker,
			formatPrice(a.TickerPrice),
			a.EventType,
			fmt.Sprintf("%+.4f", a.PolarityScore),
			yesNo(a.IsAnomaly),
			yesNo(a.IsTrustedSource),
			formatMentions(a.MentionedStocks),
			text.Trim(a.Headline, maxHeadlineWidth),
		})
	}
	return renderTable(headers, rows, aligns)
}

// renderGroups lays out one row per ticker group.
func renderGroups(groups newsfeed.Groups) string {
	rows := make([][]string, 0, len(groups))
	for _, name := range groups.Names() {
		rows = append(rows, []string{name, fmt.Sprint(len(groups[name])), strings.Join(groups[name], ", ")})
	}
	return renderTable([]string{"Group", "Count", "Tickers"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
}

func summaryLine(res *models.RunResult) string {
	s := res.Stats
	return fmt.Sprintf("%s: %d articles, %d anomalies (mean %.4f, std %.4f, bounds [%.4f, %.4f]) run %s",
		res.Group, s.Count, s.Anomalies, s.Mean, s.StdDev, s.Lower, s.Upper, res.RunID)
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func formatMentions(ms []models.Mention) string {
	if len(ms) == 0 {
		return "-"
	}
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = fmt.Sprintf("%s@%.2f", m.Ticker, m.Price)
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
