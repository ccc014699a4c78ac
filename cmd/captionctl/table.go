package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderTable lays out rows under headers using the light box style.
// Column indexes listed in numeric are right-aligned; everything else,
// headers included, stays left-aligned. Short rows are padded with
// empty cells.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	rightAligned := make(map[int]bool, len(numeric))
	for _, idx := range numeric {
		rightAligned[idx] = true
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(headers))
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i, h := range headers {
		header = append(header, h)
		cfg := table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if rightAligned[i] {
			cfg.Align = text.AlignRight
		}
		configs = append(configs, cfg)
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, len(headers))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}

	return tw.Render()
}
