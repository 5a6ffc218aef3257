package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tboyle/recipe-press/internal/pipeline"
)

// printSummary renders the per-item outcome table after a run.
func printSummary(items []pipeline.Result, skipped int) {
	if len(items) == 0 {
		fmt.Printf("Nothing to do (%d already processed)\n", skipped)
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Image", "Title", "Status", "Detail"})

	succeeded := 0
	for _, item := range items {
		status := "ok"
		detail := ""
		if item.OK() {
			succeeded++
			if item.Product != nil {
				detail = item.Product.ID
				if failed := item.Product.Failed(); len(failed) > 0 {
					detail += fmt.Sprintf(" (%d artifacts failed)", len(failed))
				}
			}
		} else {
			status = "FAILED"
			detail = fmt.Sprintf("%s: %v", item.FailedStage, item.Err)
		}
		tw.AppendRow(table.Row{item.Job.Name, item.Title, status, detail})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 32},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 56},
	})

	fmt.Println(tw.Render())
	fmt.Printf("Processed %d: %d succeeded, %d failed, %d skipped\n",
		len(items), succeeded, len(items)-succeeded, skipped)
}
