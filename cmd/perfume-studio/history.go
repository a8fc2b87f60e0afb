package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"perfume-studio/internal/services/archive"
)

const historyPreviewLength = 60

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, zapLog, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer zapLog.Sync()
			defer a.Close()

			if a.Archive == nil {
				return fmt.Errorf("archive is disabled; set archive.enabled")
			}
			records, err := a.Archive.History(cmd.Context(), strings.TrimSpace(query))
			if err != nil {
				return err
			}
			renderHistory(records, query)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "full-text query (needs archive.index_enabled)")
	return cmd
}

func renderHistory(records []archive.Record, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: historyPreviewLength},
	})
	t.AppendHeader(table.Row{"#", "Created", "Perfume", "Model", "Copy"})

	for i, r := range records {
		preview := r.FinalCopy
		if preview == "" {
			preview = r.FinalText
		}
		t.AppendRow(table.Row{
			i + 1,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Brand + " " + r.Model,
			r.LLMModel,
			preview,
		})
	}

	footer := "recent"
	if query != "" {
		footer = "query: " + query
	}
	t.AppendFooter(table.Row{"Total", len(records), footer})
	t.Render()
}
