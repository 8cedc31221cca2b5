package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/polarsignals/pqexplorer"
)

func newViewCmd(cfg *Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "view",
		Example: "parquet-tool view <file.parquet> --limit 50",
		Short:   "Show the rows of a parquet file as they appear in the viewer",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit > 0 && limit < cfg.RowCap {
				cfg.RowCap = limit
			}
			res, err := process(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecords(res))
			fmt.Fprintln(cmd.OutOrStdout(), footer(res))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows to show")
	return cmd
}

func renderRecords(res *pqexplorer.Result) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == 0:
				return HeaderStyle
			case row%2 == 0:
				return EvenRowStyle
			default:
				return OddRowStyle
			}
		}).
		Headers(res.Columns...)

	for _, rec := range res.Records {
		row := make([]string, len(res.Columns))
		for i, c := range res.Columns {
			row[i], _ = rec.Get(c)
		}
		t.Row(row...)
	}
	return t
}

func footer(res *pqexplorer.Result) string {
	return fmt.Sprintf("%s of %s rows, %d row groups, compression %s",
		humanize.Comma(int64(len(res.Records))),
		humanize.Comma(res.NumRows),
		res.RowGroups,
		res.Compression,
	)
}
