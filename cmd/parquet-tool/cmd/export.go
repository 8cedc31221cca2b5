package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/polarsignals/pqexplorer/export"
)

func newExportCmd(cfg *Config) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:     "export",
		Example: "parquet-tool export <file.parquet> --format csv -o out.csv",
		Short:   "Write the rows of a parquet file as CSV or JSON",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			res, err := process(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			if f == export.FormatCSV {
				return export.CSV(w, res.Records, res.Columns)
			}
			return export.JSON(w, res.Records)
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write to, stdout if empty")
	return cmd
}
