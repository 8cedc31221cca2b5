package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/polarsignals/pqexplorer"
)

func newSchemaCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		Example: "parquet-tool schema <file.parquet>",
		Short:   "Print the schema tree of a parquet file as JSON",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the schema is printed, so skip materializing rows.
			res, err := process(cmd.Context(), cfg, args[0], pqexplorer.WithRowCap(1))
			if err != nil {
				return err
			}
			b, err := json.MarshalIndentWithOption(res.Schema, "", "  ", json.DisableHTMLEscape())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
}
