package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/polarsignals/pqexplorer/pqarrow"
)

func newMetaCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:     "meta",
		Example: "parquet-tool meta <file.parquet>...",
		Short:   "Print row group and column chunk metadata without decoding pages",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metas := make([]*pqarrow.FileMetadata, len(args))
			decoder := pqarrow.NewDecoder(pqarrow.WithLogger(cfg.logger()))

			g, ctx := errgroup.WithContext(cmd.Context())
			for i, file := range args {
				g.Go(func() error {
					src, name, err := openSource(cfg, file)
					if err != nil {
						return err
					}
					defer src.Close()

					r, size, err := src.ReaderAt(ctx, name)
					if err != nil {
						return err
					}
					meta, err := decoder.ReadMetadata(r, size)
					if err != nil {
						return errors.Wrap(err, file)
					}
					metas[i] = meta
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, meta := range metas {
				printMetadata(cmd.OutOrStdout(), args[i], meta)
			}
			return nil
		},
	}
}

func printMetadata(w io.Writer, file string, meta *pqarrow.FileMetadata) {
	fmt.Fprintln(w, "File:", file)
	fmt.Fprintln(w, "Created by:", meta.CreatedBy)
	fmt.Fprintln(w, "Num Rows:", humanize.Comma(meta.NumRows))
	fmt.Fprintln(w, "Compression:", meta.Compression())

	for i, rg := range meta.RowGroups {
		fmt.Fprintln(w, "\t Row group:", i)
		fmt.Fprintln(w, "\t\t Row Count:", rg.NumRows)
		fmt.Fprintln(w, "\t\t Row size:", humanize.Bytes(uint64(rg.TotalByteSize)))
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Col", "Type", "Codec", "NumVal", "Encoding", "TotalCompressedSize", "TotalUncompressedSize", "Supported"})
		for _, cc := range rg.Columns {
			table.Append([]string{
				cc.Path,
				cc.PhysicalType,
				cc.Codec,
				fmt.Sprintf("%d", cc.NumValues),
				strings.Join(cc.Encodings, " "),
				humanize.Bytes(uint64(cc.CompressedSize)),
				humanize.Bytes(uint64(cc.UncompressedSize)),
				fmt.Sprintf("%t", isSupported(cc.Codec)),
			})
		}
		table.Render()
	}
}

func isSupported(codec string) bool {
	for _, c := range pqarrow.SupportedCodecs() {
		if c == codec {
			return true
		}
	}
	return false
}
