package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoa-onboard/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export HOAs and responses to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", out)
		}

		sum, err := export.Write(ctx, st, f, export.Options{Concurrency: concurrency})
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrapf(cerr, "export: close %s", out)
		}
		if err != nil {
			_ = os.Remove(out)
			return err
		}

		fmt.Fprintf(os.Stdout, "Exported %d HOAs and %d responses to %s.\n", sum.HOAs, sum.Responses, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "hoa-export.xlsx", "output file")
	exportCmd.Flags().Int("concurrency", 4, "parallel per-HOA loads")
	rootCmd.AddCommand(exportCmd)
}
