package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var hoasCmd = &cobra.Command{
	Use:   "hoas",
	Short: "Inspect the HOA directory",
}

var hoasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List HOAs by name",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		hoas, err := st.ListHOAs(ctx, store.PageFilter{Limit: limit, Offset: offset})
		if err != nil {
			return eris.Wrap(err, "hoas list")
		}
		if len(hoas) == 0 {
			fmt.Fprintln(os.Stderr, "No HOAs found. Run seed first.")
			return nil
		}

		formatHOAList(os.Stdout, hoas)
		return nil
	},
}

func init() {
	hoasListCmd.Flags().Int("limit", 50, "max number of HOAs to display (0 for all)")
	hoasListCmd.Flags().Int("offset", 0, "number of HOAs to skip")

	hoasCmd.AddCommand(hoasListCmd)
	rootCmd.AddCommand(hoasCmd)
}

// formatHOAList writes a tabular list of HOAs to out.
func formatHOAList(out io.Writer, hoas []model.HOA) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCONTACT\tMANAGEMENT\tUNITS\tDEMO_EMAIL")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t----------\t-----\t----------")

	for _, h := range hoas {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			h.ID,
			truncate(h.Name, 40),
			h.ContactEmail,
			truncate(h.ManagementLabel(), 30),
			h.TotalUnits,
			h.DemoEmailUsed,
		)
	}
	_ = w.Flush()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
