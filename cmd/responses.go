package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var responsesCmd = &cobra.Command{
	Use:   "responses",
	Short: "Inspect inbound HOA replies",
	Long:  "Commands for listing and viewing email responses received through the inbound webhook.",
}

// -- responses list --

var responsesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List email responses, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		status, _ := cmd.Flags().GetString("status")
		hoaID, _ := cmd.Flags().GetInt64("hoa")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.ResponseFilter{
			HOAID:  hoaID,
			Status: model.ResponseStatus(status),
			Limit:  limit,
		}
		if status != "" && !filter.Status.Valid() {
			return eris.Errorf("responses list: unknown status %q (new, reviewed, processed)", status)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		list, err := st.ListEmailResponses(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "responses list")
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No responses found.")
			return nil
		}

		formatResponseList(os.Stdout, list)
		return nil
	},
}

// -- responses show --

var responsesShowCmd = &cobra.Command{
	Use:   "show <response-id>",
	Short: "Show full details of a response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "response")
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		resp, err := st.GetEmailResponse(ctx, id)
		if err != nil {
			return eris.Wrap(err, "responses show")
		}

		return printJSON(os.Stdout, resp)
	},
}

func init() {
	responsesListCmd.Flags().String("status", "", "filter by status (new, reviewed, processed)")
	responsesListCmd.Flags().Int64("hoa", 0, "filter by HOA id")
	responsesListCmd.Flags().Int("limit", 50, "max number of responses to display")

	responsesCmd.AddCommand(responsesListCmd)
	responsesCmd.AddCommand(responsesShowCmd)
	rootCmd.AddCommand(responsesCmd)
}

// formatResponseList writes a tabular list of responses to out.
func formatResponseList(out io.Writer, list []model.EmailResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tHOA\tFROM\tSTATUS\tCATEGORY\tSCORE\tSENT\tRECEIVED")
	_, _ = fmt.Fprintln(w, "--\t---\t----\t------\t--------\t-----\t----\t--------")

	for _, r := range list {
		category := "-"
		if r.AIAnalysis != nil {
			category = string(r.AIAnalysis.Category)
		}
		sent := "no"
		if r.GeneratedResponseSent {
			sent = "yes"
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
			r.ID,
			r.HOAID,
			truncate(r.FromEmail, 35),
			r.Status,
			category,
			r.CompletenessScore,
			sent,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
