package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <response-id>",
	Short: "Mark a response as reviewed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "response")
		if err != nil {
			return err
		}
		by, _ := cmd.Flags().GetString("by")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.MarkReviewed(ctx, id, by, time.Now().UTC()); err != nil {
			return eris.Wrap(err, "review")
		}
		fmt.Fprintf(os.Stdout, "Response %d marked as reviewed.\n", id)
		return nil
	},
}

func init() {
	reviewCmd.Flags().String("by", "", "reviewer name to record")
	rootCmd.AddCommand(reviewCmd)
}
