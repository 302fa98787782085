package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/hoa-onboard/internal/model"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <response-id>",
	Short: "Analyze a response with the LLM and draft a follow-up",
	Long:  "Categorizes the reply, extracts the onboarding answers, scores completeness, and stores a drafted follow-up for review.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "response")
		if err != nil {
			return err
		}
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		resp, err := newProcessor(st).Process(ctx, id)
		if err != nil {
			return err
		}

		if resp.AIAnalysis.Category == model.CategoryError {
			fmt.Fprintf(os.Stderr, "Analysis failed: %s\n", resp.AIAnalysis.Reasoning)
		} else {
			fmt.Fprintf(os.Stderr, "Response analyzed as %s with %d%% completeness.\n",
				resp.AIAnalysis.Category, resp.CompletenessScore)
		}
		return printJSON(os.Stdout, resp)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
