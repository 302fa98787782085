package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send onboarding requests and drafted follow-ups",
	Long:  "Sends through Postmark when a server token is configured, otherwise logs a simulated send.",
}

// -- send onboarding --

var sendOnboardingCmd = &cobra.Command{
	Use:   "onboarding <hoa-id>",
	Short: "Send the onboarding information request to an HOA",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "hoa")
		if err != nil {
			return err
		}
		demo, _ := cmd.Flags().GetString("demo-email")
		if err := cfg.Validate("send"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := newMailService(st).SendOnboarding(ctx, id, demo)
		if err != nil {
			return err
		}

		verb := "Sent"
		if res.Simulated {
			verb = "Simulated"
		}
		fmt.Fprintf(os.Stderr, "%s %q to %s.\n", verb, res.Subject, res.DemoEmail)
		return printJSON(os.Stdout, res)
	},
}

// -- send generated --

var sendGeneratedCmd = &cobra.Command{
	Use:   "generated <response-id>",
	Short: "Send the drafted follow-up for a response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "response")
		if err != nil {
			return err
		}
		if err := cfg.Validate("send"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := newMailService(st).SendGenerated(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Generated response sent to %s.\n", res.To)
		return printJSON(os.Stdout, res)
	},
}

func init() {
	sendOnboardingCmd.Flags().String("demo-email", "", "redirect the email to this address")

	sendCmd.AddCommand(sendOnboardingCmd)
	sendCmd.AddCommand(sendGeneratedCmd)
	rootCmd.AddCommand(sendCmd)
}
