package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hoa-onboard/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the directory with sample HOAs and properties",
	Long:  "Generates random HOAs with properties, or loads them from a YAML fixture file with --file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		n, _ := cmd.Flags().GetInt("hoas")
		perHOA, _ := cmd.Flags().GetInt("properties-per-hoa")
		clearFirst, _ := cmd.Flags().GetBool("clear")
		file, _ := cmd.Flags().GetString("file")
		seedVal, _ := cmd.Flags().GetUint64("seed")

		if n < 0 || perHOA < 1 {
			return eris.New("seed: --hoas must be >= 0 and --properties-per-hoa >= 1")
		}

		var fixtures []seed.Fixture
		if file != "" {
			f, err := seed.LoadFixtureFile(file)
			if err != nil {
				return err
			}
			fixtures = f
		} else {
			fixtures = seed.NewGenerator(seedVal).Fixtures(n, perHOA)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := seed.Populate(ctx, st, fixtures, clearFirst)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Created %d HOAs with %d properties.\n", sum.HOAs, sum.Properties)
		return nil
	},
}

var sampleResponseCmd = &cobra.Command{
	Use:   "sample-response",
	Short: "Store a sample HOA reply for trying classification",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		resp, err := seed.SampleResponse(ctx, st)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Created sample email response %d for HOA %d.\n", resp.ID, resp.HOAID)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("hoas", 15, "number of HOAs to generate")
	seedCmd.Flags().Int("properties-per-hoa", 5, "average properties per HOA")
	seedCmd.Flags().Bool("clear", false, "delete existing HOAs, properties, and responses first")
	seedCmd.Flags().String("file", "", "load HOAs from a YAML fixture file instead of generating them")
	seedCmd.Flags().Uint64("seed", 0, "random seed (0 picks one)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sampleResponseCmd)
}
