package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recommendFormat string

var recommendCmd = &cobra.Command{
	Use:   "recommend <metrics.json>",
	Short: "Generate confidence-ranked improvement recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadMetricsFile(args[0])
		if err != nil {
			return err
		}

		rt, err := buildRuntime(appConfig)
		if err != nil {
			return err
		}
		defer rt.Close()

		recommendations, err := rt.engine.GetRecommendations(cmd.Context(), records)
		if err != nil {
			return err
		}

		if recommendFormat == "json" {
			return printJSON(recommendations)
		}

		if len(recommendations) == 0 {
			fmt.Println("No recommendations.")
			return nil
		}
		for _, r := range recommendations {
			fmt.Printf("%s: %s (confidence %.2f, priority %s)\n", r.EntityID, r.Action, r.Confidence, r.Priority)
			fmt.Printf("  %s\n", r.Reason)
			for score, delta := range r.ExpectedImprovement {
				fmt.Printf("  expected %s +%.0f\n", score, delta)
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recommendFormat, "format", "f", "text", "output format (text, json)")
	rootCmd.AddCommand(recommendCmd)
}
