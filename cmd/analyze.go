package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <metrics.json>",
	Short: "Run the full hybrid analysis over a metrics batch",
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

		result, err := rt.engine.Analyze(cmd.Context(), records)
		if err != nil {
			return err
		}

		if analyzeFormat == "json" {
			return printJSON(result)
		}

		if len(result.Degraded) > 0 {
			fmt.Printf("Degraded signals: %v\n\n", result.Degraded)
		}
		fmt.Println("Deterministic relations:")
		if len(result.Deterministic) == 0 {
			fmt.Println("  (none)")
		}
		for relation, tuples := range result.Deterministic {
			fmt.Printf("  %s: %d tuples\n", relation, len(tuples))
		}
		fmt.Println("\nProbabilistic signals:")
		for _, m := range records {
			signals := result.Probabilistic[m.EntityID]
			fmt.Printf("  %s: carbon risk %.2f\n", m.EntityID, signals.CarbonProbability)
			for action, p := range signals.RefactorSuccess {
				fmt.Printf("    %s: success %.2f\n", action, p)
			}
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format (text, json)")
	rootCmd.AddCommand(analyzeCmd)
}
