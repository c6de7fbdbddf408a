package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkFormat string

var checkCmd = &cobra.Command{
	Use:   "check <metrics.json>",
	Short: "Check policy compliance and report violations",
	Long: `Check evaluates each entity against the compliance ladder and prints
the violations. The exit status is non-zero when any blocking violation is
found, so check can gate a CI pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadMetricsFile(args[0])
		if err != nil {
			return err
		}

		rt, err := buildRuntime(appConfig)
		if err != nil {
			return err
		}

		violations, err := rt.engine.CheckCompliance(cmd.Context(), records)
		if err != nil {
			rt.Close()
			return err
		}
		rt.Close()

		blocking := false
		for _, v := range violations {
			if v.IsBlocking() {
				blocking = true
			}
		}

		if checkFormat == "json" {
			if err := printJSON(violations); err != nil {
				return err
			}
		} else {
			if len(violations) == 0 {
				fmt.Printf("All %d entities compliant.\n", len(records))
			}
			for _, v := range violations {
				fmt.Printf("%s: %s (%s)\n", v.EntityID, v.Policy, v.Severity)
				fmt.Printf("  %s\n", v.Message)
				for _, s := range v.Suggestions {
					fmt.Printf("  * %s\n", s)
				}
			}
		}

		if blocking {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "output format (text, json)")
	rootCmd.AddCommand(checkCmd)
}
