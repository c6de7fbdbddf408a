package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sustainabot/ecopolicy/internal/praxis"
)

var observeCmd = &cobra.Command{
	Use:   "observe <observation.json>",
	Short: "Record a praxis observation from an applied recommendation",
	Long: `Observe appends one measured outcome to the praxis log. The file holds a
single JSON observation with the action taken, full before and after metric
snapshots, and a positive/negative/neutral outcome classification.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read observation file: %w", err)
		}
		var obs praxis.Observation
		if err := json.Unmarshal(data, &obs); err != nil {
			return fmt.Errorf("parse observation file: %w", err)
		}
		if obs.RecordedAt.IsZero() {
			obs.RecordedAt = time.Now().UTC()
		}

		rt, err := buildRuntime(appConfig)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.engine.RecordObservation(cmd.Context(), obs); err != nil {
			return err
		}

		fmt.Printf("Recorded %s outcome for %s.\n", obs.Outcome, obs.EntityID)
		if rt.engine.ShouldUpdate() {
			fmt.Println("Accumulated evidence justifies a model update; run 'ecopolicy train'.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(observeCmd)
}
