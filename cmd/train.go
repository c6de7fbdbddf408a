package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sustainabot/ecopolicy/internal/predictor"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Update the predictive model from accumulated praxis observations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(appConfig)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !rt.engine.ShouldUpdate() {
			fmt.Println("Not enough positive observations to justify an update.")
			return nil
		}
		if err := rt.engine.UpdateFromPractice(cmd.Context()); err != nil {
			return err
		}
		if err := predictor.SaveModel(appConfig.Model.Path, rt.predictor.Snapshot()); err != nil {
			return fmt.Errorf("persist updated model: %w", err)
		}
		fmt.Println("Model updated from practice.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
