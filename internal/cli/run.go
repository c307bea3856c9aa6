package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhil-bhat/mailsort/internal/auth"
	"github.com/nikhil-bhat/mailsort/internal/output"
	"github.com/nikhil-bhat/mailsort/internal/sorter"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sort the inbox once",
	Long: `Lists inbox messages, matches each against the configured rules, and
applies the labels of every matching rule. Failures on one message or
one rule never stop the rest of the batch.`,
	RunE: runRun,
}

var runConcurrency int

func init() {
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0,
		"messages to process in parallel (0 uses the configured value)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	svc := sorter.NewService(app.gateway, app.store, app.log)
	svc.Concurrency = app.cfg.Run.Concurrency
	if runConcurrency > 0 {
		svc.Concurrency = runConcurrency
	}

	outcomes, err := svc.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, auth.ErrDenied) {
			return fmt.Errorf("authorization was denied: %w", err)
		}
		return err
	}

	sum := sorter.Summarize(outcomes)
	if sum.NoRules {
		fmt.Println("No active rules. Add one with 'mailsort rules add'.")
		return nil
	}
	if len(outcomes) == 0 {
		fmt.Println("Inbox is empty, nothing to sort.")
		return nil
	}

	if err := output.Output(outputFmt, outcomes); err != nil {
		return err
	}
	fmt.Printf("\n%d labels applied, %d failures\n", sum.Applied, sum.Failed)
	return nil
}
