package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/nikhil-bhat/mailsort/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Bridge rules to an external sort script",
}

var relayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the relay HTTP endpoint",
	Long: `Listens for POST /run requests and executes the configured sort
command with the request's sender and label appended as arguments.
The command's stdout becomes the response body.`,
	RunE: runRelayServe,
}

var relayRunCmd = &cobra.Command{
	Use:   "run <rule-id>",
	Short: "Send a stored rule to a running relay",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelayRun,
}

func init() {
	relayCmd.AddCommand(relayServeCmd)
	relayCmd.AddCommand(relayRunCmd)
	rootCmd.AddCommand(relayCmd)
}

func runRelayServe(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	srv := relay.NewServer(app.cfg.Relay.Command, app.cfg.Relay.Args, app.log)
	app.log.Info("relay listening", "addr", app.cfg.Relay.ListenAddr, "command", app.cfg.Relay.Command)
	return http.ListenAndServe(app.cfg.Relay.ListenAddr, srv.Router())
}

func runRelayRun(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	r, err := app.store.GetRule(ctx, args[0])
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("rule %s not found", args[0])
	}
	if !r.SenderMatch || r.LabelName == "" {
		return fmt.Errorf("rule %s has no sender and label name to relay", args[0])
	}

	out, err := relay.NewClient(app.cfg.Relay.URL).Run(ctx, r.Sender, r.LabelName)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
