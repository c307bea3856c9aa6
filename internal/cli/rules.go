package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhil-bhat/mailsort/internal/output"
	"github.com/nikhil-bhat/mailsort/internal/rules"
)

var (
	ruleSender  string
	ruleSubject string
	ruleLabel   string
	ruleLabelID string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage sorting rules",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a sorting rule",
	Long: `Adds a rule that labels matching messages. A rule matches when the
message sender contains --sender and the subject contains --subject;
omitting a flag disables that check. Pass --label to look the label up
by name (creating it if needed), or --label-id to use a known ID.`,
	Example: `  mailsort rules add --sender billing@acme.com --label Invoices
  mailsort rules add --sender noreply@ --subject "weekly digest" --label Newsletters`,
	RunE: runRulesAdd,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sorting rules",
	RunE:  runRulesList,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <rule-id>",
	Short: "Delete a sorting rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

func init() {
	rulesAddCmd.Flags().StringVar(&ruleSender, "sender", "", "substring the sender must contain")
	rulesAddCmd.Flags().StringVar(&ruleSubject, "subject", "", "substring the subject must contain")
	rulesAddCmd.Flags().StringVar(&ruleLabel, "label", "", "label name to apply (created if missing)")
	rulesAddCmd.Flags().StringVar(&ruleLabelID, "label-id", "", "label ID to apply (skips the lookup)")

	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	if ruleLabel == "" && ruleLabelID == "" {
		return fmt.Errorf("one of --label or --label-id is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	r := rules.Rule{
		Sender:       ruleSender,
		SenderMatch:  ruleSender != "",
		Subject:      ruleSubject,
		SubjectMatch: ruleSubject != "",
		LabelID:      ruleLabelID,
		LabelName:    ruleLabel,
	}

	if r.LabelID == "" {
		id, err := app.gateway.EnsureLabel(ctx, ruleLabel)
		if err != nil {
			return fmt.Errorf("failed to resolve label %q: %w", ruleLabel, err)
		}
		r.LabelID = id
	}

	if err := app.store.AddRule(ctx, &r); err != nil {
		return err
	}

	fmt.Printf("Added rule %s: %s\n", r.ID, r.Describe())
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	rs, err := app.store.ListRules(cmd.Context())
	if err != nil {
		return err
	}
	if len(rs) == 0 && outputFmt == "table" {
		fmt.Println("No rules configured. Add one with 'mailsort rules add'.")
		return nil
	}
	return output.Output(outputFmt, rs)
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.DeleteRule(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted rule %s\n", args[0])
	return nil
}
