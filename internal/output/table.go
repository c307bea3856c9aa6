package output

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/nikhil-bhat/mailsort/internal/rules"
	"github.com/nikhil-bhat/mailsort/internal/sorter"
)

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []rules.Rule:
		return rulesTable(w, v)
	case []sorter.Outcome:
		return outcomesTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func rulesTable(w io.Writer, rs []rules.Rule) error {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No rules configured.")
		return nil
	}

	table := tablewriter.NewTable(w)
	table.Header([]string{"ID", "Criteria", "Label", "Created"})
	for _, r := range rs {
		if err := table.Append([]string{
			truncate(r.ID, 8),
			truncate(r.Describe(), 40),
			labelDisplay(r),
			r.CreatedAt.Format("Jan 02, 2006"),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func outcomesTable(w io.Writer, outcomes []sorter.Outcome) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "Nothing to do.")
		return nil
	}

	table := tablewriter.NewTable(w)
	table.Header([]string{"Message", "Rule", "Label", "Status", "Detail"})
	for _, o := range outcomes {
		if err := table.Append([]string{
			truncate(o.MessageID, 16),
			truncate(o.RuleID, 8),
			o.LabelID,
			string(o.Status),
			truncate(o.Detail, 40),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func labelDisplay(r rules.Rule) string {
	if r.LabelName != "" {
		return r.LabelName
	}
	return r.LabelID
}

// truncate shortens a string with ellipsis
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
