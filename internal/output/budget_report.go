package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/lifedash/internal/domain"
)

// FormatBudget renders a monthly budget summary as console text.
func FormatBudget(s domain.BudgetSummary) []byte {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "MONTHLY BUDGET")
	fmt.Fprintln(&buf, "==============")
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Monthly income\t%s\n", FormatCurrency(s.MonthlyIncome))
	fmt.Fprintf(tw, "Federal tax\t%s\n", FormatCurrency(s.FederalTax))
	fmt.Fprintf(tw, "Additional income\t%s\n", FormatCurrency(s.Income))
	fmt.Fprintf(tw, "Net pay\t%s\n", FormatCurrency(s.NetPay))
	fmt.Fprintf(tw, "Expenses\t%s\n", FormatCurrency(s.Expenses))
	fmt.Fprintf(tw, "Leftover\t%s\n", FormatCurrency(s.Leftover))
	tw.Flush()
	return buf.Bytes()
}

// FormatComparison renders the current and goal budget columns side by side.
func FormatComparison(c domain.BudgetComparison) []byte {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tCurrent\tGoal\t")
	fmt.Fprintf(tw, "Income\t%s\t%s\t\n", FormatCurrency(c.Current.Income), FormatCurrency(c.Goal.Income))
	fmt.Fprintf(tw, "Expenses\t%s\t%s\t\n", FormatCurrency(c.Current.Expenses), FormatCurrency(c.Goal.Expenses))
	fmt.Fprintf(tw, "Leftover\t%s\t%s\t\n", FormatCurrency(c.Current.Leftover), FormatCurrency(c.Goal.Leftover))
	tw.Flush()
	return buf.Bytes()
}
