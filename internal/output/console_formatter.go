package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/lifedash/internal/domain"
)

// ConsoleFormatter renders both projection phases as aligned tables.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string      { return "console" }
func (c ConsoleFormatter) Extension() string { return "txt" }

func (c ConsoleFormatter) Format(p *domain.Projection) ([]byte, error) {
	var buf bytes.Buffer
	params := p.Parameters
	fmt.Fprintln(&buf, "RETIREMENT PROJECTION")
	fmt.Fprintln(&buf, "=====================")
	fmt.Fprintf(&buf, "Current age: %d  Retirement age: %d  Years in retirement: %d\n",
		params.CurrentAge, params.RetirementAge, params.PostYears)
	fmt.Fprintf(&buf, "Estimated Social Security: %s/yr\n", FormatDollars(p.SocialSecurityEstimate))

	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "WORKING YEARS")
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Age\tBalance\tIncome\tReal Income\t")
	for _, r := range p.Working() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", r.Age, FormatDollars(r.Balance), FormatDollars(r.Income), FormatDollars(r.RealIncome))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}

	retirement := p.Retirement()
	if len(retirement) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "RETIREMENT YEARS")
		tw = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Age\tBalance\tWithdrawal\tPension\tSocial Security\tIncome\tReal Income\t")
		for _, r := range retirement {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n", r.Age, FormatDollars(r.Balance),
				optionalDollars(r.Withdrawal), optionalDollars(r.Pension), optionalDollars(r.SocialSecurity),
				FormatDollars(r.Income), FormatDollars(r.RealIncome))
		}
		if err := tw.Flush(); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "Final balance: %s\n", FormatDollars(p.FinalBalance()))
	return buf.Bytes(), nil
}

// ConsoleLiteFormatter provides a few summary lines instead of the tables.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string      { return "console-lite" }
func (c ConsoleLiteFormatter) Extension() string { return "txt" }

func (c ConsoleLiteFormatter) Format(p *domain.Projection) ([]byte, error) {
	s := Summarize(p)
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "RETIREMENT PROJECTION SUMMARY")
	fmt.Fprintln(&buf, "=============================")
	fmt.Fprintf(&buf, "Balance at retirement: %s\n", FormatDollars(s.RetirementBalance))
	fmt.Fprintf(&buf, "First retirement year income: %s (real %s)\n", FormatDollars(s.FirstYearIncome), FormatDollars(s.FirstYearRealIncome))
	fmt.Fprintf(&buf, "Final balance: %s\n", FormatDollars(s.FinalBalance))
	if s.DepletedAt > 0 {
		fmt.Fprintf(&buf, "Savings depleted at age %d\n", s.DepletedAt)
	}
	return buf.Bytes(), nil
}

// Summary condenses a projection to its headline numbers.
type Summary struct {
	RetirementBalance   int64 `json:"retirementBalance"`
	FirstYearIncome     int64 `json:"firstYearIncome"`
	FirstYearRealIncome int64 `json:"firstYearRealIncome"`
	FinalBalance        int64 `json:"finalBalance"`
	// DepletedAt is the first retirement age with a non-positive balance, 0 if never.
	DepletedAt int `json:"depletedAt,omitempty"`
}

// Summarize extracts the headline numbers of p.
func Summarize(p *domain.Projection) Summary {
	s := Summary{FinalBalance: p.FinalBalance()}
	if working := p.Working(); len(working) > 0 {
		s.RetirementBalance = working[len(working)-1].Balance
	}
	for i, r := range p.Retirement() {
		if i == 0 {
			s.FirstYearIncome = r.Income
			s.FirstYearRealIncome = r.RealIncome
		}
		if r.Balance <= 0 && s.DepletedAt == 0 {
			s.DepletedAt = r.Age
		}
	}
	return s
}
