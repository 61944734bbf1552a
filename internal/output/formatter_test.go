package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func buildTestProjection() *domain.Projection {
	return &domain.Projection{
		Parameters: domain.ProjectionParameters{CurrentAge: 64, RetirementAge: 65, PostYears: 2},
		Rows: []domain.ProjectionRow{
			{Age: 64, Balance: 100000, Income: 50000, RealIncome: 50000},
			{Age: 65, Balance: 160000, Income: 51000, RealIncome: 49515},
			{Age: 66, Balance: 120000, Income: 40000, RealIncome: 36606, Withdrawal: i64(30000), Pension: i64(4000), SocialSecurity: i64(6000)},
			{Age: 67, Balance: -500, Income: 41000, RealIncome: 36432, Withdrawal: i64(30900), Pension: i64(4000), SocialSecurity: i64(6100)},
		},
		SocialSecurityEstimate: 28571,
	}
}

func TestFormatDollars(t *testing.T) {
	assert.Equal(t, "$1,234,567", FormatDollars(1234567))
	assert.Equal(t, "-$500", FormatDollars(-500))
	assert.Equal(t, "$0", FormatDollars(0))
	assert.Equal(t, "$1234.57", FormatCurrency(decimal.NewFromFloat(1234.567)))
	assert.Equal(t, "12.35%", FormatPercentage(decimal.NewFromFloat(12.3456)))
}

func TestSummarize(t *testing.T) {
	s := Summarize(buildTestProjection())
	assert.Equal(t, int64(160000), s.RetirementBalance)
	assert.Equal(t, int64(40000), s.FirstYearIncome)
	assert.Equal(t, int64(36606), s.FirstYearRealIncome)
	assert.Equal(t, int64(-500), s.FinalBalance)
	assert.Equal(t, 67, s.DepletedAt)
}

func TestConsoleFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestProjection())
	require.NoError(t, err)
	content := string(out)
	assert.True(t, strings.HasPrefix(content, "RETIREMENT PROJECTION\n"))
	assert.Contains(t, content, "WORKING YEARS")
	assert.Contains(t, content, "RETIREMENT YEARS")
	assert.Contains(t, content, "$160,000")
	assert.Contains(t, content, "Estimated Social Security: $28,571/yr")
	assert.Contains(t, content, "Final balance: -$500")
}

func TestConsoleFormatterWithoutRetirementRows(t *testing.T) {
	p := buildTestProjection()
	p.Rows = p.Rows[:2]
	out, err := ConsoleFormatter{}.Format(p)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "RETIREMENT YEARS")
}

func TestConsoleLiteFormatter(t *testing.T) {
	out, err := ConsoleLiteFormatter{}.Format(buildTestProjection())
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "Balance at retirement: $160,000")
	assert.Contains(t, content, "Savings depleted at age 67")
}

func TestCSVFormatter(t *testing.T) {
	out, err := CSVFormatter{}.Format(buildTestProjection())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Phase,Age,Balance,Income,RealIncome,Withdrawal,Pension,SocialSecurity", lines[0])
	assert.Equal(t, "working,64,100000,50000,50000,,,", lines[1])
	assert.Equal(t, "retirement,66,120000,40000,36606,30000,4000,6000", lines[3])
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestProjection())
	require.NoError(t, err)
	var decoded struct {
		Rows    []domain.ProjectionRow `json:"rows"`
		Summary Summary                `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Len(t, decoded.Rows, 4)
	assert.Equal(t, 67, decoded.Summary.DepletedAt)
}

func TestHTMLFormatter(t *testing.T) {
	out, err := HTMLFormatter{}.Format(buildTestProjection())
	require.NoError(t, err)
	content := string(out)
	assert.True(t, strings.HasPrefix(content, "<!DOCTYPE html>"))
	assert.Contains(t, content, "<h2>Retirement Years</h2>")
	assert.Contains(t, content, "$30,900")
}

func TestGetFormatterByName(t *testing.T) {
	tests := map[string]string{
		"console":     "console",
		" TABLE ":     "console",
		"summary":     "console-lite",
		"json-pretty": "json",
		"csv":         "csv",
		"html-report": "html",
	}
	for in, want := range tests {
		f := GetFormatterByName(in)
		require.NotNil(t, f, in)
		assert.Equal(t, want, f.Name(), in)
	}
	assert.Nil(t, GetFormatterByName("pdf"))

	_, err := Lookup("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "console-lite")
}

func TestAvailableFormatterNames(t *testing.T) {
	assert.Equal(t, []string{"console", "console-lite", "csv", "html", "json"}, AvailableFormatterNames())
	assert.Contains(t, AvailableFormatAliases(), "table")
}

func TestGenerateReport(t *testing.T) {
	calculation.SetNowFunc(func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) })
	t.Cleanup(func() { calculation.SetNowFunc(time.Now) })
	dir := t.TempDir()

	files, err := GenerateReport(buildTestProjection(), "csv", dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "projection_20240501_093000.csv")}, files)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Phase,"))

	files, err = GenerateReport(buildTestProjection(), "all", dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = GenerateReport(buildTestProjection(), "pdf", dir)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	err := SaveParameters(domain.ProjectionParameters{CurrentAge: 40, RetirementAge: 65}, path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "current_age: 40")
}

func TestFormatBudget(t *testing.T) {
	out := string(FormatBudget(domain.BudgetSummary{
		MonthlyIncome: decimal.NewFromInt(10000),
		FederalTax:    decimal.NewFromInt(1000),
		NetPay:        decimal.NewFromInt(9000),
		Expenses:      decimal.NewFromInt(2000),
		Leftover:      decimal.NewFromInt(7000),
	}))
	assert.Contains(t, out, "MONTHLY BUDGET")
	assert.Contains(t, out, "$7000.00")

	cmp := string(FormatComparison(domain.BudgetComparison{
		Current: domain.BudgetTotals{Income: decimal.NewFromInt(100), Expenses: decimal.NewFromInt(50), Leftover: decimal.NewFromInt(50)},
	}))
	assert.Contains(t, cmp, "Current")
	assert.Contains(t, cmp, "$50.00")
}
