package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with no .env file and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// useSQLite points the local cache at a database shared by every run of
// the test.
func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"STORE_LOCAL", "sqlite")
	t.Setenv(config.EnvPrefix+"SQLITE_PATH", filepath.Join(t.TempDir(), "lifedash.db"))
}

func fixClock(t *testing.T) {
	t.Helper()
	calculation.SetNowFunc(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) })
	t.Cleanup(func() { calculation.SetNowFunc(time.Now) })
	t.Setenv(config.EnvPrefix+"TIMEZONE", "UTC")
}

const planningForm = `cur_age: "40"
ret_age: "65"
income: "100000"
annual_savings: "10000"
real_estate: "100000"
car_value: "10000"
asset_savings: "5000"
checking: "5000"
investment: "80000"
rolling_credit: "0"
investment_return_rate: "7"
savings_return_rate: "2"
`

func TestProjectExampleCSV(t *testing.T) {
	out, err := run(t, "", "project", "--example", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Phase,Age,Balance"), out)
	assert.Equal(t, 1+31+30, strings.Count(out, "\n"), "header, ages 35 through 65, then 30 retirement years")
}

func TestProjectFromFileToDirectory(t *testing.T) {
	fixClock(t)
	params := writeFile(t, "params.yaml", "current_age: 60\nretirement_age: 62\nsavings: 1000\npost_years: 1\nwithdrawal_rate: 4\n")
	dir := t.TempDir()

	out, err := run(t, "", "project", params, "--format", "all", "--output-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Report written to"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"projection_20240501_090000.txt", "projection_20240501_090000.csv"}, names)
}

func TestProjectErrors(t *testing.T) {
	_, err := run(t, "", "project")
	assert.ErrorContains(t, err, "--example is required")

	_, err = run(t, "", "project", "--example", "--format", "pdf")
	assert.ErrorIs(t, err, output.ErrUnsupportedFormat)

	_, err = run(t, "", "project", writeFile(t, "bad.yaml", "current_age: 70\nretirement_age: 65\n"))
	assert.ErrorContains(t, err, "retirement age cannot be before current age")
}

func TestSaveExampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")
	out, err := run(t, "", "project", "--save-example", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "", "project", path, "--format", "summary")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSocialSecurityEstimate(t *testing.T) {
	out, err := run(t, "", "ss-estimate", "--income", "100000", "--current-age", "40", "--retirement-age", "65")
	require.NoError(t, err)
	assert.Equal(t, "$28,571\n", out)

	_, err = run(t, "", "ss-estimate", "--income", "lots", "--current-age", "40", "--retirement-age", "65")
	assert.Error(t, err)
	_, err = run(t, "", "ss-estimate", "--income", "1")
	assert.Error(t, err, "ages are required")
}

func TestBudgetSummaryFromFile(t *testing.T) {
	path := writeFile(t, "budget.yaml", "salary: 120000\nrent: 1500\nprime: 15\n")
	out, err := run(t, "", "budget", "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "MONTHLY BUDGET")
	assert.Regexp(t, `Leftover\s+\$7485\.00`, out)
	assert.Contains(t, out, "Goal")
}

func TestStoredRecordsRequireUser(t *testing.T) {
	for _, args := range [][]string{
		{"budget", "summary"},
		{"planning", "history"},
		{"backup", "list"},
		{"token"},
	} {
		_, err := run(t, "", args...)
		assert.ErrorIs(t, err, errUserRequired, args)
	}
}

func TestBudgetImportPersistsLocally(t *testing.T) {
	useSQLite(t)
	path := writeFile(t, "budget.yaml", "salary: 120000\nrent: 1500\n")

	out, err := run(t, "", "--user", "alice", "budget", "import", path)
	require.NoError(t, err)
	assert.Regexp(t, `Leftover\s+\$7500\.00`, out)

	out, err = run(t, "", "--user", "alice", "budget", "summary")
	require.NoError(t, err)
	assert.Regexp(t, `Leftover\s+\$7500\.00`, out)

	out, err = run(t, "", "--user", "bob", "budget", "summary")
	require.NoError(t, err)
	assert.NotRegexp(t, `Leftover\s+\$7500\.00`, out)
}

func TestPlanningRecomputeAndHistory(t *testing.T) {
	fixClock(t)
	useSQLite(t)
	form := writeFile(t, "form.yaml", planningForm)

	out, err := run(t, "", "--user", "alice", "planning", "recompute", form)
	require.NoError(t, err)
	assert.Contains(t, out, "Total assets: $200000.00")
	assert.Contains(t, out, "Estimated social security: $28,571")
	assert.Contains(t, out, "Snapshot recorded at")

	out, err = run(t, "", "--user", "alice", "planning", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "$200,000")

	out, err = run(t, "", "--user", "alice", "planning", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "ret_age: \"65\"")

	out, err = run(t, "", "--user", "bob", "planning", "history")
	require.NoError(t, err)
	assert.Equal(t, "No snapshots recorded\n", out)
}

func TestBackupLifecycle(t *testing.T) {
	useSQLite(t)
	budget := writeFile(t, "budget.yaml", "salary: 120000\nrent: 1500\n")
	_, err := run(t, "", "--user", "alice", "budget", "import", budget)
	require.NoError(t, err)

	out, err := run(t, "", "--user", "alice", "backup", "create", "--record", "budgetConfig")
	require.NoError(t, err)
	key := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(key, "alice:backup-budgetConfig-"), key)

	out, err = run(t, "", "--user", "alice", "backup", "list", "--record", "budgetConfig")
	require.NoError(t, err)
	assert.Equal(t, key+"\n", out)

	out, err = run(t, "", "--user", "alice", "backup", "restore", key, "--record", "budgetConfig")
	require.NoError(t, err)
	assert.Equal(t, "Restored "+key+"\n", out)

	_, err = run(t, "", "--user", "bob", "backup", "restore", key, "--record", "budgetConfig")
	assert.Error(t, err, "another user's backup")

	_, err = run(t, "", "--user", "alice", "backup", "list", "--record", "nope")
	assert.ErrorContains(t, err, `unknown record "nope"`)
}

func TestTokenVerifies(t *testing.T) {
	out, err := run(t, "", "--user", "alice", "token")
	require.NoError(t, err)

	def := config.Default().Auth
	tokens, err := identity.NewTokenVerifier(def.JWTSecret, def.Issuer, def.TokenTTL)
	require.NoError(t, err)
	uid, err := tokens.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := newPromptConfirmer(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, c.Confirm("Upload?"), "%q", tt.input)
		assert.True(t, strings.HasPrefix(out.String(), "Upload? [y/N]: "))
	}
}

func TestPromptConfirmerReadsSequentialAnswers(t *testing.T) {
	c := newPromptConfirmer(strings.NewReader("y\nn\n"), io.Discard)
	assert.True(t, c.Confirm("first"))
	assert.False(t, c.Confirm("second"))
}
