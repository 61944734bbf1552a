package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/output"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/rpgo/lifedash/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deps(remote *memory.Documents, local *memory.Cache) planning.Deps {
	return planning.Deps{
		Remote:   remote,
		Local:    local,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	}
}

func TestReportsFromParametersFile(t *testing.T) {
	params, err := config.NewInputParser().LoadParameters("../testdata/example_params.yaml")
	require.NoError(t, err)

	proj := calculation.Run(*params)
	require.NotEmpty(t, proj.Working())
	assert.Equal(t, int64(50000), proj.Working()[0].Balance)
	assert.Len(t, proj.Retirement(), 30)

	dir := t.TempDir()
	for _, name := range output.AvailableFormatterNames() {
		files, err := output.GenerateReport(proj, name, dir)
		require.NoError(t, err, name)
		require.Len(t, files, 1, name)
		info, err := os.Stat(files[0])
		require.NoError(t, err)
		assert.Positive(t, info.Size(), name)
	}
}

func TestBudgetFileThroughStoredRecord(t *testing.T) {
	rec, err := config.NewInputParser().LoadBudget("../testdata/example_budget.yaml")
	require.NoError(t, err)

	remote := memory.NewDocuments()
	ws := planning.NewSessions(deps(remote, memory.NewCache()), time.Hour).For("u1")
	ctx := context.Background()

	_, err = ws.Budget.Load(ctx, store.Always(false))
	require.NoError(t, err)
	_, err = ws.Budget.Save(ctx, rec)
	require.NoError(t, err)

	sum, err := ws.Budget.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7145).Equal(sum.Leftover), sum.Leftover.String())

	cmp, err := ws.Budget.Compare(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1900).Equal(cmp.Goal.Expenses), cmp.Goal.Expenses.String())

	stored, ok := remote.Peek(store.Path{User: "u1", Collection: planning.BudgetCollection, ID: planning.BudgetRecord})
	require.True(t, ok)
	assert.NotContains(t, stored, "prime")
	assert.Contains(t, stored, "subscriptions")
}

func TestOfflinePlanningReplaysOnReconnect(t *testing.T) {
	remote := memory.NewDocuments()
	local := memory.NewCache()
	ws := planning.NewSessions(deps(remote, local), time.Hour).For("u1")
	ctx := context.Background()

	form, err := config.NewInputParser().LoadPlanningForm("../testdata/example_form.yaml")
	require.NoError(t, err)

	remote.FailWith("get", errors.New("offline"))
	_, err = ws.Planning.Init(ctx, store.LoadOptions{})
	require.NoError(t, err, "remote failures are not returned")

	res, err := ws.Planning.Recompute(ctx, form)
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	path := store.Path{User: "u1", Collection: planning.PlanningCollection, ID: planning.PlanningRecord}
	_, ok := remote.Peek(path)
	assert.False(t, ok, "save deferred until a load succeeds")

	remote.FailWith("get", nil)
	state, err := ws.Planning.Init(ctx, store.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 65, state.Finance.RetirementAge)

	stored, ok := remote.Peek(path)
	require.True(t, ok, "deferred save replayed")
	assert.Contains(t, stored, "finance")

	hist, err := ws.Planning.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(200000), hist[0].Balance)
}
