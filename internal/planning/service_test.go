package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/rpgo/lifedash/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type env struct {
	remote  *memory.Documents
	local   *memory.Cache
	session *identity.Session
	clock   *clock
	ws      *Workspace
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		remote:  memory.NewDocuments(),
		local:   memory.NewCache(),
		session: identity.NewSession(),
		clock:   &clock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
	}
	e.session.SignIn("u1")
	e.ws = NewWorkspace(Deps{
		Remote:   e.remote,
		Local:    e.local,
		Identity: e.session,
		Now:      e.clock.Now,
		Location: time.UTC,
	})
	t.Cleanup(e.ws.Close)
	return e
}

func (e *env) planningPath() store.Path {
	return store.Path{User: "u1", Collection: PlanningCollection, ID: PlanningRecord}
}

func fullForm() domain.PlanningForm {
	return domain.PlanningForm{
		CurrentAge:           "40",
		RetirementAge:        "65",
		Income:               "100000",
		AnnualSavings:        "10000",
		AnnualRaise:          "2",
		Inflation:            "3",
		RealEstate:           "100000",
		CarValue:             "10000",
		AssetSavings:         "5000",
		SavingsReturnRate:    "2",
		Checking:             "5000",
		Investment:           "80000",
		InvestmentReturnRate: "7",
		RollingCredit:        "0",
	}
}

func TestRecomputeRecordsSnapshotAndSaves(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.ws.Planning.Recompute(ctx, fullForm())
	require.NoError(t, err)

	assert.Len(t, res.Working, 26)
	assert.Len(t, res.Retirement, 30)
	assert.Equal(t, "200000", res.Assets.Total.String())
	assert.Equal(t, "6.75", res.Assets.BlendedReturnRate.String())
	assert.Equal(t, int64(28571), res.EstimatedSocialSecurity)
	assert.Equal(t, int64(200000), res.Projection.Rows[0].Balance)

	require.NotNil(t, res.Snapshot)
	assert.Equal(t, int64(200000), res.Snapshot.Balance)
	assert.Equal(t, 40, res.Snapshot.Age)
	assert.Equal(t, "2024-05-01T09:00:00.000Z", res.Snapshot.Timestamp)

	saved, ok := e.remote.Peek(e.planningPath())
	require.True(t, ok)
	assert.Len(t, saved["history"], 1)
	assert.EqualValues(t, 40, saved.Map("finance")["curAge"])
	assert.EqualValues(t, 28571, saved.Map("finance")["socialSecurity"])
	assert.EqualValues(t, 4, saved.Map("finance")["withdrawalRate"])
	assert.EqualValues(t, 30, saved.Map("finance")["postYears"])

	snapDoc, ok := e.remote.Peek(store.Path{User: "u1", Collection: AssetHistoryCollection, ID: "2024-05-01"})
	require.True(t, ok)
	assert.EqualValues(t, 200000, snapDoc["balance"])

	state := e.ws.Planning.State()
	assert.Equal(t, 65, state.Finance.RetirementAge)
	assert.Len(t, state.History, 1)
}

func TestRecomputeOneSnapshotPerDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.ws.Planning.Recompute(ctx, fullForm())
	require.NoError(t, err)
	form := fullForm()
	form.Checking = "6000"
	res, err := e.ws.Planning.Recompute(ctx, form)
	require.NoError(t, err)
	assert.Len(t, res.State.History, 1)
	assert.Equal(t, int64(201000), res.State.History[0].Balance)

	e.clock.t = e.clock.t.Add(24 * time.Hour)
	res, err = e.ws.Planning.Recompute(ctx, form)
	require.NoError(t, err)
	assert.Len(t, res.State.History, 2)
}

func TestRecomputeSkipsSnapshotWhenRequiredFieldBlank(t *testing.T) {
	e := newEnv(t)
	form := fullForm()
	form.RollingCredit = " "

	res, err := e.ws.Planning.Recompute(context.Background(), form)
	require.NoError(t, err)
	assert.Nil(t, res.Snapshot)
	assert.Empty(t, res.State.History)
	assert.NotEmpty(t, res.Working, "projection still runs")
	assert.Equal(t, 0, e.remote.Calls("set"), "nothing is saved without a snapshot")
}

func TestRecomputeSkipsSnapshotWhenAssetsNotPositive(t *testing.T) {
	e := newEnv(t)
	form := fullForm()
	form.RollingCredit = "500000"

	res, err := e.ws.Planning.Recompute(context.Background(), form)
	require.NoError(t, err)
	assert.Nil(t, res.Snapshot)
	assert.Equal(t, "0", res.Assets.BlendedReturnRate.String())
}

func TestRecomputeKeepsExplicitSocialSecurity(t *testing.T) {
	e := newEnv(t)
	form := fullForm()
	form.SocialSecurity = "15000"

	res, err := e.ws.Planning.Recompute(context.Background(), form)
	require.NoError(t, err)
	assert.Zero(t, res.EstimatedSocialSecurity)
	assert.Equal(t, 15000.0, res.State.Finance.SocialSecurity)
}

func TestInitCleansHistory(t *testing.T) {
	e := newEnv(t)
	e.remote.Put(e.planningPath(), domain.Record{
		"lastUpdated": 1,
		"history": []any{
			map[string]any{"timestamp": "2024-04-02T10:00:00.000Z", "age": 40, "balance": 2},
			map[string]any{"timestamp": "garbage", "age": 40, "balance": 9},
			map[string]any{"timestamp": "2024-04-01T10:00:00.000Z", "age": 40, "balance": 1},
			map[string]any{"timestamp": "2024-04-01T11:00:00.000Z", "age": 40, "balance": 11},
		},
	})

	state, err := e.ws.Planning.Init(context.Background(), store.LoadOptions{})
	require.NoError(t, err)
	require.Len(t, state.History, 2)
	assert.Equal(t, int64(11), state.History[0].Balance)
	assert.Equal(t, int64(2), state.History[1].Balance)
}

func TestHistoryCombinesRemote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.ws.Planning.Recompute(ctx, fullForm())
	require.NoError(t, err)

	e.remote.Put(store.Path{User: "u1", Collection: AssetHistoryCollection, ID: "2024-04-30"},
		domain.Record{"timestamp": "2024-04-30T12:00:00.000Z", "age": 40, "balance": 150000})

	hist, err := e.ws.Planning.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "2024-05-01T09:00:00.000Z", hist[0].Timestamp)
	assert.Equal(t, int64(150000), hist[1].Balance)

	e.remote.FailWith("list", errors.New("offline"))
	hist, err = e.ws.Planning.History(ctx)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestPlanningRequiresIdentity(t *testing.T) {
	e := newEnv(t)
	e.session.SignOut()

	_, err := e.ws.Planning.Init(context.Background(), store.LoadOptions{})
	assert.ErrorIs(t, err, store.ErrNoIdentity)
	_, err = e.ws.Planning.Recompute(context.Background(), fullForm())
	assert.ErrorIs(t, err, store.ErrNoIdentity)
}

func TestIdentitySwitchDropsPreviousUserState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.ws.Planning.Recompute(ctx, fullForm())
	require.NoError(t, err)
	require.Len(t, e.ws.Planning.State().History, 1)

	e.session.SignIn("u2")
	st := e.ws.Planning.State()
	assert.Empty(t, st.History)
	assert.Zero(t, st.Finance.CurrentAge)
	_, ok, err := e.local.GetItem("u2:" + PlanningRecord)
	require.NoError(t, err)
	assert.False(t, ok)

	form := fullForm()
	form.CurrentAge = "50"
	res, err := e.ws.Planning.Recompute(ctx, form)
	require.NoError(t, err)
	require.Len(t, res.State.History, 1)
	assert.Equal(t, 50, res.State.History[0].Age)

	hist, err := e.ws.Planning.History(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 50, hist[0].Age)

	raw, ok, err := e.local.GetItem("u2:" + PlanningRecord)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, `"age":40`)

	stored, ok := e.remote.Peek(store.Path{User: "u2", Collection: PlanningCollection, ID: PlanningRecord})
	require.True(t, ok)
	assert.Len(t, stored["history"], 1)
}

func TestClosedServiceIgnoresIdentityChanges(t *testing.T) {
	e := newEnv(t)
	_, err := e.ws.Planning.Recompute(context.Background(), fullForm())
	require.NoError(t, err)

	e.ws.Planning.Close()
	e.session.SignIn("u2")
	e.session.SignIn("u1")
	assert.Len(t, e.ws.Planning.State().History, 1)
}

func TestStateFormRoundTrip(t *testing.T) {
	e := newEnv(t)
	res, err := e.ws.Planning.Recompute(context.Background(), fullForm())
	require.NoError(t, err)

	form := FormFromState(res.State)
	assert.Equal(t, "40", form.CurrentAge)
	assert.Equal(t, "100000", form.Income)
	assert.Equal(t, "7", form.InvestmentReturnRate)
	assert.True(t, form.RequiredFieldsPresent())
}

func TestReset(t *testing.T) {
	e := newEnv(t)
	_, err := e.ws.Planning.Recompute(context.Background(), fullForm())
	require.NoError(t, err)

	e.ws.Planning.Reset()
	_, ok, err := e.local.GetItem("u1:" + PlanningRecord)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, e.ws.Planning.State().History)
}
