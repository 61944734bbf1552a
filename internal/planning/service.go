// Package planning runs the planning and budget panels against the
// reconciling store.
package planning

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/history"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/rpgo/lifedash/pkg/decimal"
	sd "github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Planning record identity.
const (
	PlanningRecord         = "planningData"
	PlanningCollection     = "settings"
	AssetHistoryCollection = "assetHistory"
	RemoteHistoryLimit     = 50
)

// Form defaults applied when a field is blank.
var (
	DefaultWithdrawalRate = sd.NewFromInt(4)
	DefaultPostYears      = sd.NewFromInt(30)
)

// PlanningConfig returns the repository settings of the planning record.
func PlanningConfig(deps Deps) store.Config {
	return store.Config{
		Name:        PlanningRecord,
		Collection:  PlanningCollection,
		Policy:      store.PolicyAuthoritative,
		Remote:      deps.Remote,
		Local:       deps.Local,
		Identity:    deps.Identity,
		Confirmer:   deps.Confirmer,
		MergePrompt: "Local planning data found. Merge with cloud data?",
		Logger:      deps.Logger,
		Metrics:     deps.Metrics,
		Now:         deps.Now,
	}
}

// Result is the outcome of one recompute.
type Result struct {
	Projection *domain.Projection       `json:"projection"`
	Working    []domain.ProjectionRow   `json:"working"`
	Retirement []domain.ProjectionRow   `json:"retirement"`
	Assets     calculation.AssetSummary `json:"assets"`
	// EstimatedSocialSecurity is set when the form left social security
	// blank and the estimate was used instead.
	EstimatedSocialSecurity int64                   `json:"estimatedSocialSecurity,omitempty"`
	Snapshot                *domain.HistorySnapshot `json:"snapshot,omitempty"`
	State                   domain.PlanningState    `json:"state"`
}

// Service is the planning panel without its rendering.
type Service struct {
	repo     *store.Repository
	remote   store.DocumentStore
	identity store.IdentityProvider
	reducer  *history.Reducer
	log      *zap.Logger

	mu sync.Mutex
	// state is the record as loaded for stateFor. An identity change drops
	// it so the next call loads the new identity's record.
	state       domain.Record
	stateFor    string
	unsubscribe func()
}

// NewService builds the planning service over repo.
func NewService(repo *store.Repository, deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = calculation.Now
	}
	s := &Service{
		repo:     repo,
		remote:   deps.Remote,
		identity: deps.Identity,
		reducer:  &history.Reducer{Location: deps.Location, Now: now},
		log:      deps.logger().With(zap.String("component", "planning")),
	}
	if deps.Identity != nil {
		s.unsubscribe = deps.Identity.Subscribe(s.identityChanged)
	}
	return s
}

func (s *Service) identityChanged(_, _ string) {
	s.mu.Lock()
	s.state = nil
	s.stateFor = ""
	s.mu.Unlock()
}

// Close cancels the identity subscriptions of the service and its repository.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.repo.Close()
}

// loadedState returns the in-memory record when it belongs to uid.
func (s *Service) loadedState(uid string) (domain.Record, bool) {
	if s.state == nil || s.stateFor != uid {
		return nil, false
	}
	return s.state, true
}

// Repository exposes the underlying repository.
func (s *Service) Repository() *store.Repository { return s.repo }

func (s *Service) uid() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.Current()
}

// Init loads the planning record and cleans its history.
func (s *Service) Init(ctx context.Context, opts store.LoadOptions) (domain.PlanningState, error) {
	uid := s.uid()
	if uid == "" {
		return domain.PlanningState{}, store.ErrNoIdentity
	}
	rec, err := s.repo.Load(ctx, opts)
	if err != nil {
		return domain.PlanningState{}, fmt.Errorf("load planning: %w", err)
	}
	for _, section := range []string{"finance", "assets", "budget"} {
		if _, ok := domain.AsMap(rec[section]); !ok {
			rec[section] = map[string]any{}
		}
	}
	rec["history"] = history.ToValues(s.reducer.Normalize(rec["history"]))

	s.mu.Lock()
	s.state = rec
	s.stateFor = uid
	s.mu.Unlock()
	return StateFromRecord(rec), nil
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	uid := s.uid()
	s.mu.Lock()
	_, loaded := s.loadedState(uid)
	s.mu.Unlock()
	if loaded {
		return nil
	}
	_, err := s.Init(ctx, store.LoadOptions{})
	return err
}

// formValues is the parsed planning form.
type formValues struct {
	currentAge, retirementAge int
	income, annualSavings     sd.Decimal
	annualRaise, inflation    sd.Decimal
	pension, socialSecurity   sd.Decimal
	withdrawalRate            sd.Decimal
	postYears                 int
	assets                    calculation.AssetInput
}

func parseForm(f domain.PlanningForm) formValues {
	n := calculation.ParseNumber
	return formValues{
		currentAge:     int(n(f.CurrentAge).IntPart()),
		retirementAge:  int(n(f.RetirementAge).IntPart()),
		income:         n(f.Income),
		annualSavings:  n(f.AnnualSavings),
		annualRaise:    n(f.AnnualRaise),
		inflation:      n(f.Inflation),
		pension:        n(f.Pension),
		socialSecurity: n(f.SocialSecurity),
		withdrawalRate: calculation.ParseNumberOr(f.WithdrawalRate, DefaultWithdrawalRate),
		postYears:      int(calculation.ParseNumberOr(f.PostYears, DefaultPostYears).IntPart()),
		assets: calculation.AssetInput{
			RealEstate:           n(f.RealEstate),
			CarValue:             n(f.CarValue),
			Savings:              n(f.AssetSavings),
			Checking:             n(f.Checking),
			Investment:           n(f.Investment),
			RollingCredit:        n(f.RollingCredit),
			InvestmentReturnRate: n(f.InvestmentReturnRate),
			SavingsReturnRate:    n(f.SavingsReturnRate),
		},
	}
}

// Recompute projects the form, folds it into the planning record and, when
// the snapshot rule records a snapshot, saves the record and the day's
// remote asset document.
func (s *Service) Recompute(ctx context.Context, form domain.PlanningForm) (*Result, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	v := parseForm(form)

	estimate := calculation.EstimateSocialSecurity(v.income, v.currentAge, v.retirementAge)
	socialSecurity := v.socialSecurity
	var usedEstimate int64
	if socialSecurity.IsZero() && estimate != 0 {
		socialSecurity = sd.NewFromInt(estimate)
		usedEstimate = estimate
	}

	assets := calculation.SummarizeAssets(v.assets)
	params := domain.ProjectionParameters{
		CurrentAge:           v.currentAge,
		RetirementAge:        v.retirementAge,
		Savings:              assets.Total,
		AnnualSavings:        &v.annualSavings,
		Income:               v.income,
		InvestmentReturnRate: assets.BlendedReturnRate,
		AnnualRaise:          v.annualRaise,
		InflationRate:        v.inflation,
		Pension:              v.pension,
		SocialSecurity:       socialSecurity,
		PostYears:            v.postYears,
		WithdrawalRate:       v.withdrawalRate,
	}
	proj := calculation.Run(params)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state.Clone()
	state["finance"] = section(domain.FinanceSettings{
		CurrentAge:           v.currentAge,
		RetirementAge:        v.retirementAge,
		Income:               v.income.InexactFloat64(),
		AnnualSavings:        v.annualSavings.InexactFloat64(),
		AnnualRaise:          v.annualRaise.InexactFloat64(),
		Inflation:            v.inflation.InexactFloat64(),
		InvestmentReturnRate: v.assets.InvestmentReturnRate.InexactFloat64(),
		SavingsReturnRate:    v.assets.SavingsReturnRate.InexactFloat64(),
		Pension:              v.pension.InexactFloat64(),
		WithdrawalRate:       v.withdrawalRate.InexactFloat64(),
		PostYears:            v.postYears,
		SocialSecurity:       socialSecurity.InexactFloat64(),
	})
	state["assets"] = section(domain.AssetSettings{
		RealEstate:   v.assets.RealEstate.InexactFloat64(),
		CarValue:     v.assets.CarValue.InexactFloat64(),
		AssetSavings: v.assets.Savings.InexactFloat64(),
		Checking:     v.assets.Checking.InexactFloat64(),
		Investment:   v.assets.Investment.InexactFloat64(),
	})
	state["budget"] = section(domain.Liabilities{RollingCredit: v.assets.RollingCredit.InexactFloat64()})

	balance := decimal.RoundHalfUp(assets.Total).IntPart()
	hist, recorded := s.reducer.Record(s.reducer.Normalize(state["history"]), v.currentAge, balance, form.RequiredFieldsPresent())
	state["history"] = history.ToValues(hist)
	s.state = state

	res := &Result{
		Projection:              proj,
		Working:                 proj.Working(),
		Retirement:              proj.Retirement(),
		Assets:                  assets,
		EstimatedSocialSecurity: usedEstimate,
	}
	if recorded {
		snap := hist[len(hist)-1]
		res.Snapshot = &snap
		s.saveSnapshot(ctx, snap)
		if err := s.repo.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("save planning: %w", err)
		}
		if cur := s.repo.Current(); cur != nil {
			s.state = cur
		}
	}
	res.State = StateFromRecord(s.state)
	return res, nil
}

func (s *Service) saveSnapshot(ctx context.Context, snap domain.HistorySnapshot) {
	uid := s.uid()
	if uid == "" || s.remote == nil {
		return
	}
	p := store.Path{User: uid, Collection: AssetHistoryCollection, ID: history.DocumentID(snap)}
	if err := s.remote.Set(ctx, p, history.ToValue(snap), store.SetOptions{}); err != nil {
		s.log.Error("failed to save asset snapshot", zap.String("user", uid), zap.Error(err))
	}
}

// History returns the display history: local snapshots combined with the
// latest remote ones, newest first, one per day.
func (s *Service) History(ctx context.Context) ([]domain.HistorySnapshot, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	local := s.reducer.Normalize(s.state["history"])
	s.mu.Unlock()

	var remote []domain.HistorySnapshot
	if uid := s.uid(); uid != "" && s.remote != nil {
		docs, err := s.remote.List(ctx, uid, AssetHistoryCollection, RemoteHistoryLimit)
		if err != nil {
			s.log.Error("failed to load asset history", zap.String("user", uid), zap.Error(err))
		}
		for _, d := range docs {
			if snap, ok := history.FromValue(map[string]any(d)); ok {
				remote = append(remote, snap)
			}
		}
	}
	return s.reducer.Combine(local, remote), nil
}

// State returns the typed view of the in-memory planning record.
func (s *Service) State() domain.PlanningState {
	uid := s.uid()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.loadedState(uid)
	return StateFromRecord(rec)
}

// Reset forgets the in-memory record and the local cache entry.
func (s *Service) Reset() {
	s.mu.Lock()
	s.state = nil
	s.stateFor = ""
	s.mu.Unlock()
	s.repo.Clear()
}

// section renders a typed section as a plain JSON object.
func section(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// StateFromRecord reads the typed view of a planning record. Fields stored
// as strings or numbers are both accepted.
func StateFromRecord(rec domain.Record) domain.PlanningState {
	num := func(m map[string]any, k string) float64 {
		return calculation.NumberFrom(m[k]).InexactFloat64()
	}
	integer := func(m map[string]any, k string) int {
		return int(calculation.NumberFrom(m[k]).IntPart())
	}
	f := rec.Map("finance")
	a := rec.Map("assets")
	b := rec.Map("budget")

	var hist []domain.HistorySnapshot
	if list, ok := rec["history"].([]any); ok {
		for _, e := range list {
			if snap, ok := history.FromValue(e); ok {
				hist = append(hist, snap)
			}
		}
	}
	return domain.PlanningState{
		Finance: domain.FinanceSettings{
			CurrentAge:           integer(f, "curAge"),
			RetirementAge:        integer(f, "retAge"),
			Income:               num(f, "income"),
			AnnualSavings:        num(f, "annualSavings"),
			AnnualRaise:          num(f, "annualRaise"),
			Inflation:            num(f, "inflation"),
			InvestmentReturnRate: num(f, "investmentReturnRate"),
			SavingsReturnRate:    num(f, "savingsReturnRate"),
			Pension:              num(f, "pension"),
			WithdrawalRate:       num(f, "withdrawalRate"),
			PostYears:            integer(f, "postYears"),
			SocialSecurity:       num(f, "socialSecurity"),
		},
		Assets: domain.AssetSettings{
			RealEstate:   num(a, "realEstate"),
			CarValue:     num(a, "carValue"),
			AssetSavings: num(a, "assetSavings"),
			Checking:     num(a, "checking"),
			Investment:   num(a, "investment"),
		},
		Budget:      domain.Liabilities{RollingCredit: num(b, "rollingCredit")},
		History:     hist,
		LastUpdated: rec.LastUpdated(),
	}
}

// FormFromState renders a saved state back into form fields, the inverse
// of what Recompute stores.
func FormFromState(st domain.PlanningState) domain.PlanningForm {
	i := func(v int) string { return fmt.Sprint(v) }
	f := func(v float64) string { return sd.NewFromFloat(v).String() }
	return domain.PlanningForm{
		CurrentAge:           i(st.Finance.CurrentAge),
		RetirementAge:        i(st.Finance.RetirementAge),
		Income:               f(st.Finance.Income),
		AnnualSavings:        f(st.Finance.AnnualSavings),
		AnnualRaise:          f(st.Finance.AnnualRaise),
		Inflation:            f(st.Finance.Inflation),
		Pension:              f(st.Finance.Pension),
		WithdrawalRate:       f(st.Finance.WithdrawalRate),
		PostYears:            i(st.Finance.PostYears),
		SocialSecurity:       f(st.Finance.SocialSecurity),
		RealEstate:           f(st.Assets.RealEstate),
		CarValue:             f(st.Assets.CarValue),
		AssetSavings:         f(st.Assets.AssetSavings),
		SavingsReturnRate:    f(st.Finance.SavingsReturnRate),
		Checking:             f(st.Assets.Checking),
		Investment:           f(st.Assets.Investment),
		InvestmentReturnRate: f(st.Finance.InvestmentReturnRate),
		RollingCredit:        f(st.Budget.RollingCredit),
	}
}
