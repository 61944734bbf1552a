package planning

import (
	"context"

	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/store"
)

// Budget record identity.
const (
	BudgetRecord     = "budgetConfig"
	BudgetCollection = "settings"
)

// legacySubscriptions maps retired top-level fields to subscription names.
var legacySubscriptions = []struct{ field, name string }{
	{"prime", "Amazon Prime"},
	{"spotify", "Spotify"},
}

// NormalizeBudget ensures the nested budget sections exist and moves legacy
// subscription fields into the subscriptions map.
func NormalizeBudget(r domain.Record) domain.Record {
	if r == nil {
		r = domain.Record{}
	}
	subs := ensureSection(r, calculation.SubscriptionsKey)
	for _, legacy := range legacySubscriptions {
		if v := r[legacy.field]; !isFalsy(v) {
			subs[legacy.name] = v
			delete(r, legacy.field)
		}
	}
	ensureSection(r, calculation.RecurringKey)
	ensureSection(r, calculation.GoalRecurringKey)
	ensureSection(r, calculation.GoalSubscriptionsKey)
	return r
}

func ensureSection(r domain.Record, key string) map[string]any {
	if m, ok := domain.AsMap(r[key]); ok {
		return m
	}
	m := map[string]any{}
	r[key] = m
	return m
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	default:
		return calculation.IsNumeric(v) && calculation.NumberFrom(v).IsZero()
	}
}

// BudgetService owns the budget record, reconciled with the merge policy.
type BudgetService struct {
	repo *store.Repository
}

// NewBudgetService wraps a repository configured by BudgetConfig.
func NewBudgetService(repo *store.Repository) *BudgetService {
	return &BudgetService{repo: repo}
}

// BudgetConfig returns the repository settings of the budget record.
func BudgetConfig(deps Deps) store.Config {
	return store.Config{
		Name:         BudgetRecord,
		Collection:   BudgetCollection,
		Policy:       store.PolicyMerge,
		Remote:       deps.Remote,
		Local:        deps.Local,
		Identity:     deps.Identity,
		Confirmer:    deps.Confirmer,
		UploadPrompt: "Upload local budget changes to the cloud?",
		Normalizer:   NormalizeBudget,
		Logger:       deps.Logger,
		Metrics:      deps.Metrics,
		Now:          deps.Now,
	}
}

// Repository exposes the underlying repository.
func (s *BudgetService) Repository() *store.Repository { return s.repo }

// Load reconciles and returns the budget record. The confirmer decides
// whether newer local changes are uploaded.
func (s *BudgetService) Load(ctx context.Context, confirm store.Confirmer) (domain.Record, error) {
	return s.repo.Load(ctx, store.LoadOptions{Confirm: confirm})
}

// Save replaces the budget record.
func (s *BudgetService) Save(ctx context.Context, rec domain.Record) (domain.Record, error) {
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	return s.repo.Current(), nil
}

func (s *BudgetService) current(ctx context.Context) (domain.Record, error) {
	if rec := s.repo.Current(); rec != nil {
		return rec, nil
	}
	return s.repo.Load(ctx, store.LoadOptions{})
}

// Summary computes the monthly budget of the current record.
func (s *BudgetService) Summary(ctx context.Context) (domain.BudgetSummary, error) {
	rec, err := s.current(ctx)
	if err != nil {
		return domain.BudgetSummary{}, err
	}
	return calculation.CalculateMonthlyBudget(calculation.CurrentMonthlyBudget(rec)), nil
}

// Compare totals the current and goal budgets of the current record.
func (s *BudgetService) Compare(ctx context.Context) (domain.BudgetComparison, error) {
	rec, err := s.current(ctx)
	if err != nil {
		return domain.BudgetComparison{}, err
	}
	return calculation.CompareBudget(rec), nil
}
