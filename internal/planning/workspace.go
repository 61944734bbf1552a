package planning

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/store"
)

// Workspace bundles one identity's records and services.
type Workspace struct {
	Planning       *Service
	Budget         *BudgetService
	PlanningBackup *store.Backups
	BudgetBackup   *store.Backups
}

// NewWorkspace wires the planning and budget records over deps.
func NewWorkspace(deps Deps) *Workspace {
	planningRepo := store.NewRepository(PlanningConfig(deps))
	budgetRepo := store.NewRepository(BudgetConfig(deps))
	return &Workspace{
		Planning:       NewService(planningRepo, deps),
		Budget:         NewBudgetService(budgetRepo),
		PlanningBackup: store.NewBackups(planningRepo, deps.Local),
		BudgetBackup:   store.NewBackups(budgetRepo, deps.Local),
	}
}

// Backups returns the backup set of a record name.
func (w *Workspace) Backups(record string) (*store.Backups, bool) {
	switch record {
	case PlanningRecord:
		return w.PlanningBackup, true
	case BudgetRecord:
		return w.BudgetBackup, true
	default:
		return nil, false
	}
}

// Close releases the workspace's identity subscriptions.
func (w *Workspace) Close() {
	w.Planning.Close()
	w.Budget.Repository().Close()
}

// Sessions caches one workspace per user for a sliding TTL. Each workspace
// gets a fixed identity, so users never share in-memory records.
type Sessions struct {
	deps  Deps
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

// NewSessions returns a cache evicting idle workspaces after ttl.
func NewSessions(deps Deps, ttl time.Duration) *Sessions {
	c := cache.New(ttl, ttl)
	c.OnEvicted(func(_ string, v interface{}) {
		if w, ok := v.(*Workspace); ok {
			w.Close()
		}
	})
	return &Sessions{deps: deps, cache: c, ttl: ttl}
}

// For returns the workspace of uid, creating it on first use.
func (s *Sessions) For(uid string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(uid); ok {
		w := v.(*Workspace)
		s.cache.Set(uid, w, s.ttl)
		return w
	}
	deps := s.deps
	deps.Identity = identity.Static(uid)
	w := NewWorkspace(deps)
	s.cache.Set(uid, w, s.ttl)
	return w
}

// Len returns the number of live workspaces.
func (s *Sessions) Len() int { return s.cache.ItemCount() }
