package planning

import (
	"time"

	"github.com/rpgo/lifedash/internal/store"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by the planning and budget services.
type Deps struct {
	Remote    store.DocumentStore
	Local     store.LocalCache
	Identity  store.IdentityProvider
	Confirmer store.Confirmer
	Logger    *zap.Logger
	Metrics   *store.Metrics
	Now       func() time.Time
	// Location decides calendar days for history snapshots.
	Location *time.Location
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
