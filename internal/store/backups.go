package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/pkg/dateutil"
)

// ErrBackupNotFound is returned when restoring an unknown backup key.
var ErrBackupNotFound = errors.New("backup not found")

// ErrNoKeyLister is returned by List when the cache cannot enumerate keys.
var ErrNoKeyLister = errors.New("local cache cannot list keys")

// Backups keeps point-in-time copies of a repository's record in the local
// cache under <identity>:backup-<record>-<timestamp>-<id>.
type Backups struct {
	repo  *Repository
	local LocalCache
	codec JSONCodec
	newID func() string
}

// NewBackups returns backups for repo stored in local.
func NewBackups(repo *Repository, local LocalCache) *Backups {
	return &Backups{
		repo:  repo,
		local: local,
		newID: func() string { return uuid.NewString()[:8] },
	}
}

func (b *Backups) prefix(uid string) string {
	p := "backup-" + b.repo.Name() + "-"
	if uid == "" {
		return p
	}
	return uid + ":" + p
}

// Create stores the current record, loading it first when nothing is in
// memory, and returns the new backup key.
func (b *Backups) Create(ctx context.Context) (string, error) {
	uid := b.repo.identity()
	if uid == "" {
		return "", ErrNoIdentity
	}
	rec := b.repo.Current()
	if rec == nil {
		var err error
		if rec, err = b.repo.Load(ctx, LoadOptions{}); err != nil {
			return "", fmt.Errorf("load before backup: %w", err)
		}
	}
	raw, err := b.codec.Encode(rec)
	if err != nil {
		return "", err
	}
	key := b.prefix(uid) + dateutil.FormatISO(b.repo.cfg.Now()) + "-" + b.newID()
	if err := b.local.SetItem(key, raw); err != nil {
		return "", fmt.Errorf("write backup %s: %w", key, err)
	}
	return key, nil
}

// List returns the current identity's backup keys, oldest first.
func (b *Backups) List() ([]string, error) {
	lister, ok := b.local.(KeyLister)
	if !ok {
		return nil, ErrNoKeyLister
	}
	uid := b.repo.identity()
	if uid == "" {
		return nil, ErrNoIdentity
	}
	keys, err := lister.Keys(b.prefix(uid))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Restore saves the backup under key through the repository, making it the
// current record.
func (b *Backups) Restore(ctx context.Context, key string) (domain.Record, error) {
	uid := b.repo.identity()
	if uid == "" {
		return nil, ErrNoIdentity
	}
	if !strings.HasPrefix(key, b.prefix(uid)) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, key)
	}
	raw, ok, err := b.local.GetItem(key)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, key)
	}
	rec, err := b.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := b.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	return b.repo.Current(), nil
}
