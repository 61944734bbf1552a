package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rpgo/lifedash/internal/domain"
	"go.uber.org/zap"
)

var errNoRemote = errors.New("no remote store configured")

// Policy selects how Load reconciles the local and remote copies.
type Policy int

const (
	// PolicyMerge merges both copies, the newer winning field by field.
	PolicyMerge Policy = iota
	// PolicyAuthoritative trusts the remote copy and only merges local
	// changes on explicit confirmation.
	PolicyAuthoritative
)

func (p Policy) String() string {
	switch p {
	case PolicyMerge:
		return "merge"
	case PolicyAuthoritative:
		return "authoritative"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Default confirmation prompts.
const (
	DefaultUploadPrompt = "Upload local changes to the cloud?"
	DefaultMergePrompt  = "Local data found. Merge with cloud data?"
)

// Config wires a Repository.
type Config struct {
	// Name is the record name, used as the remote document id and the
	// local cache key suffix.
	Name       string
	Collection string
	Policy     Policy

	Remote   DocumentStore
	Local    LocalCache
	Identity IdentityProvider

	// Confirmer is asked before uploading (PolicyMerge) or merging
	// (PolicyAuthoritative). Nil answers no.
	Confirmer    Confirmer
	UploadPrompt string
	MergePrompt  string

	// Normalizer fills domain defaults after every load and before every
	// save. It may modify its argument.
	Normalizer func(domain.Record) domain.Record

	Logger  *zap.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// LoadOptions tune a single Load.
type LoadOptions struct {
	// RecoverLocal merges local over remote without asking
	// (PolicyAuthoritative only).
	RecoverLocal bool
	// Confirm overrides Config.Confirmer for this call.
	Confirm Confirmer
}

// Repository owns the in-memory copy of one record type. Every Load and
// Save runs under a single lock, remote I/O included, so saves always
// observe the latest completed load or save.
type Repository struct {
	cfg   Config
	codec JSONCodec
	log   *zap.Logger

	mu        sync.Mutex
	current   domain.Record
	loadedFor string        // identity of the last successful remote load
	queued    domain.Record // newest save made before that load

	unsubscribe func()
}

// NewRepository builds a repository and subscribes to identity changes.
func NewRepository(cfg Config) *Repository {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UploadPrompt == "" {
		cfg.UploadPrompt = DefaultUploadPrompt
	}
	if cfg.MergePrompt == "" {
		cfg.MergePrompt = DefaultMergePrompt
	}
	r := &Repository{
		cfg: cfg,
		log: cfg.Logger.With(zap.String("record", cfg.Name), zap.String("policy", cfg.Policy.String())),
	}
	if cfg.Identity != nil {
		r.unsubscribe = cfg.Identity.Subscribe(r.identityChanged)
	}
	return r
}

// Close cancels the identity subscription.
func (r *Repository) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Name returns the record name.
func (r *Repository) Name() string { return r.cfg.Name }

// LocalKey returns the cache key of the record for uid. The empty identity
// maps to the bare record name.
func (r *Repository) LocalKey(uid string) string {
	if uid == "" {
		return r.cfg.Name
	}
	return uid + ":" + r.cfg.Name
}

func (r *Repository) identity() string {
	if r.cfg.Identity == nil {
		return ""
	}
	return r.cfg.Identity.Current()
}

func (r *Repository) path(uid string) Path {
	return Path{User: uid, Collection: r.cfg.Collection, ID: r.cfg.Name}
}

func (r *Repository) nowMillis() int64 {
	return r.cfg.Now().UnixMilli()
}

func (r *Repository) identityChanged(prev, next string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	r.loadedFor = ""
	r.queued = nil
	if next == "" && prev != "" {
		r.removeLocal(prev)
	}
	r.log.Debug("identity changed", zap.String("from", prev), zap.String("to", next))
}

// Current returns a copy of the in-memory record, nil before the first load
// or save for the current identity.
func (r *Repository) Current() domain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.Clone()
}

// Clear drops the in-memory copy and the current identity's local cache
// entry. The remote copy is untouched.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
	r.loadedFor = ""
	r.queued = nil
	r.removeLocal(r.identity())
}

// Load reconciles the local and remote copies for the current identity and
// returns the result. Remote failures are logged and counted; the returned
// error only reports a failed local cache write.
func (r *Repository) Load(ctx context.Context, opts LoadOptions) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	confirmer := r.cfg.Confirmer
	if opts.Confirm != nil {
		confirmer = opts.Confirm
	}

	uid := r.identity()
	var (
		rec domain.Record
		err error
	)
	if r.cfg.Policy == PolicyAuthoritative {
		rec, err = r.loadAuthoritative(ctx, uid, opts.RecoverLocal, confirmer)
	} else {
		rec, err = r.loadMerged(ctx, uid, confirmer)
	}
	if err != nil {
		return rec.Clone(), err
	}
	if r.loadedFor == uid && uid != "" {
		err = r.flushQueued(ctx, uid)
	}
	return r.current.Clone(), err
}

func (r *Repository) loadMerged(ctx context.Context, uid string, confirmer Confirmer) (domain.Record, error) {
	local := r.readLocal(uid)
	if uid == "" {
		r.removeLocal("")
		r.current = r.normalize(domain.Record{})
		r.cfg.Metrics.load(r.cfg.Name, OutcomeAnonymous)
		return r.current, nil
	}

	doc, fetchErr := r.getRemote(ctx, uid)
	remote := domain.Record{}
	if fetchErr != nil {
		r.remoteFailed("get", uid, fetchErr)
	} else if doc.Exists && doc.Data != nil {
		remote = doc.Data
	}

	localTs, remoteTs := local.LastUpdated(), remote.LastUpdated()
	useRemote := remoteTs > localTs || (remoteTs == localTs && local.IsEmpty())
	older, newer := remote, local
	if useRemote {
		older, newer = local, remote
	}
	merged := r.normalize(MergeNewer(older, newer))
	merged.SetLastUpdated(max(localTs, remoteTs))

	upload := false
	if fetchErr == nil {
		upload = !doc.Exists
		if doc.Exists && localTs > remoteTs {
			upload = confirm(confirmer, r.cfg.UploadPrompt)
		}
	}

	r.current = merged
	outcome := OutcomeLocal
	if useRemote {
		outcome = OutcomeRemote
	}
	r.cfg.Metrics.load(r.cfg.Name, outcome)

	if err := r.writeLocal(uid, merged); err != nil {
		return merged, err
	}
	if upload {
		r.setRemote(ctx, uid, merged)
	}
	if fetchErr == nil {
		r.loadedFor = uid
	}
	return merged, nil
}

func (r *Repository) loadAuthoritative(ctx context.Context, uid string, recoverLocal bool, confirmer Confirmer) (domain.Record, error) {
	if uid == "" {
		r.removeLocal("")
		r.current = r.normalize(domain.Record{})
		r.cfg.Metrics.load(r.cfg.Name, OutcomeAnonymous)
		return r.current, nil
	}

	doc, fetchErr := r.getRemote(ctx, uid)
	remote := domain.Record{}
	if fetchErr != nil {
		r.remoteFailed("get", uid, fetchErr)
	} else if doc.Exists && doc.Data != nil {
		remote = doc.Data
	}
	hasRemote := !remote.IsEmpty()
	if fetchErr == nil {
		r.loadedFor = uid
	}

	current := remote.Clone()
	if current.LastUpdated() == 0 {
		current.SetLastUpdated(r.nowMillis())
	}
	local := r.readLocal(uid)

	if !hasRemote && !local.IsEmpty() {
		adopted := r.normalize(local.Clone())
		if adopted.LastUpdated() == 0 {
			adopted.SetLastUpdated(r.nowMillis())
		}
		r.current = adopted
		r.cfg.Metrics.load(r.cfg.Name, OutcomeRecovered)
		return adopted, r.writeLocal(uid, adopted)
	}

	merge := recoverLocal
	if !merge && local.LastUpdated() > current.LastUpdated() && !local.IsEmpty() {
		merge = confirm(confirmer, r.cfg.MergePrompt)
	}

	if merge {
		merged := r.normalize(DeepMerge(remote, local))
		merged.SetLastUpdated(r.nowMillis())
		r.current = merged
		r.cfg.Metrics.load(r.cfg.Name, OutcomeMerged)
		if r.setRemote(ctx, uid, merged) {
			r.removeLocal(uid)
		}
		return merged, nil
	}

	current = r.normalize(current)
	r.current = current
	r.cfg.Metrics.load(r.cfg.Name, OutcomeRemote)
	return current, r.writeLocal(uid, current)
}

// flushQueued replays a save made before the first successful load on top
// of the freshly loaded record.
func (r *Repository) flushQueued(ctx context.Context, uid string) error {
	if r.queued == nil {
		return nil
	}
	queued := r.queued
	r.queued = nil

	merged := r.normalize(DeepMerge(r.current, queued))
	merged.SetLastUpdated(r.nowMillis())
	r.current = merged
	if err := r.writeLocal(uid, merged); err != nil {
		return err
	}
	r.setRemote(ctx, uid, merged)
	r.log.Info("replayed deferred save", zap.String("user", uid))
	return nil
}

// Save replaces the in-memory record, stamps it and writes it to the local
// cache. The remote copy receives a merge write once a load has completed
// for this identity; before that the write is deferred to the next load.
// Remote failures are logged, never returned.
func (r *Repository) Save(ctx context.Context, rec domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := r.normalize(rec.Clone())
	data.SetLastUpdated(r.nowMillis())
	r.current = data

	uid := r.identity()
	if uid == "" {
		r.removeLocal("")
		r.cfg.Metrics.save(r.cfg.Name, SaveLocalOnly)
		return nil
	}
	if err := r.writeLocal(uid, data); err != nil {
		return err
	}
	if r.loadedFor != uid {
		r.queued = data.Clone()
		r.cfg.Metrics.save(r.cfg.Name, SaveDeferred)
		r.log.Debug("remote write deferred until load", zap.String("user", uid))
		return nil
	}
	r.setRemote(ctx, uid, data)
	r.cfg.Metrics.save(r.cfg.Name, SaveRemote)
	return nil
}

func (r *Repository) normalize(rec domain.Record) domain.Record {
	if rec == nil {
		rec = domain.Record{}
	}
	if r.cfg.Normalizer == nil {
		return rec
	}
	if out := r.cfg.Normalizer(rec); out != nil {
		return out
	}
	return rec
}

func (r *Repository) readLocal(uid string) domain.Record {
	if r.cfg.Local == nil {
		return domain.Record{}
	}
	key := r.LocalKey(uid)
	raw, ok, err := r.cfg.Local.GetItem(key)
	if err != nil {
		r.log.Warn("local cache read failed", zap.String("key", key), zap.Error(err))
		return domain.Record{}
	}
	if !ok {
		return domain.Record{}
	}
	rec, err := r.codec.Decode(raw)
	if err != nil {
		r.log.Warn("discarding malformed local record", zap.String("key", key), zap.Error(err))
		return domain.Record{}
	}
	return rec
}

func (r *Repository) writeLocal(uid string, rec domain.Record) error {
	if r.cfg.Local == nil {
		return nil
	}
	raw, err := r.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := r.cfg.Local.SetItem(r.LocalKey(uid), raw); err != nil {
		return fmt.Errorf("write local %s: %w", r.LocalKey(uid), err)
	}
	return nil
}

func (r *Repository) removeLocal(uid string) {
	if r.cfg.Local == nil {
		return
	}
	if err := r.cfg.Local.RemoveItem(r.LocalKey(uid)); err != nil {
		r.log.Warn("local cache remove failed", zap.String("key", r.LocalKey(uid)), zap.Error(err))
	}
}

func (r *Repository) getRemote(ctx context.Context, uid string) (Document, error) {
	if r.cfg.Remote == nil {
		return Document{}, errNoRemote
	}
	return r.cfg.Remote.Get(ctx, r.path(uid))
}

// setRemote upserts rec and reports success.
func (r *Repository) setRemote(ctx context.Context, uid string, rec domain.Record) bool {
	if r.cfg.Remote == nil {
		return false
	}
	if err := r.cfg.Remote.Set(ctx, r.path(uid), rec.Clone(), SetOptions{Merge: true}); err != nil {
		r.remoteFailed("set", uid, err)
		return false
	}
	return true
}

func (r *Repository) remoteFailed(op, uid string, err error) {
	r.cfg.Metrics.remoteError(r.cfg.Name, op)
	r.log.Error("remote store operation failed",
		zap.String("op", op),
		zap.String("user", uid),
		zap.Error(err))
}
