// Package memory provides in-process store adapters.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rpgo/lifedash/internal/domain"
	"github.com/rpgo/lifedash/internal/store"
)

// Documents is an in-process DocumentStore. Writes are round-tripped
// through JSON so readers see what a real store would return. Merge writes
// overlay top-level fields.
type Documents struct {
	mu   sync.Mutex
	docs map[string]domain.Record
	fail map[string]error
	ops  map[string]int
}

// NewDocuments returns an empty store.
func NewDocuments() *Documents {
	return &Documents{
		docs: map[string]domain.Record{},
		fail: map[string]error{},
		ops:  map[string]int{},
	}
}

func key(p store.Path) string {
	return p.User + "/" + p.Collection + "/" + p.ID
}

// FailWith makes every call of op ("get", "set", "delete", "list") return
// err until cleared with a nil err.
func (d *Documents) FailWith(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, op)
		return
	}
	d.fail[op] = err
}

// Calls returns how many times op was invoked.
func (d *Documents) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ops[op]
}

func (d *Documents) enter(ctx context.Context, op string) error {
	d.ops[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.fail[op]
}

func (d *Documents) Get(ctx context.Context, p store.Path) (store.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "get"); err != nil {
		return store.Document{}, err
	}
	rec, ok := d.docs[key(p)]
	if !ok {
		return store.Document{}, nil
	}
	return store.Document{Exists: true, Data: rec.Clone()}, nil
}

func (d *Documents) Set(ctx context.Context, p store.Path, data domain.Record, opts store.SetOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "set"); err != nil {
		return err
	}
	rec, err := store.RoundTrip(data)
	if err != nil {
		return err
	}
	if existing, ok := d.docs[key(p)]; ok && opts.Merge {
		for k, v := range rec {
			existing[k] = v
		}
		return nil
	}
	d.docs[key(p)] = rec
	return nil
}

func (d *Documents) Delete(ctx context.Context, p store.Path) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "delete"); err != nil {
		return err
	}
	delete(d.docs, key(p))
	return nil
}

func (d *Documents) List(ctx context.Context, user, collection string, limit int) ([]domain.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(ctx, "list"); err != nil {
		return nil, err
	}
	prefix := user + "/" + collection + "/"
	var out []domain.Record
	for k, rec := range d.docs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, rec.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := out[i]["timestamp"].(string)
		tj, _ := out[j]["timestamp"].(string)
		return ti > tj
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put seeds a document without JSON validation or call counting.
func (d *Documents) Put(p store.Path, rec domain.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[key(p)] = rec.Clone()
}

// Peek returns a copy of a stored document.
func (d *Documents) Peek(p store.Path) (domain.Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.docs[key(p)]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}
