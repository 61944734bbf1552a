// Package store keeps a per-identity local cache of a record in sync with a
// remote document store.
package store

import (
	"context"
	"errors"

	"github.com/rpgo/lifedash/internal/domain"
)

// ErrNoIdentity is returned by operations that need a signed-in user.
var ErrNoIdentity = errors.New("no authenticated identity")

// Path addresses one remote document.
type Path struct {
	User       string
	Collection string
	ID         string
}

// Document is the result of a remote read. Data is nil when !Exists.
type Document struct {
	Exists bool
	Data   domain.Record
}

// SetOptions controls remote writes. Merge upserts the given top-level
// fields and leaves the others untouched.
type SetOptions struct {
	Merge bool
}

// DocumentStore is the remote authoritative store.
type DocumentStore interface {
	Get(ctx context.Context, p Path) (Document, error)
	Set(ctx context.Context, p Path, data domain.Record, opts SetOptions) error
	Delete(ctx context.Context, p Path) error
	// List returns up to limit documents of a collection, newest
	// "timestamp" first. A limit <= 0 means no limit.
	List(ctx context.Context, user, collection string, limit int) ([]domain.Record, error)
}

// LocalCache is a string key-value cache holding serialized records.
type LocalCache interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// KeyLister is implemented by caches that can enumerate their keys.
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}

// Confirmer answers a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Always answers every prompt with the same value.
type Always bool

// Confirm returns a.
func (a Always) Confirm(string) bool { return bool(a) }

// IdentityProvider exposes the current user id ("" when signed out) and
// notifies on change. Subscribe returns a function that cancels the
// subscription.
type IdentityProvider interface {
	Current() string
	Subscribe(fn func(prev, next string)) (unsubscribe func())
}

func confirm(c Confirmer, prompt string) bool {
	if c == nil {
		return false
	}
	return c.Confirm(prompt)
}
