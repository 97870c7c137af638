// Package store is the durable keyed store backing the synchronization
// core: a hierarchical path -> JSON document tree with point writes, atomic
// multi-path writes, range queries over an indexed field, and push
// subscriptions that deliver a full snapshot of the watched subtree on
// every change.
//
// Consistency is last-write-wins per path. The only cross-path guarantee is
// Update, which applies its whole change set or nothing.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"locketsync/internal/common"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = common.NotFound("store: path not found")

// Entry is one document of the tree. Key is the last path segment.
type Entry struct {
	Key   string
	Path  string
	Value json.RawMessage
}

// Event is one delivery on a subscription: either a full snapshot of the
// watched subtree, or a terminal error after which no further events
// arrive and the caller must resubscribe.
type Event struct {
	Entries []Entry
	Err     error
}

// Subscription is a live watch on a subtree. Close stops delivery
// immediately and releases the watcher; the Events channel is closed
// afterwards. Leaking an open subscription leaks a watcher for the life of
// the process.
type Subscription interface {
	Events() <-chan Event
	Close()
}

type Store interface {
	// Get reads the document at path. ErrNotFound when absent.
	Get(ctx context.Context, path string) (json.RawMessage, error)

	// Put marshals value to JSON and writes it at path, overwriting any
	// previous document.
	Put(ctx context.Context, path string, value any) error

	// Update applies every change atomically: all paths land or none do.
	// A nil value deletes the path (and anything beneath it).
	Update(ctx context.Context, changes map[string]any) error

	// Children lists the direct children of dir ordered by key.
	Children(ctx context.Context, dir string) ([]Entry, error)

	// Query lists children of dir whose indexed string field lies in
	// [lower, upper), ordered by that field. limit <= 0 means no limit.
	Query(ctx context.Context, dir, field, lower, upper string, limit int) ([]Entry, error)

	// Watch subscribes to the subtree rooted at path. The first event is
	// the current snapshot; each subsequent change delivers a strictly
	// newer one. There is no ordering guarantee across two subscriptions,
	// even for changes that came from one atomic Update.
	Watch(ctx context.Context, path string) (Subscription, error)

	// NewKey allocates a unique child key. Keys generated by one process
	// sort ascending by allocation time.
	NewKey() string
}

// Decode unmarshals an entry value into out, filling pointer fields the
// usual encoding/json way.
func Decode(e Entry, out any) error {
	return json.Unmarshal(e.Value, out)
}

func wrapTimeout(err error) error {
	return common.Wrap(common.CodeTimeout, "store: operation timed out", err)
}

func wrapUnavailable(err error) error {
	return common.Wrap(common.CodeStoreUnavailable, "store: backend failure", err)
}

func splitDir(path string) (dir, key string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// underRoot reports whether path is root itself or a descendant of it.
func underRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}
