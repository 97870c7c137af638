package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore keeps the whole tree in process memory. It implements the exact
// Store contract, which makes it both the test double for everything above
// the store boundary and a usable embedded backend.
type memStore struct {
	mu      sync.RWMutex
	docs    map[string]json.RawMessage
	hub     *hub
	pushIDs pushIDGen
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memStore{
		docs: make(map[string]json.RawMessage),
		hub:  newHub(),
	}
}

func (m *memStore) Get(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *memStore) Put(_ context.Context, path string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[path] = doc
	m.mu.Unlock()
	m.hub.broadcast(path)
	return nil
}

func (m *memStore) Update(_ context.Context, changes map[string]any) error {
	// Marshal everything before touching state so a bad value cannot leave
	// a partial write behind.
	docs := make(map[string]json.RawMessage, len(changes))
	for path, value := range changes {
		if value == nil {
			docs[path] = nil
			continue
		}
		doc, err := json.Marshal(value)
		if err != nil {
			return err
		}
		docs[path] = doc
	}

	changed := make([]string, 0, len(docs))
	m.mu.Lock()
	for path, doc := range docs {
		if doc == nil {
			delete(m.docs, path)
			for p := range m.docs {
				if strings.HasPrefix(p, path+"/") {
					delete(m.docs, p)
				}
			}
		} else {
			m.docs[path] = doc
		}
		changed = append(changed, path)
	}
	m.mu.Unlock()
	m.hub.broadcast(changed...)
	return nil
}

func (m *memStore) Children(_ context.Context, dir string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	prefix := dir + "/"
	for path, doc := range m.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		key := path[len(prefix):]
		if strings.Contains(key, "/") {
			continue
		}
		entries = append(entries, Entry{Key: key, Path: path, Value: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (m *memStore) Query(ctx context.Context, dir, field, lower, upper string, limit int) ([]Entry, error) {
	children, err := m.Children(ctx, dir)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		entry Entry
		value string
	}
	var hits []ranked
	for _, e := range children {
		v, ok := stringField(e.Value, field)
		if !ok {
			continue
		}
		if v >= lower && v < upper {
			hits = append(hits, ranked{entry: e, value: v})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].value != hits[j].value {
			return hits[i].value < hits[j].value
		}
		return hits[i].entry.Key < hits[j].entry.Key
	})

	entries := make([]Entry, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(entries) >= limit {
			break
		}
		entries = append(entries, h.entry)
	}
	return entries, nil
}

func (m *memStore) Watch(ctx context.Context, path string) (Subscription, error) {
	return m.hub.subscribe(ctx, path, func(context.Context) ([]Entry, error) {
		return m.snapshot(path), nil
	}), nil
}

func (m *memStore) snapshot(root string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for path, doc := range m.docs {
		if !underRoot(path, root) {
			continue
		}
		_, key := splitDir(path)
		entries = append(entries, Entry{Key: key, Path: path, Value: doc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func (m *memStore) NewKey() string {
	return m.pushIDs.next(time.Now())
}

func stringField(doc json.RawMessage, field string) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return "", false
	}
	raw, ok := obj[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
