package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// snapshotFunc recomputes the full ordered snapshot of a watched subtree.
type snapshotFunc func(ctx context.Context) ([]Entry, error)

// hub fans committed writes out to subscriptions. Both store
// implementations share it: after a write lands they call broadcast with
// the changed paths and every subscription rooted at or above one of them
// re-reads its snapshot.
type hub struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

func newHub() *hub {
	return &hub{subs: make(map[string]*subscription)}
}

type subscription struct {
	id     string
	root   string
	events chan Event
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
	hub    *hub
}

func (s *subscription) Events() <-chan Event { return s.events }

func (s *subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}

func (h *hub) subscribe(ctx context.Context, root string, snapshot snapshotFunc) *subscription {
	s := &subscription{
		id:     uuid.NewString(),
		root:   root,
		events: make(chan Event, 1),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		hub:    h,
	}

	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()

	// Prime one notification so the subscriber receives the current
	// snapshot before any change arrives.
	s.notify <- struct{}{}

	go s.run(ctx, snapshot)
	return s
}

func (s *subscription) run(ctx context.Context, snapshot snapshotFunc) {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.deliver(Event{Err: ctx.Err()})
			s.Close()
			return
		case <-s.notify:
		}

		entries, err := snapshot(ctx)
		if err != nil {
			// Terminal: the feed ends and the caller must resubscribe.
			s.deliver(Event{Err: err})
			s.Close()
			return
		}
		if !s.deliver(Event{Entries: entries}) {
			return
		}
	}
}

func (s *subscription) deliver(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// broadcast wakes every subscription whose root covers one of the changed
// paths. Notifications coalesce: a subscriber that has not yet consumed the
// previous wake-up sees a single, newer snapshot.
func (h *hub) broadcast(paths ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		for _, p := range paths {
			if underRoot(p, s.root) {
				select {
				case s.notify <- struct{}{}:
				default:
				}
				break
			}
		}
	}
}
