// Package presence maintains the ephemeral liveness signals: TTL-based
// typing markers per channel and the profile's online/last-seen fields.
package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"locketsync/internal/common"
	"locketsync/internal/model"
	"locketsync/internal/store"
)

// DefaultTypingTTL is the window after which a typing marker counts as
// expired absent a newer write.
const DefaultTypingTTL = 5 * time.Second

type Service struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(st store.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &Service{store: st, ttl: ttl, now: time.Now}
}

// SetTyping writes (or clears) the caller's typing marker for the channel.
// One store write per call; debouncing keystroke bursts is the caller's
// job, this is only the primitive.
func (s *Service) SetTyping(ctx context.Context, chatID, selfID string, typing bool) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}
	path := model.TypingPath(chatID, selfID)
	if typing {
		return s.store.Put(ctx, path, s.now().UnixMilli())
	}
	return s.store.Update(ctx, map[string]any{path: nil})
}

// TypingEvent reports whether the peer is currently typing, or a terminal
// error ending the feed.
type TypingEvent struct {
	Typing bool
	Err    error
}

// TypingFeed is a live view of one peer's typing marker.
type TypingFeed struct {
	events chan TypingEvent
	sub    store.Subscription
	done   chan struct{}
	once   sync.Once
}

func (f *TypingFeed) Events() <-chan TypingEvent { return f.events }

func (f *TypingFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Close()
	})
}

// ObserveTyping watches the peer's typing marker in the channel. The store
// pushes on write, not on expiry, so the feed re-evaluates the TTL on a
// local timer; without that, an indicator would stick forever after the
// peer's last keystroke.
func (s *Service) ObserveTyping(ctx context.Context, chatID, peerID string) (*TypingFeed, error) {
	if err := common.ValidatePrincipalID(peerID); err != nil {
		return nil, err
	}
	sub, err := s.store.Watch(ctx, model.TypingPath(chatID, peerID))
	if err != nil {
		return nil, err
	}

	f := &TypingFeed{
		events: make(chan TypingEvent, 1),
		sub:    sub,
		done:   make(chan struct{}),
	}
	go s.runTyping(f)
	return f, nil
}

func (s *Service) runTyping(f *TypingFeed) {
	defer close(f.events)

	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()

	var lastWrite int64
	current := false
	first := true

	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.sub.Events():
			if !ok {
				return
			}
			if ev.Err != nil {
				select {
				case f.events <- TypingEvent{Err: ev.Err}:
				case <-f.done:
				}
				return
			}
			lastWrite = markerTime(ev.Entries)
		case <-ticker.C:
		}

		typing := lastWrite > 0 && s.now().UnixMilli()-lastWrite < s.ttl.Milliseconds()
		if first || typing != current {
			first = false
			current = typing
			select {
			case f.events <- TypingEvent{Typing: typing}:
			case <-f.done:
				return
			}
		}
	}
}

// MarkSeen stamps the caller's profile with the current online state and
// last-seen time. Last-write-wins on the whole profile document.
func (s *Service) MarkSeen(ctx context.Context, selfID string, online bool) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}

	doc, err := s.store.Get(ctx, model.UserPath(selfID))
	if err != nil {
		return err
	}
	var profile model.UserProfile
	if err := store.Decode(store.Entry{Value: doc}, &profile); err != nil {
		return err
	}
	profile.IsOnline = online
	profile.LastSeen = s.now().UnixMilli()
	return s.store.Put(ctx, model.UserPath(selfID), &profile)
}

func markerTime(entries []store.Entry) int64 {
	if len(entries) == 0 {
		return 0
	}
	var ms int64
	if err := json.Unmarshal(entries[0].Value, &ms); err != nil {
		return 0
	}
	return ms
}
