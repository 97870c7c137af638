package friends

import (
	"context"
	"sync"

	"locketsync/internal/common"
	"locketsync/internal/model"
	"locketsync/internal/store"
)

// RequestsEvent carries the current PENDING requests addressed to the
// observer, or a terminal error ending the feed.
type RequestsEvent struct {
	Requests []model.FriendRequest
	Err      error
}

type RequestFeed struct {
	events chan RequestsEvent
	sub    store.Subscription
	done   chan struct{}
	once   sync.Once
}

func (f *RequestFeed) Events() <-chan RequestsEvent { return f.events }

func (f *RequestFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Close()
	})
}

// ObserveFriendRequests opens one subtree subscription on the request
// collection and emits the caller's pending set on every change. The feed
// holds a live watcher until Close.
func (s *Service) ObserveFriendRequests(ctx context.Context, selfID string) (*RequestFeed, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	sub, err := s.store.Watch(ctx, model.FriendRequestsDir)
	if err != nil {
		return nil, err
	}

	f := &RequestFeed{
		events: make(chan RequestsEvent, 1),
		sub:    sub,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(f.events)
		for {
			select {
			case <-f.done:
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				out := RequestsEvent{Err: ev.Err}
				if ev.Err == nil {
					out.Requests = pendingFor(ev.Entries, selfID)
				}
				select {
				case f.events <- out:
				case <-f.done:
					return
				}
				if ev.Err != nil {
					return
				}
			}
		}
	}()
	return f, nil
}

// FriendsEvent carries the observer's current edge list, or a terminal
// error ending the feed.
type FriendsEvent struct {
	Friends []model.FriendEdge
	Err     error
}

type FriendFeed struct {
	events chan FriendsEvent
	sub    store.Subscription
	done   chan struct{}
	once   sync.Once
}

func (f *FriendFeed) Events() <-chan FriendsEvent { return f.events }

func (f *FriendFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Close()
	})
}

// ObserveFriends watches the caller's own edge subtree. Edge pushes and
// request-status pushes for the same accept may arrive in either order
// relative to ObserveFriendRequests; the two feeds are independent.
func (s *Service) ObserveFriends(ctx context.Context, selfID string) (*FriendFeed, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	sub, err := s.store.Watch(ctx, model.FriendsDir(selfID))
	if err != nil {
		return nil, err
	}

	f := &FriendFeed{
		events: make(chan FriendsEvent, 1),
		sub:    sub,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(f.events)
		for {
			select {
			case <-f.done:
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				out := FriendsEvent{Err: ev.Err}
				if ev.Err == nil {
					out.Friends = decodeEdges(ev.Entries)
				}
				select {
				case f.events <- out:
				case <-f.done:
					return
				}
				if ev.Err != nil {
					return
				}
			}
		}
	}()
	return f, nil
}
