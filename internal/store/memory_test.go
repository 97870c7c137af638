package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locketsync/internal/common"
)

type testDoc struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alice", Email: "alice@example.com"}))

	doc, err := st.Get(ctx, "user/alice")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, Decode(Entry{Value: doc}, &got))
	assert.Equal(t, "Alice", got.Name)

	_, err = st.Get(ctx, "user/bob")
	assert.Equal(t, common.CodeNotFound, common.CodeOf(err))
}

func TestMemoryChildrenOrderedByKey(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "user/carol", testDoc{Name: "Carol"}))
	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alice"}))
	require.NoError(t, st.Put(ctx, "user/bob", testDoc{Name: "Bob"}))
	// Grandchildren are not direct children.
	require.NoError(t, st.Put(ctx, "user/alice/settings", testDoc{}))

	entries, err := st.Children(ctx, "user")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Key)
	assert.Equal(t, "bob", entries[1].Key)
	assert.Equal(t, "carol", entries[2].Key)
}

func TestMemoryQueryRange(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "user/u1", testDoc{Email: "anna@example.com"}))
	require.NoError(t, st.Put(ctx, "user/u2", testDoc{Email: "andrew@example.com"}))
	require.NoError(t, st.Put(ctx, "user/u3", testDoc{Email: "bob@example.com"}))

	entries, err := st.Query(ctx, "user", "email", "an", "an\uf8ff", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Ordered by the indexed field, not the key.
	assert.Equal(t, "u2", entries[0].Key)
	assert.Equal(t, "u1", entries[1].Key)

	entries, err = st.Query(ctx, "user", "email", "an", "an\uf8ff", 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryUpdateAppliesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "friends/a/e1", testDoc{Name: "edge"}))

	err := st.Update(ctx, map[string]any{
		"friends/a/e1": nil,
		"friends/b/e2": testDoc{Name: "mirror"},
	})
	require.NoError(t, err)

	_, err = st.Get(ctx, "friends/a/e1")
	assert.Equal(t, common.CodeNotFound, common.CodeOf(err))
	_, err = st.Get(ctx, "friends/b/e2")
	assert.NoError(t, err)

	// A value that cannot marshal fails the whole change set.
	err = st.Update(ctx, map[string]any{
		"friends/b/e2": nil,
		"friends/c/e3": make(chan int),
	})
	require.Error(t, err)
	_, err = st.Get(ctx, "friends/b/e2")
	assert.NoError(t, err, "failed update must not apply partially")
}

func TestMemoryUpdateDeletesSubtree(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "chats/c1/messages/m1", testDoc{}))
	require.NoError(t, st.Put(ctx, "chats/c1/messages/m2", testDoc{}))

	require.NoError(t, st.Update(ctx, map[string]any{"chats/c1/messages": nil}))

	entries, err := st.Children(ctx, "chats/c1/messages")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryWatchDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Put(ctx, "friends/a/e1", testDoc{Name: "one"}))

	sub, err := st.Watch(ctx, "friends/a")
	require.NoError(t, err)
	defer sub.Close()

	ev := waitEvent(t, sub)
	require.NoError(t, ev.Err)
	assert.Len(t, ev.Entries, 1)

	require.NoError(t, st.Put(ctx, "friends/a/e2", testDoc{Name: "two"}))

	// Snapshots are strictly newer; coalescing may skip intermediates but
	// the final state always arrives.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sub.Events():
			require.NoError(t, ev.Err)
			if len(ev.Entries) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("never observed the second entry")
		}
	}
}

func TestMemoryWatchIgnoresUnrelatedPaths(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	sub, err := st.Watch(ctx, "friends/a")
	require.NoError(t, err)
	defer sub.Close()

	ev := waitEvent(t, sub)
	require.NoError(t, ev.Err)
	assert.Empty(t, ev.Entries)

	require.NoError(t, st.Put(ctx, "friends/b/e1", testDoc{}))

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event for unrelated write: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemoryWatchCloseStopsDelivery(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	sub, err := st.Watch(ctx, "friends/a")
	require.NoError(t, err)

	waitEvent(t, sub)
	sub.Close()

	// Channel closes once the watcher is released.
	for {
		select {
		case _, open := <-sub.Events():
			if !open {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("events channel never closed")
		}
	}
}

func waitEvent(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
