package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"locketsync/internal/common"
)

func newGormTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One pooled connection, or every conn would see its own empty
	// in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	st, err := NewGorm(db)
	require.NoError(t, err)
	return st
}

func TestGormPutGet(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alice", Email: "alice@example.com"}))

	doc, err := st.Get(ctx, "user/alice")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, Decode(Entry{Value: doc}, &got))
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = st.Get(ctx, "user/nobody")
	assert.Equal(t, common.CodeNotFound, common.CodeOf(err))
}

func TestGormPutOverwrites(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alice"}))
	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alicia"}))

	doc, err := st.Get(ctx, "user/alice")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, Decode(Entry{Value: doc}, &got))
	assert.Equal(t, "Alicia", got.Name)
}

func TestGormChildrenOrderedByKey(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "user/carol", testDoc{Name: "Carol"}))
	require.NoError(t, st.Put(ctx, "user/alice", testDoc{Name: "Alice"}))
	require.NoError(t, st.Put(ctx, "user/bob", testDoc{Name: "Bob"}))
	require.NoError(t, st.Put(ctx, "user/alice/settings", testDoc{}))

	entries, err := st.Children(ctx, "user")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Key)
	assert.Equal(t, "bob", entries[1].Key)
	assert.Equal(t, "carol", entries[2].Key)
}

func TestGormQueryRangeOnJSONField(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "user/u1", testDoc{Email: "anna@example.com"}))
	require.NoError(t, st.Put(ctx, "user/u2", testDoc{Email: "andrew@example.com"}))
	require.NoError(t, st.Put(ctx, "user/u3", testDoc{Email: "bob@example.com"}))

	entries, err := st.Query(ctx, "user", "email", "an", "an\uf8ff", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u2", entries[0].Key)
	assert.Equal(t, "u1", entries[1].Key)

	entries, err = st.Query(ctx, "user", "email", "an", "an\uf8ff", 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = st.Query(ctx, "user", "email; DROP TABLE store_entries", "a", "b", 0)
	assert.Error(t, err)
}

func TestGormUpdateAtomicWithSubtreeDelete(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "friendRequests/r1", testDoc{Name: "pending"}))
	require.NoError(t, st.Put(ctx, "chats/c1/messages/m1", testDoc{}))
	require.NoError(t, st.Put(ctx, "chats/c1/messages/m2", testDoc{}))

	err := st.Update(ctx, map[string]any{
		"friendRequests/r1": testDoc{Name: "accepted"},
		"friends/a/e1":      testDoc{Name: "edge"},
		"chats/c1/messages": nil,
	})
	require.NoError(t, err)

	doc, err := st.Get(ctx, "friendRequests/r1")
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, Decode(Entry{Value: doc}, &got))
	assert.Equal(t, "accepted", got.Name)

	_, err = st.Get(ctx, "friends/a/e1")
	assert.NoError(t, err)

	entries, err := st.Children(ctx, "chats/c1/messages")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGormWatchDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	st := newGormTestStore(t)

	require.NoError(t, st.Put(ctx, "friends/a/e1", testDoc{Name: "one"}))

	sub, err := st.Watch(ctx, "friends/a")
	require.NoError(t, err)
	defer sub.Close()

	ev := waitEvent(t, sub)
	require.NoError(t, ev.Err)
	assert.Len(t, ev.Entries, 1)

	require.NoError(t, st.Put(ctx, "friends/a/e2", testDoc{Name: "two"}))

	ev = waitEvent(t, sub)
	require.NoError(t, ev.Err)
	assert.Len(t, ev.Entries, 2)
}
