package friends

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locketsync/internal/common"
	"locketsync/internal/model"
	"locketsync/internal/store"
)

func newFriendsService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemory()
	return NewService(st), st
}

func seedProfile(t *testing.T, st store.Store, id, name, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, model.UserPath(id), model.UserProfile{
		UserID:   id,
		Username: name,
		Email:    email,
	}))
}

func TestSendFriendRequest(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", req.SenderID)
	assert.Equal(t, "bob", req.ReceiverID)
	assert.Equal(t, "Alice", req.SenderName)
	assert.Equal(t, model.StatusPending, req.Status)
	assert.NotEmpty(t, req.ID)

	pending, err := svc.PendingRequests(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.ID, pending[0].ID)

	pending, err = svc.PendingRequests(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending, "sender has no incoming request")
}

func TestSendFriendRequestRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	_, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = svc.SendFriendRequest(ctx, "alice", "bob")
	assert.Equal(t, common.CodeDuplicateRequest, common.CodeOf(err))

	// The crossing direction is rejected too: bob should act on the request
	// already waiting for him.
	_, err = svc.SendFriendRequest(ctx, "bob", "alice")
	assert.Equal(t, common.CodeDuplicateRequest, common.CodeOf(err))
}

func TestSendFriendRequestRejectsSelfAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFriendsService(t)

	_, err := svc.SendFriendRequest(ctx, "alice", "alice")
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))

	_, err = svc.SendFriendRequest(ctx, "alice", "no_good")
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))
}

func TestAcceptFriendRequestCreatesMirroredEdges(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", req.ID))

	bobFriends, err := svc.Friends(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)
	assert.Equal(t, "alice", bobFriends[0].User.UserID)

	aliceFriends, err := svc.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, "bob", aliceFriends[0].User.UserID)

	pending, err := svc.PendingRequests(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Resolved exactly once: accepting again fails.
	err = svc.AcceptFriendRequest(ctx, "bob", req.ID)
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))
}

func TestAcceptFriendRequestOnlyByReceiver(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	err = svc.AcceptFriendRequest(ctx, "alice", req.ID)
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))

	err = svc.AcceptFriendRequest(ctx, "bob", "no-such-request")
	assert.Equal(t, common.CodeNotFound, common.CodeOf(err))
}

func TestDeclineFriendRequest(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.DeclineFriendRequest(ctx, "bob", req.ID))

	pending, err := svc.PendingRequests(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, pending)

	friends, err := svc.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, friends, "decline creates no edges")

	// Never reopened.
	err = svc.DeclineFriendRequest(ctx, "bob", req.ID)
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))

	// A fresh request after a decline is allowed.
	_, err = svc.SendFriendRequest(ctx, "alice", "bob")
	assert.NoError(t, err)
}

func TestRemoveFriendDeletesBothSides(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", req.ID))

	bobFriends, err := svc.Friends(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobFriends, 1)

	require.NoError(t, svc.RemoveFriend(ctx, "bob", bobFriends[0].ID))

	bobFriends, err = svc.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobFriends)

	aliceFriends, err := svc.Friends(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceFriends, "mirror edge removed in the same write")
}

func TestRemoveFriendMissingMirror(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)

	// A lone edge with no mirror under the peer: the pairing invariant is
	// already broken and removal must say so rather than delete one side.
	edge := model.FriendEdge{
		ID:        "e1",
		User:      model.UserProfile{UserID: "alice"},
		AddedDate: time.Now().UnixMilli(),
	}
	require.NoError(t, st.Put(ctx, model.FriendEdgePath("bob", "e1"), &edge))

	err := svc.RemoveFriend(ctx, "bob", "e1")
	assert.Equal(t, common.CodeIntegrityViolation, common.CodeOf(err))

	// The caller's edge is still there.
	friends, err := svc.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestRemoveFriendUnknownEdge(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFriendsService(t)

	err := svc.RemoveFriend(ctx, "bob", "nope")
	assert.Equal(t, common.CodeNotFound, common.CodeOf(err))
}

func TestSearchUsersAnnotatesRelationships(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "alpha-bob@example.com")
	seedProfile(t, st, "carol", "Carol", "alpha-carol@example.com")
	seedProfile(t, st, "dave", "Dave", "alpha-dave@example.com")
	seedProfile(t, st, "erin", "Erin", "alpha-erin@example.com")

	// bob: accepted friend; carol: alice -> carol pending; dave: dave ->
	// alice pending; erin: no relation.
	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", req.ID))
	_, err = svc.SendFriendRequest(ctx, "alice", "carol")
	require.NoError(t, err)
	_, err = svc.SendFriendRequest(ctx, "dave", "alice")
	require.NoError(t, err)

	results, err := svc.SearchUsers(ctx, "alice", "alpha-")
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := make(map[string]model.Relationship, len(results))
	for _, p := range results {
		byID[p.UserID] = p.Relationship
	}
	assert.Equal(t, model.RelationAccepted, byID["bob"])
	assert.Equal(t, model.RelationPendingSent, byID["carol"])
	assert.Equal(t, model.RelationPendingReceived, byID["dave"])
	assert.Equal(t, model.RelationNone, byID["erin"])
}

func TestSearchUsersExcludesSelfAndBlankQuery(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")

	results, err := svc.SearchUsers(ctx, "alice", "alice@")
	require.NoError(t, err)
	assert.Empty(t, results, "caller never appears in their own results")

	results, err = svc.SearchUsers(ctx, "alice", "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBlockUser(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	require.NoError(t, svc.BlockUser(ctx, "alice", "bob"))

	blocked, err := svc.IsBlocked(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Not symmetric.
	blocked, err = svc.IsBlocked(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, blocked)

	err = svc.BlockUser(ctx, "alice", "alice")
	assert.Equal(t, common.CodeInvalidInput, common.CodeOf(err))
}

func TestBlockUserKeepsEdges(t *testing.T) {
	ctx := context.Background()
	svc, st := newFriendsService(t)
	seedProfile(t, st, "alice", "Alice", "alice@example.com")
	seedProfile(t, st, "bob", "Bob", "bob@example.com")

	req, err := svc.SendFriendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(ctx, "bob", req.ID))

	require.NoError(t, svc.BlockUser(ctx, "bob", "alice"))

	friends, err := svc.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, friends, 1, "blocking does not cascade into edge removal")
}
