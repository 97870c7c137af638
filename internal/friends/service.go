// Package friends is the relationship graph: the friend-request state
// machine, the mirrored friend-edge pairs, relationship-aware user search,
// and block records.
//
// Friendship is two directional edge records, one under each participant,
// created and destroyed only here and only through atomic multi-path
// writes. That write path is the single point of truth for the pairing
// invariant: an ACCEPTED request implies exactly one edge on each side.
package friends

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"locketsync/internal/common"
	"locketsync/internal/model"
	"locketsync/internal/store"
)

const searchLimit = 20

// lastUnicodeChar closes the email prefix range: [q, q+) covers every
// string starting with q.
const lastUnicodeChar = "\uf8ff"

type Service struct {
	store store.Store
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// SearchUsers prefix-matches profiles by email and annotates each hit with
// the caller's relationship to it. The three inputs (search hits, all
// requests touching the caller, the caller's edge list) are independent
// reads merged locally, never chained.
func (s *Service) SearchUsers(ctx context.Context, selfID, query string) ([]model.UserProfile, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []model.UserProfile{}, nil
	}

	var (
		wg       sync.WaitGroup
		hits     []store.Entry
		requests []store.Entry
		edges    []store.Entry
		hitsErr  error
		reqErr   error
		edgeErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		hits, hitsErr = s.store.Query(ctx, model.UsersDir, "email", query, query+lastUnicodeChar, searchLimit)
	}()
	go func() {
		defer wg.Done()
		requests, reqErr = s.store.Children(ctx, model.FriendRequestsDir)
	}()
	go func() {
		defer wg.Done()
		edges, edgeErr = s.store.Children(ctx, model.FriendsDir(selfID))
	}()
	wg.Wait()
	for _, err := range []error{hitsErr, reqErr, edgeErr} {
		if err != nil {
			return nil, err
		}
	}

	sent := make(map[string]model.RequestStatus)
	received := make(map[string]model.RequestStatus)
	for _, e := range requests {
		var req model.FriendRequest
		if err := store.Decode(e, &req); err != nil {
			continue
		}
		switch {
		case req.SenderID == selfID:
			sent[req.ReceiverID] = req.Status
		case req.ReceiverID == selfID:
			received[req.SenderID] = req.Status
		}
	}

	friendIDs := make(map[string]bool)
	for _, e := range edges {
		var edge model.FriendEdge
		if err := store.Decode(e, &edge); err != nil {
			continue
		}
		friendIDs[edge.User.UserID] = true
	}

	results := make([]model.UserProfile, 0, len(hits))
	for _, e := range hits {
		var profile model.UserProfile
		if err := store.Decode(e, &profile); err != nil {
			continue
		}
		if profile.UserID == "" {
			profile.UserID = e.Key
		}
		if profile.UserID == selfID {
			continue
		}
		switch {
		case friendIDs[profile.UserID]:
			profile.Relationship = model.RelationAccepted
		case sent[profile.UserID] == model.StatusPending:
			profile.Relationship = model.RelationPendingSent
		case received[profile.UserID] == model.StatusPending:
			profile.Relationship = model.RelationPendingReceived
		default:
			profile.Relationship = model.RelationNone
		}
		results = append(results, profile)
	}
	return results, nil
}

// SendFriendRequest creates a PENDING request from selfID to targetID.
// A PENDING request in either direction between the pair fails the send
// with DuplicateRequest; two crossing requests never coexist, the second
// sender is told to act on the one already waiting for them.
func (s *Service) SendFriendRequest(ctx context.Context, selfID, targetID string) (*model.FriendRequest, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	if err := common.ValidatePrincipalID(targetID); err != nil {
		return nil, err
	}
	if selfID == targetID {
		return nil, common.InvalidInput("cannot send a friend request to yourself")
	}

	existing, err := s.store.Children(ctx, model.FriendRequestsDir)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		var req model.FriendRequest
		if err := store.Decode(e, &req); err != nil {
			continue
		}
		if req.Status != model.StatusPending {
			continue
		}
		if req.SenderID == selfID && req.ReceiverID == targetID {
			return nil, common.DuplicateRequest("friend request already sent")
		}
		if req.SenderID == targetID && req.ReceiverID == selfID {
			return nil, common.DuplicateRequest("this user has already sent you a friend request")
		}
	}

	sender, err := s.profile(ctx, selfID)
	if err != nil {
		return nil, err
	}

	req := &model.FriendRequest{
		ID:                 s.store.NewKey(),
		SenderID:           selfID,
		ReceiverID:         targetID,
		SenderName:         sender.Username,
		SenderProfileImage: sender.ProfileImageURL,
		Timestamp:          s.now().UnixMilli(),
		Status:             model.StatusPending,
	}
	if err := s.store.Put(ctx, model.FriendRequestPath(req.ID), req); err != nil {
		return nil, err
	}
	return req, nil
}

// PendingRequests lists the PENDING requests addressed to selfID, newest
// first.
func (s *Service) PendingRequests(ctx context.Context, selfID string) ([]model.FriendRequest, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	entries, err := s.store.Children(ctx, model.FriendRequestsDir)
	if err != nil {
		return nil, err
	}
	return pendingFor(entries, selfID), nil
}

// AcceptFriendRequest resolves a PENDING request addressed to selfID and
// creates the mirrored edge pair. Status flip and both edge inserts land in
// one atomic multi-path write; there is no state where the request reads
// ACCEPTED with an edge missing.
func (s *Service) AcceptFriendRequest(ctx context.Context, selfID, requestID string) error {
	req, err := s.loadPending(ctx, selfID, requestID)
	if err != nil {
		return err
	}

	sender, err := s.profile(ctx, req.SenderID)
	if err != nil {
		return err
	}
	receiver, err := s.profile(ctx, req.ReceiverID)
	if err != nil {
		return err
	}

	now := s.now().UnixMilli()
	req.Status = model.StatusAccepted
	receiverEdge := model.FriendEdge{
		ID:        s.store.NewKey(),
		User:      *sender,
		AddedDate: now,
	}
	senderEdge := model.FriendEdge{
		ID:        s.store.NewKey(),
		User:      *receiver,
		AddedDate: now,
	}

	return s.store.Update(ctx, map[string]any{
		model.FriendRequestPath(req.ID):                       req,
		model.FriendEdgePath(req.ReceiverID, receiverEdge.ID): &receiverEdge,
		model.FriendEdgePath(req.SenderID, senderEdge.ID):     &senderEdge,
	})
}

// DeclineFriendRequest resolves a PENDING request to DECLINED. No edges are
// created and the request is never reopened.
func (s *Service) DeclineFriendRequest(ctx context.Context, selfID, requestID string) error {
	req, err := s.loadPending(ctx, selfID, requestID)
	if err != nil {
		return err
	}
	req.Status = model.StatusDeclined
	return s.store.Put(ctx, model.FriendRequestPath(req.ID), req)
}

// Friends lists selfID's current edges, newest friendship first.
func (s *Service) Friends(ctx context.Context, selfID string) ([]model.FriendEdge, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	entries, err := s.store.Children(ctx, model.FriendsDir(selfID))
	if err != nil {
		return nil, err
	}
	return decodeEdges(entries), nil
}

// RemoveFriend deletes the caller's edge and its mirror under the peer in
// one atomic write. A missing mirror means the pairing invariant is already
// broken; that surfaces as IntegrityViolation instead of silently removing
// one side. The resolved request is not resurrected; re-friending takes a
// fresh request.
func (s *Service) RemoveFriend(ctx context.Context, selfID, edgeID string) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}

	doc, err := s.store.Get(ctx, model.FriendEdgePath(selfID, edgeID))
	if err != nil {
		if common.CodeOf(err) == common.CodeNotFound {
			return common.NotFound("friend edge not found")
		}
		return err
	}
	var edge model.FriendEdge
	if err := store.Decode(store.Entry{Value: doc}, &edge); err != nil {
		return err
	}
	peerID := edge.User.UserID

	mirror, err := s.store.Children(ctx, model.FriendsDir(peerID))
	if err != nil {
		return err
	}
	changes := map[string]any{
		model.FriendEdgePath(selfID, edgeID): nil,
	}
	found := false
	for _, e := range mirror {
		var peerEdge model.FriendEdge
		if err := store.Decode(e, &peerEdge); err != nil {
			continue
		}
		if peerEdge.User.UserID == selfID {
			changes[model.FriendEdgePath(peerID, e.Key)] = nil
			found = true
		}
	}
	if !found {
		return common.IntegrityViolation("mirrored friend edge missing on peer side")
	}
	return s.store.Update(ctx, changes)
}

// BlockUser appends a block record under the caller. It does not remove an
// existing edge or pending request; full severance is RemoveFriend plus
// decline, combined by the caller.
func (s *Service) BlockUser(ctx context.Context, selfID, targetID string) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}
	if err := common.ValidatePrincipalID(targetID); err != nil {
		return err
	}
	if selfID == targetID {
		return common.InvalidInput("cannot block yourself")
	}

	rec := model.BlockRecord{
		BlockedUserID: targetID,
		BlockedDate:   s.now().UnixMilli(),
	}
	return s.store.Put(ctx, model.BlockPath(selfID, s.store.NewKey()), &rec)
}

// IsBlocked reports whether selfID has a block record against targetID.
func (s *Service) IsBlocked(ctx context.Context, selfID, targetID string) (bool, error) {
	entries, err := s.store.Children(ctx, model.BlockedDir(selfID))
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		var rec model.BlockRecord
		if err := store.Decode(e, &rec); err != nil {
			continue
		}
		if rec.BlockedUserID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) loadPending(ctx context.Context, selfID, requestID string) (*model.FriendRequest, error) {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, model.FriendRequestPath(requestID))
	if err != nil {
		if common.CodeOf(err) == common.CodeNotFound {
			return nil, common.NotFound("friend request not found")
		}
		return nil, err
	}
	var req model.FriendRequest
	if err := store.Decode(store.Entry{Value: doc}, &req); err != nil {
		return nil, err
	}
	if req.ReceiverID != selfID {
		return nil, common.InvalidInput("friend request is not addressed to caller")
	}
	if req.Status != model.StatusPending {
		return nil, common.InvalidInput("friend request already resolved")
	}
	return &req, nil
}

func (s *Service) profile(ctx context.Context, userID string) (*model.UserProfile, error) {
	doc, err := s.store.Get(ctx, model.UserPath(userID))
	if err != nil {
		if common.CodeOf(err) == common.CodeNotFound {
			return nil, common.NotFound("user profile not found: " + userID)
		}
		return nil, err
	}
	var profile model.UserProfile
	if err := store.Decode(store.Entry{Value: doc}, &profile); err != nil {
		return nil, err
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return &profile, nil
}

func pendingFor(entries []store.Entry, selfID string) []model.FriendRequest {
	requests := make([]model.FriendRequest, 0)
	for _, e := range entries {
		var req model.FriendRequest
		if err := store.Decode(e, &req); err != nil {
			log.Printf("friends: skipping undecodable request at %s: %v", e.Path, err)
			continue
		}
		if req.ID == "" {
			req.ID = e.Key
		}
		if req.ReceiverID == selfID && req.Status == model.StatusPending {
			requests = append(requests, req)
		}
	}
	sort.SliceStable(requests, func(i, j int) bool { return requests[i].Timestamp > requests[j].Timestamp })
	return requests
}

func decodeEdges(entries []store.Entry) []model.FriendEdge {
	edges := make([]model.FriendEdge, 0, len(entries))
	for _, e := range entries {
		var edge model.FriendEdge
		if err := store.Decode(e, &edge); err != nil {
			log.Printf("friends: skipping undecodable edge at %s: %v", e.Path, err)
			continue
		}
		if edge.ID == "" {
			edge.ID = e.Key
		}
		edges = append(edges, edge)
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].AddedDate > edges[j].AddedDate })
	return edges
}
