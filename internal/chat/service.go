package chat

import (
	"context"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"locketsync/internal/blob"
	"locketsync/internal/common"
	"locketsync/internal/model"
	"locketsync/internal/store"
)

// Service is the ordered message stream between two principals: an
// append-only log per channel, a denormalized last-message summary, and
// idempotent read-marking.
type Service struct {
	store store.Store
	blob  blob.Storage
	now   func() time.Time
}

func NewService(st store.Store, b blob.Storage) *Service {
	return &Service{store: st, blob: b, now: time.Now}
}

// SendMessage appends a text message to the channel shared with peerID.
// Blank content is rejected locally before any store traffic.
func (s *Service) SendMessage(ctx context.Context, selfID, peerID, content string) (*model.Message, error) {
	return s.send(ctx, selfID, peerID, strings.TrimSpace(content), model.MessageText, "", "")
}

// SendMediaMessage uploads the media first and only writes the message once
// a URL came back. A failed upload surfaces UploadFailed and no partial
// message ever appears in the stream.
func (s *Service) SendMediaMessage(ctx context.Context, selfID, peerID string, content io.Reader, filename, mimeType string, typ model.MessageType) (*model.Message, error) {
	if typ == model.MessageText {
		return nil, common.InvalidInput("media message requires a media type")
	}
	if err := validatePair(selfID, peerID); err != nil {
		return nil, err
	}

	url, err := s.blob.Upload(ctx, filename, mimeType, selfID, content)
	if err != nil {
		return nil, common.UploadFailed("media upload failed", err)
	}
	return s.send(ctx, selfID, peerID, mediaLabel(typ), typ, url, filename)
}

func (s *Service) send(ctx context.Context, selfID, peerID, content string, typ model.MessageType, fileURL, fileName string) (*model.Message, error) {
	if err := validatePair(selfID, peerID); err != nil {
		return nil, err
	}
	if typ == model.MessageText && content == "" {
		return nil, common.InvalidInput("message content cannot be empty")
	}

	chatID := DeriveChannelID(selfID, peerID)
	msg := &model.Message{
		ID:         s.store.NewKey(),
		SenderID:   selfID,
		ReceiverID: peerID,
		Content:    content,
		Timestamp:  s.now().UnixMilli(),
		IsRead:     false,
		Type:       typ,
		FileURL:    fileURL,
		FileName:   fileName,
	}

	if err := s.store.Put(ctx, model.MessagePath(chatID, msg.ID), msg); err != nil {
		return nil, err
	}

	// Separate write, not transactional with the message: a crash in
	// between leaves a stale summary that the next message overwrites.
	info := model.ChatSummary{
		ChatID:            chatID,
		Participants:      []string{selfID, peerID},
		LastMessage:       content,
		LastMessageTime:   msg.Timestamp,
		LastMessageSender: selfID,
	}
	if err := s.store.Put(ctx, model.ChatInfoPath(chatID), info); err != nil {
		log.Printf("chat %s: summary update failed: %v", chatID, err)
	}

	return msg, nil
}

// Messages returns the channel's current log ordered by sender timestamp.
func (s *Service) Messages(ctx context.Context, chatID string) ([]model.Message, error) {
	entries, err := s.store.Children(ctx, model.MessagesDir(chatID))
	if err != nil {
		return nil, err
	}
	return decodeMessages(entries), nil
}

// Summary returns the channel's last-message record, or NotFound before the
// first message.
func (s *Service) Summary(ctx context.Context, chatID string) (*model.ChatSummary, error) {
	doc, err := s.store.Get(ctx, model.ChatInfoPath(chatID))
	if err != nil {
		return nil, err
	}
	var info model.ChatSummary
	if err := store.Decode(store.Entry{Value: doc}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// MarkRead flips isRead on every currently-known message addressed to
// selfID, one write per message. Re-invoking on an already-read set is a
// no-op.
func (s *Service) MarkRead(ctx context.Context, chatID, selfID string) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}

	msgs, err := s.Messages(ctx, chatID)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if msg.ReceiverID != selfID || msg.IsRead {
			continue
		}
		msg.IsRead = true
		if err := s.store.Put(ctx, model.MessagePath(chatID, msg.ID), &msg); err != nil {
			return err
		}
	}
	return nil
}

// MessagesEvent is one delivery on a message feed: the full current log,
// ordered, or a terminal error that ends the feed.
type MessagesEvent struct {
	Messages []model.Message
	Err      error
}

// MessageFeed is a live subscription on a channel's log. Close it when the
// conversation leaves the screen or the watcher leaks.
type MessageFeed struct {
	events chan MessagesEvent
	sub    store.Subscription
	done   chan struct{}
	once   sync.Once
}

func (f *MessageFeed) Events() <-chan MessagesEvent { return f.events }

func (f *MessageFeed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Close()
	})
}

// ObserveMessages subscribes to the channel's message subtree. Every event
// carries the full current ordered list, not a delta; consumers diff
// themselves if they want incremental updates.
func (s *Service) ObserveMessages(ctx context.Context, chatID string) (*MessageFeed, error) {
	sub, err := s.store.Watch(ctx, model.MessagesDir(chatID))
	if err != nil {
		return nil, err
	}

	f := &MessageFeed{
		events: make(chan MessagesEvent, 1),
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
				out := MessagesEvent{Err: ev.Err}
				if ev.Err == nil {
					out.Messages = decodeMessages(ev.Entries)
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

func decodeMessages(entries []store.Entry) []model.Message {
	msgs := make([]model.Message, 0, len(entries))
	for _, e := range entries {
		var msg model.Message
		if err := store.Decode(e, &msg); err != nil {
			log.Printf("chat: skipping undecodable message at %s: %v", e.Path, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	// Order is sender wall clock, not arrival order. Two peers with skewed
	// clocks can interleave out of causal order; that is a documented
	// limitation, no logical clock is layered on top.
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })
	return msgs
}

func validatePair(selfID, peerID string) error {
	if err := common.ValidatePrincipalID(selfID); err != nil {
		return err
	}
	if err := common.ValidatePrincipalID(peerID); err != nil {
		return err
	}
	if selfID == peerID {
		return common.InvalidInput("cannot open a channel with yourself")
	}
	return nil
}

func mediaLabel(typ model.MessageType) string {
	switch typ {
	case model.MessageImage:
		return "Image"
	case model.MessageVideo:
		return "Video"
	case model.MessageAudio:
		return "Audio"
	default:
		return "File"
	}
}
