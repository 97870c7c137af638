package model

// MessageType classifies the payload of a chat message.
type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageVideo MessageType = "VIDEO"
	MessageFile  MessageType = "FILE"
	MessageAudio MessageType = "AUDIO"
)

// RequestStatus is the lifecycle state of a friend request. A request is
// created PENDING and resolved exactly once to ACCEPTED or DECLINED.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusDeclined RequestStatus = "DECLINED"
)

// Relationship annotates a search result with how the found user relates
// to the caller.
type Relationship string

const (
	RelationNone            Relationship = "NONE"
	RelationPendingSent     Relationship = "PENDING_SENT"
	RelationPendingReceived Relationship = "PENDING_RECEIVED"
	RelationAccepted        Relationship = "ACCEPTED"
)

// UserProfile is the profile record stored under user/<uid>. The profile
// subsystem owns it; this core only reads it, except for the online/lastSeen
// fields which presence updates.
type UserProfile struct {
	UserID          string       `json:"userId"`
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	ProfileImageURL string       `json:"profileImageUrl,omitempty"`
	IsOnline        bool         `json:"isOnline"`
	LastSeen        int64        `json:"lastSeen"`
	Relationship    Relationship `json:"requestStatus,omitempty"`
}

// Message is one entry of a channel's append-only message log. Timestamp is
// sender wall clock in milliseconds and defines display order.
type Message struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId"`
	Content    string      `json:"content"`
	Timestamp  int64       `json:"timestamp"`
	IsRead     bool        `json:"isRead"`
	Type       MessageType `json:"messageType"`
	FileURL    string      `json:"fileUrl,omitempty"`
	FileName   string      `json:"fileName,omitempty"`
}

// ChatSummary is the denormalized last-message record at chats/<id>/info.
// It is written after the message itself, so it can briefly lag the log;
// the next message overwrites it.
type ChatSummary struct {
	ChatID            string   `json:"chatId"`
	Participants      []string `json:"participants"`
	LastMessage       string   `json:"lastMessage"`
	LastMessageTime   int64    `json:"lastMessageTime"`
	LastMessageSender string   `json:"lastMessageSender"`
}

// FriendRequest lives at friendRequests/<id>. Immutable once written except
// for Status, which the receiver resolves exactly once.
type FriendRequest struct {
	ID                 string        `json:"id"`
	SenderID           string        `json:"senderId"`
	ReceiverID         string        `json:"receiverId"`
	SenderName         string        `json:"senderName"`
	SenderProfileImage string        `json:"senderProfileImage,omitempty"`
	Timestamp          int64         `json:"timestamp"`
	Status             RequestStatus `json:"status"`
}

// FriendEdge is one directional half of a friendship, stored under its
// owner at friends/<ownerId>/<edgeId>. Edges are always created and deleted
// in mirrored pairs by a single atomic multi-path write.
type FriendEdge struct {
	ID          string      `json:"id"`
	User        UserProfile `json:"user"`
	AddedDate   int64       `json:"addedDate"`
	IsOnline    bool        `json:"isOnline"`
	LastSeen    int64       `json:"lastSeen"`
	LastMessage string      `json:"lastMessage,omitempty"`
}

// BlockRecord lives at blockedUsers/<ownerId>/<blockId>. Blocking does not
// cascade into edge or request removal.
type BlockRecord struct {
	BlockedUserID string `json:"blockedUserId"`
	BlockedDate   int64  `json:"blockedDate"`
}
