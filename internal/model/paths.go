package model

import "fmt"

// Store layout. Hierarchical paths of the form
// <collection>/<ownerId>/<subcollection>/<entityId>; every leaf holds one
// JSON document.

const (
	UsersDir          = "user"
	FriendRequestsDir = "friendRequests"
	friendsRoot       = "friends"
	blockedRoot       = "blockedUsers"
	chatsRoot         = "chats"
)

func UserPath(userID string) string {
	return fmt.Sprintf("%s/%s", UsersDir, userID)
}

func FriendRequestPath(requestID string) string {
	return fmt.Sprintf("%s/%s", FriendRequestsDir, requestID)
}

func FriendsDir(ownerID string) string {
	return fmt.Sprintf("%s/%s", friendsRoot, ownerID)
}

func FriendEdgePath(ownerID, edgeID string) string {
	return fmt.Sprintf("%s/%s/%s", friendsRoot, ownerID, edgeID)
}

func BlockedDir(ownerID string) string {
	return fmt.Sprintf("%s/%s", blockedRoot, ownerID)
}

func BlockPath(ownerID, blockID string) string {
	return fmt.Sprintf("%s/%s/%s", blockedRoot, ownerID, blockID)
}

func MessagesDir(chatID string) string {
	return fmt.Sprintf("%s/%s/messages", chatsRoot, chatID)
}

func MessagePath(chatID, messageID string) string {
	return fmt.Sprintf("%s/%s/messages/%s", chatsRoot, chatID, messageID)
}

func ChatInfoPath(chatID string) string {
	return fmt.Sprintf("%s/%s/info", chatsRoot, chatID)
}

func TypingPath(chatID, userID string) string {
	return fmt.Sprintf("%s/%s/typing/%s", chatsRoot, chatID, userID)
}
