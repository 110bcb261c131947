// Package protocol defines the JSON frames exchanged over the socket and the
// application close codes used when a connection is rejected.
package protocol

import (
	stderrors "errors"

	"chat-relay/errors"
)

// Inbound message kinds (client to server).
const (
	KindAdminInfo      = "admin-info"
	KindUserInfo       = "user-info"
	KindAdminMessage   = "admin-message"
	KindUserMessage    = "user-message"
	KindAdminVoice     = "admin-voice"
	KindUserVoice      = "user-voice"
	KindAdminFile      = "admin-file"
	KindUserFile       = "user-file"
	KindHistoryRequest = "request-chat-history"
	KindRosterRequest  = "request-user-list"
	KindSearchRequest  = "search-messages"
)

// Outbound message kinds (server to client).
const (
	KindAuthSuccess   = "auth-success"
	KindChatHistory   = "chat-history"
	KindUserList      = "user-list"
	KindSystemMessage = "system-message"
	KindSearchResults = "search-results"
)

// Application close codes. The server never retries after sending one.
const (
	CloseAdminSlotTaken          = 4000
	CloseInvalidAdminCredentials = 4001
	CloseMissingIdentity         = 4002
	ClosePersistenceError        = 4003
)

// Inbound is the loosely-typed client frame. Only the fields relevant to the
// declared Type are read; the rest stay zero. Sender, SenderEmail and
// Timestamp are accepted by the decoder and deliberately never read: the
// router stamps those from the session and the server clock.
type Inbound struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Content     string `json:"content,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	FileType    string `json:"fileType,omitempty"`
	IsImage     bool   `json:"isImage,omitempty"`
	IsVideo     bool   `json:"isVideo,omitempty"`
	UserEmail   string `json:"userEmail,omitempty"`
	Query       string `json:"query,omitempty"`
	Sender      string `json:"sender,omitempty"`
	SenderEmail string `json:"senderEmail,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// ChatPayload is the canonical relayed frame. The same bytes go to the
// recipient and back to the sender, so both views agree on the server-set
// sender and timestamp.
type ChatPayload struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	FileName    string `json:"fileName,omitempty"`
	FileType    string `json:"fileType,omitempty"`
	IsImage     bool   `json:"isImage,omitempty"`
	IsVideo     bool   `json:"isVideo,omitempty"`
	Sender      string `json:"sender"`
	SenderEmail string `json:"senderEmail"`
	Recipient   string `json:"recipient"`
	MessageType string `json:"messageType,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type AuthSuccess struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

type RosterUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  string `json:"type"`
}

type UserList struct {
	Type  string       `json:"type"`
	Users []RosterUser `json:"users"`
}

// HistoryMessage mirrors one persisted message row in replies to
// request-chat-history and search-messages.
type HistoryMessage struct {
	SenderEmail    string `json:"senderEmail"`
	SenderName     string `json:"senderName"`
	RecipientEmail string `json:"recipientEmail"`
	Content        string `json:"content"`
	MessageType    string `json:"messageType"`
	FileName       string `json:"fileName,omitempty"`
	FileType       string `json:"fileType,omitempty"`
	Timestamp      string `json:"timestamp"`
}

type ChatHistory struct {
	Type     string           `json:"type"`
	Messages []HistoryMessage `json:"messages"`
}

type SearchResults struct {
	Type     string           `json:"type"`
	Messages []HistoryMessage `json:"messages"`
}

type SystemMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// CloseCodeFor maps an authentication failure to its application close code.
// Unmapped errors fall back to the persistence code, the generic fatal one.
func CloseCodeFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrAdminSlotTaken):
		return CloseAdminSlotTaken
	case stderrors.Is(err, errors.ErrInvalidAdminCredentials):
		return CloseInvalidAdminCredentials
	case stderrors.Is(err, errors.ErrMissingIdentity):
		return CloseMissingIdentity
	default:
		return ClosePersistenceError
	}
}
