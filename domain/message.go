// Package domain contains core concepts of the relay system.
// This file defines the canonical Message event.
// Messages are immutable once stamped by the router.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes what the message content carries: plain text, or an
// opaque reference to an uploaded voice or file attachment.
type Kind string

const (
	KindText  Kind = "text"
	KindVoice Kind = "voice"
	KindFile  Kind = "file"
)

// Message represents an immutable chat event. SenderEmail, SenderName and
// SentAt are always assigned from the authenticated session and the server
// clock; client-declared sender fields never reach this struct.
type Message struct {
	ID             uuid.UUID
	SenderEmail    string
	SenderName     string
	RecipientEmail string
	Content        string
	Kind           Kind
	AttachmentName string
	AttachmentType string
	SentAt         time.Time
}
