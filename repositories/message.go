//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetConversation(emailA, emailB string) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage is the stored JSON shape. The wire protocol is JSON too, so the
// store shares the codec instead of introducing a second serialization format.
type diskMessage struct {
	ID             uuid.UUID   `json:"id"`
	SenderEmail    string      `json:"senderEmail"`
	SenderName     string      `json:"senderName"`
	RecipientEmail string      `json:"recipientEmail"`
	Content        string      `json:"content"`
	Kind           domain.Kind `json:"kind"`
	AttachmentName string      `json:"attachmentName,omitempty"`
	AttachmentType string      `json:"attachmentType,omitempty"`
	SentAt         int64       `json:"sentAt"` // unix nanoseconds UTC
}

// PairKey identifies the conversation between two identities regardless of
// direction: the emails are ordered lexicographically, so (A,B) and (B,A)
// land under the same prefix.
func PairKey(emailA, emailB string) string {
	if strings.Compare(emailA, emailB) > 0 {
		emailA, emailB = emailB, emailA
	}
	return emailA + "|" + emailB
}

// StoreMessage persists a message in BadgerDB. The key is formatted as
// "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Group both directions of a conversation under one prefix.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  3. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// There is no update or delete path: the log is append-only.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		PairKey(message.SenderEmail, message.RecipientEmail),
		message.SentAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetConversation retrieves every message exchanged between the two
// identities, in either direction, ascending by timestamp. Thanks to the
// padded timestamp in the key, a forward prefix scan returns them already
// sorted. When limitMessages is configured, collection stops there.
func (m MessageRepository) GetConversation(emailA, emailB string) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := []byte(fmt.Sprintf("msg:%s:", PairKey(emailA, emailB)))

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				messages = append(messages, toMessage(dm))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:             message.ID,
		SenderEmail:    message.SenderEmail,
		SenderName:     message.SenderName,
		RecipientEmail: message.RecipientEmail,
		Content:        message.Content,
		Kind:           message.Kind,
		AttachmentName: message.AttachmentName,
		AttachmentType: message.AttachmentType,
		SentAt:         message.SentAt.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:             dm.ID,
		SenderEmail:    dm.SenderEmail,
		SenderName:     dm.SenderName,
		RecipientEmail: dm.RecipientEmail,
		Content:        dm.Content,
		Kind:           dm.Kind,
		AttachmentName: dm.AttachmentName,
		AttachmentType: dm.AttachmentType,
		SentAt:         time.Unix(0, dm.SentAt).UTC(),
	}
}
