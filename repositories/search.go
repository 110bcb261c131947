//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"chat-relay/domain"
)

type ISearchIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, terms, requesterEmail string, allConversations bool, limit int) ([]domain.Message, error)
}

// SearchIndex maintains a Bluge full-text index over message content,
// alongside the BadgerDB log. The index is a secondary structure: the Badger
// log stays the source of truth and index failures are never fatal to relay.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index adds one message document. Every field needed to rebuild the message
// is stored, so search replies don't need a second Badger lookup.
func (s *SearchIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("senderEmail", message.SenderEmail).StoreValue()).
		AddField(bluge.NewKeywordField("senderName", message.SenderName).StoreValue()).
		AddField(bluge.NewKeywordField("recipientEmail", message.RecipientEmail).StoreValue()).
		AddField(bluge.NewKeywordField("kind", string(message.Kind)).StoreValue()).
		AddField(bluge.NewKeywordField("sentAt", message.SentAt.UTC().Format(time.RFC3339Nano)).StoreValue())

	return s.writer.Update(doc.ID(), doc)
}

// Search returns up to limit messages matching terms, best score first.
// Unless allConversations is set, results are restricted to messages the
// requester sent or received.
func (s *SearchIndex) Search(ctx context.Context, terms, requesterEmail string, allConversations bool, limit int) ([]domain.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("closing index reader failed", "err", err)
		}
	}()

	match := bluge.NewMatchQuery(terms).SetField("content")

	var query bluge.Query = match
	if !allConversations {
		query = bluge.NewBooleanQuery().
			AddMust(match).
			AddShould(bluge.NewTermQuery(requesterEmail).SetField("senderEmail")).
			AddShould(bluge.NewTermQuery(requesterEmail).SetField("recipientEmail")).
			SetMinShould(1)
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			return messages, nil
		}

		var message domain.Message
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, err := uuid.Parse(string(value)); err == nil {
					message.ID = id
				}
			case "content":
				message.Content = string(value)
			case "senderEmail":
				message.SenderEmail = string(value)
			case "senderName":
				message.SenderName = string(value)
			case "recipientEmail":
				message.RecipientEmail = string(value)
			case "kind":
				message.Kind = domain.Kind(value)
			case "sentAt":
				if at, err := time.Parse(time.RFC3339Nano, string(value)); err == nil {
					message.SentAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
}
