//go:generate go run go.uber.org/mock/mockgen -source=history_service.go -destination=../mocks/mock_history_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"sync"

	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/repositories"
)

// IHistoryService is the facade over the durable store: the append-only
// message log, the identity directory and the search index.
type IHistoryService interface {
	Append(message domain.Message)
	Conversation(emailA, emailB string) ([]domain.Message, error)
	UpsertIdentity(name, email string) error
	FindIdentity(email string) (domain.IdentityRecord, error)
	Search(ctx context.Context, terms, requesterEmail string, allConversations bool, limit int) ([]domain.Message, error)
}

type HistoryService struct {
	messages   repositories.IMessageRepository
	identities repositories.IIdentityRepository
	index      repositories.ISearchIndex
	metrics    *observability.Metrics
	log        *slog.Logger
	pending    sync.WaitGroup
}

func NewHistoryService(
	messages repositories.IMessageRepository,
	identities repositories.IIdentityRepository,
	index repositories.ISearchIndex,
	metrics *observability.Metrics,
	log *slog.Logger,
) *HistoryService {
	return &HistoryService{
		messages:   messages,
		identities: identities,
		index:      index,
		metrics:    metrics,
		log:        log,
	}
}

// Append records the message durably, fire-and-forget. A failed write is
// counted and logged, never surfaced: availability of the realtime path wins
// over durability, the caller has already relayed the message.
func (s *HistoryService) Append(message domain.Message) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		if err := s.messages.StoreMessage(message); err != nil {
			s.metrics.PersistFailures.Inc()
			s.log.Error("message append failed",
				"sender", message.SenderEmail,
				"recipient", message.RecipientEmail,
				"err", err)
		}
		if err := s.index.Index(message); err != nil {
			s.log.Warn("message indexing failed", "id", message.ID, "err", err)
		}
	}()
}

// Drain blocks until every in-flight append has settled. Called on shutdown
// before the store closes, and by tests.
func (s *HistoryService) Drain() {
	s.pending.Wait()
}

// Conversation returns both directions between the two identities, ascending
// by timestamp, fully materialized.
func (s *HistoryService) Conversation(emailA, emailB string) ([]domain.Message, error) {
	return s.messages.GetConversation(emailA, emailB)
}

func (s *HistoryService) UpsertIdentity(name, email string) error {
	return s.identities.Upsert(name, email)
}

func (s *HistoryService) FindIdentity(email string) (domain.IdentityRecord, error) {
	return s.identities.FindByEmail(email)
}

func (s *HistoryService) Search(ctx context.Context, terms, requesterEmail string, allConversations bool, limit int) ([]domain.Message, error) {
	return s.index.Search(ctx, terms, requesterEmail, allConversations, limit)
}
