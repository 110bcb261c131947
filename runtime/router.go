package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/protocol"
	"chat-relay/services"
)

// Router dispatches one inbound frame at a time per connection. It owns the
// canonical Message: sender identity and timestamp are stamped here from the
// session and the server clock, whatever the client declared.
type Router struct {
	registry    *Registry
	gate        *Gate
	history     services.IHistoryService
	presence    *Presence
	moderator   *moderation.Moderator // nil disables the censoring pass
	metrics     *observability.Metrics
	log         *slog.Logger
	searchLimit int
	now         func() time.Time
}

func NewRouter(
	registry *Registry,
	gate *Gate,
	history services.IHistoryService,
	presence *Presence,
	moderator *moderation.Moderator,
	metrics *observability.Metrics,
	log *slog.Logger,
	searchLimit int,
) *Router {
	return &Router{
		registry:    registry,
		gate:        gate,
		history:     history,
		presence:    presence,
		moderator:   moderator,
		metrics:     metrics,
		log:         log,
		searchLimit: searchLimit,
		now:         time.Now,
	}
}

// Dispatch handles one raw frame from a session. Called sequentially per
// connection from its read loop; cross-connection state is serialized inside
// the registry.
func (rt *Router) Dispatch(session *Session, raw []byte) {
	var frame protocol.Inbound
	if err := json.Unmarshal(raw, &frame); err != nil {
		rt.log.Warn("malformed frame", "session", session.ID, "err", err)
		rt.systemMessage(session, "Malformed message received.")
		return
	}

	if session.Role == domain.RoleConnecting {
		rt.dispatchConnecting(session, frame)
		return
	}

	switch frame.Type {
	case protocol.KindAdminMessage, protocol.KindUserMessage:
		rt.relayChat(session, frame, domain.KindText)
	case protocol.KindAdminVoice, protocol.KindUserVoice:
		rt.relayChat(session, frame, domain.KindVoice)
	case protocol.KindAdminFile, protocol.KindUserFile:
		rt.relayChat(session, frame, domain.KindFile)
	case protocol.KindHistoryRequest:
		rt.handleHistoryRequest(session, frame)
	case protocol.KindRosterRequest:
		rt.presence.SendTo(session)
	case protocol.KindSearchRequest:
		rt.handleSearchRequest(session, frame)
	case protocol.KindAdminInfo, protocol.KindUserInfo:
		// one-way role transitions: a live session never re-authenticates
		rt.log.Warn("identity frame on authenticated session ignored",
			"email", session.Email, "kind", frame.Type)
	default:
		rt.log.Warn("unknown message kind", "kind", frame.Type, "email", session.Email)
	}
}

// dispatchConnecting runs the authentication gate. Non-identity frames are
// logged and dropped, never fatal: the connection keeps waiting, without any
// timeout, for a valid identity message.
func (rt *Router) dispatchConnecting(session *Session, frame protocol.Inbound) {
	var err error
	switch frame.Type {
	case protocol.KindAdminInfo:
		err = rt.gate.AdminInfo(session, frame)
	case protocol.KindUserInfo:
		err = rt.gate.UserInfo(session, frame)
	default:
		rt.log.Info("frame before authentication ignored", "session", session.ID, "kind", frame.Type)
		return
	}

	if err != nil {
		session.Transport.CloseWithCode(protocol.CloseCodeFor(err), err.Error())
	}
}

// relayChat builds the canonical message and payload, delivers to the first
// live session matching the recipient email, always echoes to the sender,
// and always appends asynchronously. Delivery, echo and persistence are
// independent: a miss or a failed write never suppresses the others.
func (rt *Router) relayChat(session *Session, frame protocol.Inbound, kind domain.Kind) {
	content := frame.Content
	if rt.moderator != nil && kind == domain.KindText {
		censored, found := rt.moderator.Censor(content)
		if len(found) > 0 {
			info := whatlanggo.Detect(content)
			rt.log.Warn("message content censored",
				"sender", session.Email,
				"words", len(found),
				"lang", info.Lang.Iso6391())
			content = censored
		}
	}

	messageType := frame.MessageType
	if kind == domain.KindText && messageType == "" {
		messageType = "text"
	}

	sentAt := rt.now().UTC()
	message := domain.Message{
		ID:             uuid.New(),
		SenderEmail:    session.Email,
		SenderName:     session.Name,
		RecipientEmail: frame.Recipient,
		Content:        content,
		Kind:           kind,
		AttachmentName: frame.FileName,
		AttachmentType: frame.FileType,
		SentAt:         sentAt,
	}

	payload, err := json.Marshal(protocol.ChatPayload{
		Type:        frame.Type,
		Content:     content,
		FileName:    frame.FileName,
		FileType:    frame.FileType,
		IsImage:     frame.IsImage,
		IsVideo:     frame.IsVideo,
		Sender:      session.Name,
		SenderEmail: session.Email,
		Recipient:   frame.Recipient,
		MessageType: messageType,
		Timestamp:   sentAt.Format(time.RFC3339),
	})
	if err != nil {
		rt.log.Error("chat payload encoding failed", "err", err)
		return
	}

	if recipient := rt.registry.FindByEmail(frame.Recipient); recipient != nil && recipient.Transport.IsOpen() {
		if err := recipient.Transport.Send(payload); err != nil {
			rt.metrics.DeliveryMisses.Inc()
			rt.log.Warn("recipient delivery failed", "recipient", frame.Recipient, "err", err)
		}
	} else {
		rt.metrics.DeliveryMisses.Inc()
		rt.log.Debug("recipient offline, message stored only", "recipient", frame.Recipient)
	}

	// the echo carries the same bytes, so the sender sees the server clock
	if err := session.Transport.Send(payload); err != nil {
		rt.log.Debug("echo skipped", "sender", session.Email, "err", err)
	}

	rt.metrics.RelayedMessages.WithLabelValues(string(kind)).Inc()
	rt.history.Append(message)
}

// handleHistoryRequest answers with the full conversation between the
// requester and the named partner. The query runs off the dispatch loop; by
// the time it settles the session may be gone, so the reply is dropped on a
// dead transport instead of written blindly.
func (rt *Router) handleHistoryRequest(session *Session, frame protocol.Inbound) {
	if frame.UserEmail == "" {
		rt.systemMessage(session, "Partner email required for history.")
		return
	}

	self := session.Email
	go func() {
		messages, err := rt.history.Conversation(self, frame.UserEmail)
		if err != nil {
			rt.log.Error("history query failed", "requester", self, "partner", frame.UserEmail, "err", err)
		}

		if !session.Transport.IsOpen() {
			rt.log.Debug("history reply discarded, session closed", "requester", self)
			return
		}
		rt.send(session, protocol.ChatHistory{
			Type:     protocol.KindChatHistory,
			Messages: toHistoryMessages(messages),
		})
	}()
}

func (rt *Router) handleSearchRequest(session *Session, frame protocol.Inbound) {
	if frame.Query == "" {
		rt.systemMessage(session, "Search query required.")
		return
	}

	self := session.Email
	allConversations := session.Role == domain.RoleAdmin
	go func() {
		messages, err := rt.history.Search(context.Background(), frame.Query, self, allConversations, rt.searchLimit)
		if err != nil {
			rt.log.Error("search failed", "requester", self, "err", err)
		}

		if !session.Transport.IsOpen() {
			rt.log.Debug("search reply discarded, session closed", "requester", self)
			return
		}
		rt.send(session, protocol.SearchResults{
			Type:     protocol.KindSearchResults,
			Messages: toHistoryMessages(messages),
		})
	}()
}

func (rt *Router) systemMessage(session *Session, content string) {
	rt.send(session, protocol.SystemMessage{Type: protocol.KindSystemMessage, Content: content})
}

func (rt *Router) send(session *Session, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		rt.log.Error("reply encoding failed", "err", err)
		return
	}
	if err := session.Transport.Send(payload); err != nil {
		rt.log.Debug("reply skipped", "session", session.ID, "err", err)
	}
}

func toHistoryMessages(messages []domain.Message) []protocol.HistoryMessage {
	return lo.Map(messages, func(m domain.Message, _ int) protocol.HistoryMessage {
		return protocol.HistoryMessage{
			SenderEmail:    m.SenderEmail,
			SenderName:     m.SenderName,
			RecipientEmail: m.RecipientEmail,
			Content:        m.Content,
			MessageType:    string(m.Kind),
			FileName:       m.AttachmentName,
			FileType:       m.AttachmentType,
			Timestamp:      m.SentAt.Format(time.RFC3339),
		}
	})
}
