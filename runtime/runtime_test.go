package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
)

// fakeTransport records every frame handed to it. Open unless closed through
// CloseWithCode or flipped explicitly by the test.
type fakeTransport struct {
	mu          sync.Mutex
	frames      [][]byte
	closed      bool
	closeCode   int
	closeReason string
	sendErr     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	t.frames = append(t.frames, buf)
	return nil
}

func (t *fakeTransport) CloseWithCode(code int, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.closeCode = code
	t.closeReason = reason
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

func (t *fakeTransport) sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.frames))
	copy(out, t.frames)
	return out
}

func (t *fakeTransport) lastFrame() []byte {
	frames := t.sent()
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1]
}

// fakeHistory is an in-memory stand-in for the history service.
type fakeHistory struct {
	mu            sync.Mutex
	appended      []domain.Message
	identities    map[string]domain.IdentityRecord
	upsertErr     error
	findErr       error
	conversation  []domain.Message
	searchResults []domain.Message
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{identities: make(map[string]domain.IdentityRecord)}
}

func (h *fakeHistory) Append(message domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appended = append(h.appended, message)
}

func (h *fakeHistory) Conversation(_, _ string) ([]domain.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conversation, nil
}

func (h *fakeHistory) UpsertIdentity(name, email string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.upsertErr != nil {
		return h.upsertErr
	}
	h.identities[email] = domain.IdentityRecord{Name: name, Email: email}
	return nil
}

func (h *fakeHistory) FindIdentity(email string) (domain.IdentityRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.findErr != nil {
		return domain.IdentityRecord{}, h.findErr
	}
	record, ok := h.identities[email]
	if !ok {
		return domain.IdentityRecord{}, errors.ErrIdentityNotFound
	}
	return record, nil
}

func (h *fakeHistory) Search(_ context.Context, _, _ string, _ bool, _ int) ([]domain.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.searchResults, nil
}

func (h *fakeHistory) appendedMessages() []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Message, len(h.appended))
	copy(out, h.appended)
	return out
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func testLogger() *slog.Logger {
	return slog.Default()
}
