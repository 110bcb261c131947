package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewSearchIndex(writer, slog.Default())
}

func Test_Search_Matches_Content(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	at := time.Now().UTC()

	req.NoError(index.Index(textMessage("alice@x", "a@x", "the invoice is overdue", at)))
	req.NoError(index.Index(textMessage("alice@x", "a@x", "see you tomorrow", at.Add(time.Second))))

	results, err := index.Search(context.Background(), "invoice", "a@x", true, 10)
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("the invoice is overdue", results[0].Content)
	req.Equal("alice@x", results[0].SenderEmail)
	req.Equal(domain.KindText, results[0].Kind)
}

func Test_Search_Scopes_To_Own_Conversations(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	at := time.Now().UTC()

	// Given the same keyword in two unrelated conversations
	req.NoError(index.Index(textMessage("alice@x", "a@x", "project update", at)))
	req.NoError(index.Index(textMessage("bob@x", "a@x", "project kickoff", at.Add(time.Second))))

	// When Alice searches without the all-conversations privilege
	results, err := index.Search(context.Background(), "project", "alice@x", false, 10)
	req.NoError(err)

	// Then only her own exchange is visible
	req.Len(results, 1)
	req.Equal("alice@x", results[0].SenderEmail)

	// And the privileged search sees both
	results, err = index.Search(context.Background(), "project", "a@x", true, 10)
	req.NoError(err)
	req.Len(results, 2)
}
