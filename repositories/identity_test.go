package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/errors"
)

func Test_Upsert_Creates_Then_Renames(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	// Given a first authentication
	req.NoError(repository.Upsert("Alice", "alice@x"))

	record, err := repository.FindByEmail("alice@x")
	req.NoError(err)
	req.Equal(domain.IdentityRecord{Name: "Alice", Email: "alice@x"}, record)

	// When the same email authenticates with a different name
	req.NoError(repository.Upsert("Alicia", "alice@x"))

	// Then the stored record carries the latest name
	record, err = repository.FindByEmail("alice@x")
	req.NoError(err)
	req.Equal("Alicia", record.Name)
}

func Test_Upsert_Same_Payload_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	req.NoError(repository.Upsert("Alice", "alice@x"))
	req.NoError(repository.Upsert("Alice", "alice@x"))

	all, err := repository.All()
	req.NoError(err)
	req.Len(all, 1)
}

func Test_FindByEmail_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	_, err := repository.FindByEmail("ghost@x")
	req.ErrorIs(err, errors.ErrIdentityNotFound)
}

func Test_All_Lists_Directory(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	req.NoError(repository.Upsert("Admin", "a@x"))
	req.NoError(repository.Upsert("Alice", "alice@x"))
	req.NoError(repository.Upsert("Bob", "bob@x"))

	all, err := repository.All()
	req.NoError(err)
	req.Len(all, 3)
	req.Contains(all, domain.IdentityRecord{Name: "Alice", Email: "alice@x"})
}
