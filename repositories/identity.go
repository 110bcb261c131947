//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=../mocks/mock_identity_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/domain"
	"chat-relay/errors"
)

type IIdentityRepository interface {
	Upsert(name, email string) error
	FindByEmail(email string) (domain.IdentityRecord, error)
	All() ([]domain.IdentityRecord, error)
}

type IdentityRepository struct {
	db *badger.DB
}

func NewIdentityRepository(db *badger.DB) IIdentityRepository {
	return &IdentityRepository{db: db}
}

const identityPrefix = "identity:"

// Upsert creates the record if the email is unknown, or rewrites it when the
// name changed. Calling it twice with the same payload is a no-op, which
// makes re-authentication idempotent.
func (r IdentityRepository) Upsert(name, email string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := []byte(identityPrefix + email)

		item, err := txn.Get(key)
		if err == nil {
			var existing domain.IdentityRecord
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			})
			if err == nil && existing.Name == name {
				return nil
			}
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(domain.IdentityRecord{Name: name, Email: email})
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// FindByEmail retrieves a directory entry, or ErrIdentityNotFound. Used by
// the admin credential check, which never creates records.
func (r IdentityRepository) FindByEmail(email string) (domain.IdentityRecord, error) {
	var record domain.IdentityRecord

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityPrefix + email))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrIdentityNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.IdentityRecord{}, err
	}
	return record, nil
}

// All returns the full directory, in key (email) order.
func (r IdentityRepository) All() ([]domain.IdentityRecord, error) {
	var records []domain.IdentityRecord
	prefix := []byte(identityPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record domain.IdentityRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
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
	return records, nil
}
