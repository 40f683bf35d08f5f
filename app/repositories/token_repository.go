package repositories

import (
	"errors"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerTokenRepository implements TokenRepository with Badger TTL entries,
// so expired tokens disappear on their own. Sessions and password reset
// tokens use separate prefixes.
type BadgerTokenRepository struct {
	db     *badger.DB
	prefix string
	ttl    time.Duration
}

// NewBadgerTokenRepository creates a token store under prefix whose tokens
// live for ttl.
func NewBadgerTokenRepository(db *badger.DB, prefix string, ttl time.Duration) *BadgerTokenRepository {
	return &BadgerTokenRepository{db: db, prefix: prefix, ttl: ttl}
}

// Issue creates a fresh token for userID
func (r *BadgerTokenRepository) Issue(userID int) (string, error) {
	token := uuid.NewString()
	err := r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(r.key(token), []byte(strconv.Itoa(userID))).WithTTL(r.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user a live token belongs to
func (r *BadgerTokenRepository) Resolve(token string) (int, error) {
	if _, err := uuid.Parse(token); err != nil {
		return 0, ErrNotFound
	}
	var userID int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		userID, err = getIndex(txn, r.key(token))
		return err
	})
	return userID, err
}

// Revoke deletes a token; revoking an unknown token is not an error
func (r *BadgerTokenRepository) Revoke(token string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(r.key(token))
	})
}

// RevokeUser deletes every token issued to userID
func (r *BadgerTokenRepository) RevokeUser(userID int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		prefix := []byte(r.prefix)
		err := forEachPrefix(txn, prefix, func(key, val []byte) error {
			id, err := strconv.Atoi(string(val))
			if err != nil {
				return errors.New("corrupt token value")
			}
			if id == userID {
				keys = append(keys, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BadgerTokenRepository) key(token string) []byte {
	return []byte(r.prefix + token)
}
