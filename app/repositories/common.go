package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const (
	// Key prefixes for different entity types
	PostKeyPrefix     = "post:"
	PostSlugKeyPrefix = "post_slug:"
	CommentKeyPrefix  = "comment:"
	CategoryKeyPrefix = "category:"
	UserKeyPrefix     = "user:"
	UsernameKeyPrefix = "user_name:"
	ProfileKeyPrefix  = "profile:"
	SessionKeyPrefix  = "session:"
	ResetKeyPrefix    = "reset:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey     = "seq:post"
	CommentSeqKey  = "seq:comment"
	CategorySeqKey = "seq:category"
	UserSeqKey     = "seq:user"
)

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			id = int(val[0])<<24 | int(val[1])<<16 | int(val[2])<<8 | int(val[3])
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	// Store new ID
	idBytes := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return id, nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// getEntity loads key into entity, mapping a missing key to ErrNotFound.
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// setEntity marshals entity and stores it under key.
func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// getIndex reads an index key holding an integer ID.
func getIndex(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	var id int
	err = item.Value(func(val []byte) error {
		id, err = strconv.Atoi(string(val))
		return err
	})
	return id, err
}

func setIndex(txn *badger.Txn, key []byte, id int) error {
	return txn.Set(key, []byte(strconv.Itoa(id)))
}

// forEachPrefix calls fn with the value of every key under prefix.
func forEachPrefix(txn *badger.Txn, prefix []byte, fn func(key, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		if err := item.Value(func(val []byte) error {
			return fn(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}

// deletePrefix removes every key under prefix.
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func postKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id))
}

func postSlugKey(date, slug string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", PostSlugKeyPrefix, date, slug))
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", CommentKeyPrefix, postID, id))
}

func commentPostPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

func categoryKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", CategoryKeyPrefix, id))
}

func userKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%d", UserKeyPrefix, id))
}

func usernameKey(normalized string) []byte {
	return []byte(UsernameKeyPrefix + normalized)
}

func profileKey(userID int) []byte {
	return []byte(fmt.Sprintf("%s%d", ProfileKeyPrefix, userID))
}
