package repositories

import (
	"testing"
	"time"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetNextID(t *testing.T) {
	db := setupTestStore(t).db

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("different sequence keys", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			commentID, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, commentID, "Comment sequence should start from 1")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("persistence", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)

		// Second transaction should continue from last ID
		err = db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, "test:seq")
			assert.NoError(t, err)
			assert.Equal(t, 2, id)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestEntityHelpers(t *testing.T) {
	db := setupTestStore(t).db

	t.Run("round trip through badger", func(t *testing.T) {
		post := &models.Post{ID: 1, Title: "Test Post", Slug: "test-post", Publish: time.Now().UTC()}
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return setEntity(txn, postKey(1), post)
		}))

		var loaded models.Post
		require.NoError(t, db.View(func(txn *badger.Txn) error {
			return getEntity(txn, postKey(1), &loaded)
		}))
		assert.Equal(t, post.Title, loaded.Title)
		assert.True(t, post.Publish.Equal(loaded.Publish))
	})

	t.Run("missing key maps to ErrNotFound", func(t *testing.T) {
		err := db.View(func(txn *badger.Txn) error {
			var post models.Post
			return getEntity(txn, postKey(99), &post)
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("marshal invalid entity", func(t *testing.T) {
		_, err := marshalEntity(struct{ Ch chan int }{Ch: make(chan int)})
		assert.Error(t, err)
	})

	t.Run("unmarshal invalid JSON", func(t *testing.T) {
		var post models.Post
		assert.Error(t, unmarshalEntity([]byte(`{"id":1,invalid json}`), &post))
	})

	t.Run("delete prefix", func(t *testing.T) {
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			for i := 1; i <= 3; i++ {
				if err := setIndex(txn, commentKey(5, i), i); err != nil {
					return err
				}
			}
			return setIndex(txn, commentKey(50, 1), 1)
		}))
		require.NoError(t, db.Update(func(txn *badger.Txn) error {
			return deletePrefix(txn, commentPostPrefix(5))
		}))

		var remaining int
		require.NoError(t, db.View(func(txn *badger.Txn) error {
			return forEachPrefix(txn, []byte(CommentKeyPrefix), func(_, _ []byte) error {
				remaining++
				return nil
			})
		}))
		assert.Equal(t, 1, remaining)
	})
}
