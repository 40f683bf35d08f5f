package repositories

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB. Usernames
// are indexed case-insensitively under user_name:<lower>.
type BadgerUserRepository struct {
	db    *badger.DB
	mutex sync.RWMutex
	hooks []UserHook
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// OnSave registers a hook that runs after every committed Create and Update.
func (r *BadgerUserRepository) OnSave(hook UserHook) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Create creates a new user
func (r *BadgerUserRepository) Create(user *models.User) error {
	user.BeforeCreate()
	err := r.db.Update(func(txn *badger.Txn) error {
		nameKey := usernameKey(models.NormalizeUsername(user.Username))
		if _, err := getIndex(txn, nameKey); err == nil {
			return ErrDuplicateUsername
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id

		if err := setIndex(txn, nameKey, user.ID); err != nil {
			return err
		}
		return setEntity(txn, userKey(user.ID), user)
	})
	if err != nil {
		return err
	}
	return r.runHooks(user, true)
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, userKey(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, ignoring case
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, usernameKey(models.NormalizeUsername(username)))
		if err != nil {
			return err
		}
		return getEntity(txn, userKey(id), &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByEmail retrieves every user registered with email, ignoring case
func (r *BadgerUserRepository) ListByEmail(email string) ([]*models.User, error) {
	users := []*models.User{}
	err := r.db.View(func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(UserKeyPrefix), func(_, val []byte) error {
			var user models.User
			if err := unmarshalEntity(val, &user); err != nil {
				return err
			}
			if strings.EqualFold(user.Email, email) {
				users = append(users, &user)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update updates an existing user, moving the username index on rename
func (r *BadgerUserRepository) Update(user *models.User) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getEntity(txn, userKey(user.ID), &existing); err != nil {
			return err
		}

		oldKey := usernameKey(models.NormalizeUsername(existing.Username))
		newKey := usernameKey(models.NormalizeUsername(user.Username))
		if string(oldKey) != string(newKey) {
			if _, err := getIndex(txn, newKey); err == nil {
				return ErrDuplicateUsername
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
			if err := setIndex(txn, newKey, user.ID); err != nil {
				return err
			}
		}
		return setEntity(txn, userKey(user.ID), user)
	})
	if err != nil {
		return err
	}
	return r.runHooks(user, false)
}

// Delete removes a user together with the profile, posts and comments that
// belong to it
func (r *BadgerUserRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var user models.User
		if err := getEntity(txn, userKey(id), &user); err != nil {
			return err
		}

		var postIDs []int
		err := forEachPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return err
			}
			if post.AuthorID == id {
				postIDs = append(postIDs, post.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, postID := range postIDs {
			if err := deletePostTxn(txn, postID); err != nil {
				return fmt.Errorf("delete post %d: %w", postID, err)
			}
		}

		if err := txn.Delete(profileKey(id)); err != nil {
			return err
		}
		if err := txn.Delete(usernameKey(models.NormalizeUsername(user.Username))); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
}

func (r *BadgerUserRepository) runHooks(user *models.User, created bool) error {
	r.mutex.RLock()
	hooks := append([]UserHook(nil), r.hooks...)
	r.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook(user, created); err != nil {
			return fmt.Errorf("user %d save hook: %w", user.ID, err)
		}
	}
	return nil
}
