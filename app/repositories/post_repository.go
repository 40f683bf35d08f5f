package repositories

import (
	"errors"
	"sort"
	"time"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB. Each post
// owns a post_slug:<date>:<slug> index key that enforces slug uniqueness per
// publish date.
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		slugKey := postSlugKey(post.PublishDate(), post.Slug)
		if err := checkSlugFree(txn, slugKey, 0); err != nil {
			return err
		}

		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		if err := setIndex(txn, slugKey, post.ID); err != nil {
			return err
		}
		return setEntity(txn, postKey(post.ID), post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByDateSlug retrieves the post whose publish date falls on date's UTC day
// and whose slug matches exactly, regardless of status.
func (r *BadgerPostRepository) GetByDateSlug(date time.Time, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, postSlugKey(models.DateKey(date), slug))
		if err != nil {
			return err
		}
		return getEntity(txn, postKey(id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublished retrieves published posts, newest publish time first
func (r *BadgerPostRepository) ListPublished() ([]*models.Post, error) {
	return r.list(func(p *models.Post) bool { return p.IsPublished() })
}

// ListByAuthor retrieves the posts written by authorID
func (r *BadgerPostRepository) ListByAuthor(authorID int) ([]*models.Post, error) {
	return r.list(func(p *models.Post) bool { return p.AuthorID == authorID })
}

func (r *BadgerPostRepository) list(keep func(*models.Post) bool) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var post models.Post
			if err := unmarshalEntity(val, &post); err != nil {
				return err
			}
			if keep(&post) {
				posts = append(posts, &post)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByPublishDesc(posts)
	return posts, nil
}

// Update updates an existing post, moving its slug index when the slug or
// publish date changed
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var existing models.Post
		if err := getEntity(txn, postKey(post.ID), &existing); err != nil {
			return err
		}

		oldKey := postSlugKey(existing.PublishDate(), existing.Slug)
		newKey := postSlugKey(post.PublishDate(), post.Slug)
		if string(oldKey) != string(newKey) {
			if err := checkSlugFree(txn, newKey, post.ID); err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
			if err := setIndex(txn, newKey, post.ID); err != nil {
				return err
			}
		}
		return setEntity(txn, postKey(post.ID), post)
	})
}

// Delete deletes a post by ID together with its comments
func (r *BadgerPostRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return deletePostTxn(txn, id)
	})
}

func deletePostTxn(txn *badger.Txn, id int) error {
	var post models.Post
	if err := getEntity(txn, postKey(id), &post); err != nil {
		return err
	}
	if err := deletePrefix(txn, commentPostPrefix(id)); err != nil {
		return err
	}
	if err := txn.Delete(postSlugKey(post.PublishDate(), post.Slug)); err != nil {
		return err
	}
	return txn.Delete(postKey(id))
}

// checkSlugFree fails with ErrDuplicateSlug when key is held by a post other
// than ownerID.
func checkSlugFree(txn *badger.Txn, key []byte, ownerID int) error {
	id, err := getIndex(txn, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if id != ownerID {
		return ErrDuplicateSlug
	}
	return nil
}

func sortByPublishDesc(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Publish.Equal(posts[j].Publish) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].Publish.After(posts[j].Publish)
	})
}
