package repositories

import (
	"fmt"
	"testing"
	"time"

	"blogsite/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository(t *testing.T) {
	store := setupTestStore(t)
	repo := store.Comments

	post := newTestPost("commented", time.Now(), models.StatusPublished)
	require.NoError(t, store.Posts.Create(post))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var created []*models.Comment
	// Create more than nine so key order and creation order differ.
	for i := 0; i < 11; i++ {
		comment := models.NewComment(post.ID, fmt.Sprintf("Reader %d", i), "reader@example.com", "Comment body")
		comment.Created = base.Add(time.Duration(i) * time.Minute)
		comment.BeforeCreate()
		require.NoError(t, repo.Create(comment))
		created = append(created, comment)
	}

	t.Run("comment on missing post", func(t *testing.T) {
		comment := models.NewComment(999, "Ann", "ann@example.com", "Hi")
		assert.ErrorIs(t, repo.Create(comment), ErrNotFound)
	})

	t.Run("list ordered by creation", func(t *testing.T) {
		comments, err := repo.ListByPost(post.ID)
		require.NoError(t, err)
		require.Len(t, comments, 11)
		for i, c := range comments {
			assert.Equal(t, created[i].ID, c.ID)
		}
	})

	t.Run("inactive comments are hidden", func(t *testing.T) {
		hidden := created[3]
		hidden.Active = false
		require.NoError(t, repo.Update(hidden))

		active, err := repo.ListActiveByPost(post.ID)
		require.NoError(t, err)
		assert.Len(t, active, 10)
		for _, c := range active {
			assert.True(t, c.Active)
			assert.NotEqual(t, hidden.ID, c.ID)
		}
	})

	t.Run("get comment", func(t *testing.T) {
		got, err := repo.GetByID(created[10].ID)
		require.NoError(t, err)
		assert.Equal(t, "Reader 10", got.Name)

		_, err = repo.GetByID(12345)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete comment", func(t *testing.T) {
		require.NoError(t, repo.Delete(created[0].ID))
		_, err := repo.GetByID(created[0].ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(created[0].ID), ErrNotFound)
	})
}

func TestCategoryRepository(t *testing.T) {
	repo := setupTestStore(t).Categories

	for _, name := range []string{"Travel", "Go", "Music"} {
		require.NoError(t, repo.Create(&models.Category{Name: name}))
	}

	categories, err := repo.List()
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Go", categories[0].Name)

	got, err := repo.GetByID(categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)

	_, err = repo.GetByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}
