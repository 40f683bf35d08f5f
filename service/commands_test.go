package service

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blogsite/app/config"
	"blogsite/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the command line with args against dataDir, feeding input
// to prompts, and returns everything written to stdout.
func run(t *testing.T, dataDir, input string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func testConfig(dataDir string) *config.Config {
	cfg := config.Default()
	cfg.DataDir = dataDir
	return cfg
}

func TestRootCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "", "--help")
	require.NoError(t, err)
	for _, name := range []string{"serve", "init", "clean", "backup", "restore", "category", "user"} {
		assert.Contains(t, out, name)
	}

	_, err = run(t, t.TempDir(), "", "unknown")
	assert.Error(t, err)

	_, err = run(t, t.TempDir(), "", "restore")
	assert.Error(t, err, "restore needs a file argument")
}

func TestExecuteExitsOnError(t *testing.T) {
	oldArgs, oldExit := os.Args, osExit
	defer func() { os.Args, osExit = oldArgs, oldExit }()

	var code int
	osExit = func(c int) { code = c }
	os.Args = []string{"blogsite", "no-such-command"}
	Execute()
	assert.Equal(t, 1, code)
}

func TestInit(t *testing.T) {
	dataDir := t.TempDir()

	out, err := run(t, dataDir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized")
	assert.DirExists(t, testConfig(dataDir).DBPath())

	out, err = run(t, dataDir, "", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database already exists")
}

func TestClean(t *testing.T) {
	dataDir := t.TempDir()
	dbPath := testConfig(dataDir).DBPath()

	t.Run("nothing to clean", func(t *testing.T) {
		out, err := run(t, dataDir, "", "clean")
		require.NoError(t, err)
		assert.Contains(t, out, "Database is already clean")
	})

	t.Run("cancelled", func(t *testing.T) {
		_, err := run(t, dataDir, "", "init")
		require.NoError(t, err)

		out, err := run(t, dataDir, "n\n", "clean")
		require.NoError(t, err)
		assert.Contains(t, out, "Operation cancelled")
		assert.DirExists(t, dbPath)
	})

	t.Run("confirmed", func(t *testing.T) {
		out, err := run(t, dataDir, "y\n", "clean")
		require.NoError(t, err)
		assert.Contains(t, out, "Database cleaned")
		assert.NoDirExists(t, dbPath)
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		_, err := run(t, dataDir, "", "init")
		require.NoError(t, err)

		out, err := run(t, dataDir, "", "clean", "--yes")
		require.NoError(t, err)
		assert.NotContains(t, out, "[y/N]")
		assert.NoDirExists(t, dbPath)
	})
}

func TestBackupAndRestore(t *testing.T) {
	dataDir := t.TempDir()
	backupFile := filepath.Join(t.TempDir(), "blog.bak")

	out, err := run(t, dataDir, "", "backup", "--output", backupFile)
	require.NoError(t, err)
	assert.Contains(t, out, "No database exists to back up")

	_, err = run(t, dataDir, "", "category", "add", "Go", "--description", "Gophers")
	require.NoError(t, err)

	out, err = run(t, dataDir, "", "backup", "--output", backupFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Database backed up to "+backupFile)
	assert.FileExists(t, backupFile)

	t.Run("default location", func(t *testing.T) {
		out, err := run(t, dataDir, "", "backup")
		require.NoError(t, err)
		matches, err := filepath.Glob(filepath.Join(dataDir, "backups", "backup_*.db"))
		require.NoError(t, err)
		assert.Len(t, matches, 1, out)
	})

	t.Run("missing backup file", func(t *testing.T) {
		_, err := run(t, dataDir, "", "restore", filepath.Join(dataDir, "nope.db"), "--yes")
		assert.ErrorContains(t, err, "backup file does not exist")
	})

	t.Run("empty backup file", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(empty, nil, 0644))
		_, err := run(t, dataDir, "", "restore", empty, "--yes")
		assert.ErrorContains(t, err, "backup file is empty")
	})

	t.Run("cancelled", func(t *testing.T) {
		out, err := run(t, dataDir, "n\n", "restore", backupFile)
		require.NoError(t, err)
		assert.Contains(t, out, "Operation cancelled")
	})

	t.Run("into a fresh directory", func(t *testing.T) {
		fresh := t.TempDir()
		out, err := run(t, fresh, "", "restore", backupFile)
		require.NoError(t, err)
		assert.Contains(t, out, "Database restored")

		out, err = run(t, fresh, "", "category", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Go")
		assert.Contains(t, out, "Gophers")
	})

	t.Run("replacing existing data", func(t *testing.T) {
		_, err := run(t, dataDir, "", "category", "add", "Rust")
		require.NoError(t, err)

		out, err := run(t, dataDir, "y\n", "restore", backupFile)
		require.NoError(t, err)
		assert.Contains(t, out, "Database restored")

		out, err = run(t, dataDir, "", "category", "list")
		require.NoError(t, err)
		assert.NotContains(t, out, "Rust")
	})
}

func TestCategoryCommands(t *testing.T) {
	dataDir := t.TempDir()

	out, err := run(t, dataDir, "", "category", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No categories yet")

	_, err = run(t, dataDir, "", "category", "add", "  ")
	assert.ErrorContains(t, err, "name: This field is required.")

	out, err = run(t, dataDir, "", "category", "add", "Travel")
	require.NoError(t, err)
	assert.Contains(t, out, `Created category "Travel" (id 1)`)

	out, err = run(t, dataDir, "", "category", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Travel")
}

func TestUserCommands(t *testing.T) {
	dataDir := t.TempDir()

	_, err := run(t, dataDir, "", "user", "create", "alice", "alice@example.com")
	assert.ErrorContains(t, err, "password")

	_, err = run(t, dataDir, "", "user", "create", "alice", "not-an-email", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: Enter a valid email address.")
	assert.Contains(t, err.Error(), "password: Ensure this value has at least 8 characters.")

	out, err := run(t, dataDir, "", "user", "create", "alice", "alice@example.com", "--password", "long enough")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user alice")

	_, err = run(t, dataDir, "", "user", "create", "ALICE", "other@example.com", "--password", "long enough")
	assert.ErrorContains(t, err, "A user with that username already exists.")

	cfg := testConfig(dataDir)
	store, err := openStore(cfg)
	require.NoError(t, err)
	user, err := store.Users.GetByUsername("alice")
	require.NoError(t, err)
	_, err = store.Profiles.GetByUserID(user.ID)
	require.NoError(t, err, "creating a user provisions a profile")
	category := &models.Category{Name: "Go"}
	require.NoError(t, store.Categories.Create(category))
	post := &models.Post{Title: "Hi", Slug: "hi", AuthorID: user.ID, CategoryID: category.ID, Body: "Body", Status: models.StatusPublished}
	post.BeforeCreate()
	require.NoError(t, store.Posts.Create(post))
	require.NoError(t, store.Close())

	t.Run("delete cancelled", func(t *testing.T) {
		out, err := run(t, dataDir, "no\n", "user", "delete", "alice")
		require.NoError(t, err)
		assert.Contains(t, out, "Operation cancelled")
	})

	t.Run("delete unknown", func(t *testing.T) {
		_, err := run(t, dataDir, "", "user", "delete", "bob", "--yes")
		assert.ErrorContains(t, err, "no user named bob")
	})

	t.Run("delete cascades", func(t *testing.T) {
		out, err := run(t, dataDir, "yes\n", "user", "delete", "alice")
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted user alice")

		store, err := openStore(cfg)
		require.NoError(t, err)
		defer store.Close()
		_, err = store.Users.GetByID(user.ID)
		assert.Error(t, err)
		_, err = store.Profiles.GetByUserID(user.ID)
		assert.Error(t, err)
		_, err = store.Posts.GetByID(post.ID)
		assert.Error(t, err)
	})
}
