package repositories

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Default token lifetimes used when a Store is opened without options.
const (
	DefaultSessionTTL = 14 * 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// Store owns the Badger database and the repositories built on it.
type Store struct {
	db     *badger.DB
	dbPath string

	Posts       *BadgerPostRepository
	Comments    *BadgerCommentRepository
	Categories  *BadgerCategoryRepository
	Users       *BadgerUserRepository
	Profiles    *BadgerProfileRepository
	Sessions    *BadgerTokenRepository
	ResetTokens *BadgerTokenRepository
}

// StoreOptions tunes token lifetimes.
type StoreOptions struct {
	SessionTTL time.Duration
	ResetTTL   time.Duration
}

// Open opens (or creates) the database at path. An empty path opens an
// in-memory database, which is what tests use.
func Open(path string, opts StoreOptions) (*Store, error) {
	var badgerOpts badger.Options
	inMemory := path == ""
	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		badgerOpts = badger.DefaultOptions(path).
			WithNumVersionsToKeep(1)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	store := NewStore(db, opts)
	store.dbPath = path
	return store, nil
}

// NewStore wires every repository onto an already open database.
func NewStore(db *badger.DB, opts StoreOptions) *Store {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = DefaultResetTTL
	}
	return &Store{
		db:          db,
		Posts:       NewBadgerPostRepository(db),
		Comments:    NewBadgerCommentRepository(db),
		Categories:  NewBadgerCategoryRepository(db),
		Users:       NewBadgerUserRepository(db),
		Profiles:    NewBadgerProfileRepository(db),
		Sessions:    NewBadgerTokenRepository(db, SessionKeyPrefix, opts.SessionTTL),
		ResetTokens: NewBadgerTokenRepository(db, ResetKeyPrefix, opts.ResetTTL),
	}
}

// Path is the on-disk location, empty for in-memory stores.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Backup writes a full dump of the database to w.
func (s *Store) Backup(w io.Writer) error {
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

// Restore loads a dump produced by Backup. Badger can panic on corrupt
// input, so the panic is turned into an error.
func (s *Store) Restore(r io.Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("restore database: panic: %v", rec)
		}
	}()
	if err := s.db.Load(r, 4); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}
	return nil
}
