package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// OpenDB opens the badger database that holds sessions. An empty path or
// inMemory opens a volatile in-memory database.
func OpenDB(path string, inMemory bool) (*badger.DB, error) {
	var opts badger.Options
	if inMemory || path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithLogger(nil).
		WithSyncWrites(false).
		WithNumVersionsToKeep(1).
		WithNumGoroutines(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return db, nil
}

// BadgerStore implements Store using BadgerDB. Entries carry a badger TTL so
// expired sessions disappear without a sweeper.
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now}
}

// WithClock replaces the clock used for expiry checks.
func (s *BadgerStore) WithClock(now func() time.Time) *BadgerStore {
	s.now = now
	return s
}

func sessionKey(token string) []byte {
	return []byte(sessionKeyPrefix + token)
}

func userKey(userID int64, token string) []byte {
	return []byte(userPrefix(userID) + token)
}

func userPrefix(userID int64) string {
	return sessionUserKeyPrefix + strconv.FormatInt(userID, 10) + ":"
}

// Create stores a new session.
func (s *BadgerStore) Create(ctx context.Context, session *Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(sessionKey(session.Token), data).WithTTL(ttl)); err != nil {
			return fmt.Errorf("set session: %w", err)
		}

		// user -> session index for logout-everywhere
		entry := badger.NewEntry(userKey(session.UserID, session.Token), []byte(session.Token)).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}

		return nil
	})
}

// Get retrieves a live session by token.
func (s *BadgerStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}

	if session.ExpiredAt(s.now()) {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *BadgerStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var session Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		if err := txn.Delete(sessionKey(token)); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if err := txn.Delete(userKey(session.UserID, token)); err != nil {
			return fmt.Errorf("delete user mapping: %w", err)
		}
		return nil
	})
}

// DeleteByUserID removes every session of a user and returns how many were removed.
func (s *BadgerStore) DeleteByUserID(ctx context.Context, userID int64) (int, error) {
	var tokens []string

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix(userID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				tokens = append(tokens, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list user sessions: %w", err)
	}

	for _, token := range tokens {
		if err := s.Delete(ctx, token); err != nil {
			return 0, err
		}
	}
	return len(tokens), nil
}

// Count returns the number of stored sessions.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

var _ Store = (*BadgerStore)(nil)
