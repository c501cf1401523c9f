package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/repositories"
)

// Storage keys of the durable session.
const (
	TokenKey = "sentiment_jwt_token"
	UserKey  = "sentiment_user_info"
)

// Store persists one session.
//
// Get returns nil when no session exists. Set and Clear change token and user together.
type Store interface {
	Get(ctx context.Context) (*models.Session, error)
	Set(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the session in the metadata table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a [SQLiteStore]. The metadata migration must already be applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context) (*models.Session, error) {
	repo := repositories.NewMetadataRepository(s.db)

	token, err := repo.Get(ctx, TokenKey)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, nil
	}

	session := &models.Session{Token: string(token)}

	raw, err := repo.Get(ctx, UserKey)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var user models.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, fmt.Errorf("failed to decode cached user: %w", err)
		}
		session.User = &user
	}
	return session, nil
}

func (s *SQLiteStore) Set(ctx context.Context, session models.Session) error {
	if session.Token == "" {
		return fmt.Errorf("refusing to store a session without a token")
	}

	return s.inTx(ctx, func(repo *repositories.MetadataRepository) error {
		if err := repo.Set(ctx, TokenKey, []byte(session.Token)); err != nil {
			return err
		}
		if session.User == nil {
			return repo.Delete(ctx, UserKey)
		}

		raw, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		return repo.Set(ctx, UserKey, raw)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.inTx(ctx, func(repo *repositories.MetadataRepository) error {
		return repo.Delete(ctx, TokenKey, UserKey)
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*repositories.MetadataRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repositories.NewMetadataRepository(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *models.Session
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	return copySession(*s.session), nil
}

func (s *MemoryStore) Set(_ context.Context, session models.Session) error {
	if session.Token == "" {
		return fmt.Errorf("refusing to store a session without a token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = copySession(session)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func copySession(s models.Session) *models.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return &s
}
