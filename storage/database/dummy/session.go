package dummydb

import (
	"context"

	"github.com/scholium-app/scholium/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.sessions[sess.Token] = &sess
	return nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, token string) (session.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sess, ok := repo.db.sessions[token]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, token string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.sessions, token)
	return nil
}

func (repo *sessionRepository) DeleteUserSessions(ctx context.Context, userID int, excludedTokens ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for token, sess := range repo.db.sessions {
		if sess.UserID == userID && !contains(excludedTokens, token) {
			delete(repo.db.sessions, token)
		}
	}
	return nil
}

func contains(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}
