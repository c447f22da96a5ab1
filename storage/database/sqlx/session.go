package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/session"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) error {
	query := `INSERT INTO session (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`
	_, err := repo.db.ExecContext(ctx, query, sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	return errors.Wrap(err, "creating session")
}

func (repo *sessionRepository) GetSession(ctx context.Context, token string) (session.Session, error) {
	var sess session.Session
	query := `SELECT * FROM session WHERE token = $1`
	if err := repo.db.GetContext(ctx, &sess, query, token); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return sess, nil
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, token string) error {
	query := `DELETE FROM session WHERE token = $1`
	if _, err := repo.db.ExecContext(ctx, query, token); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

func (repo *sessionRepository) DeleteUserSessions(ctx context.Context, userID int, excludedTokens ...string) error {
	query := `DELETE FROM session WHERE user_id = $1`
	args := []interface{}{userID}
	if len(excludedTokens) > 0 {
		query += ` AND token != ALL($2)`
		args = append(args, pq.Array(excludedTokens))
	}
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting user sessions")
	}
	return nil
}
