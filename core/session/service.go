package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core"
)

var ErrNotFound = errors.New("session not found")

// Session binds an opaque token to a user until it expires.
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"` // UTC
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, token string) (Session, error)
		DeleteSession(ctx context.Context, token string) error
		DeleteUserSessions(ctx context.Context, userID int, excludedTokens ...string) error
	}

	Service interface {
		Create(ctx context.Context, userID int) (Session, error)
		// Resolve returns the user id bound to token; ErrNotFound when the
		// token is unknown or expired. Expired rows are reaped on resolution.
		Resolve(ctx context.Context, token string) (int, error)
		Destroy(ctx context.Context, token string) error
		DestroyUserSessions(ctx context.Context, userID int, excludedTokens ...string) error
	}

	service struct {
		repo Repository
		conf *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{repo: repo, conf: conf}
}

func (svc *service) Create(ctx context.Context, userID int) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(svc.conf.Server.SessionTTL),
		CreatedAt: now,
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (svc *service) Resolve(ctx context.Context, token string) (int, error) {
	// tokens are uuids; anything else can never match a session row and would
	// be rejected by the token column type before the lookup runs
	if _, err := uuid.Parse(token); err != nil {
		return 0, ErrNotFound
	}

	sess, err := svc.repo.GetSession(ctx, token)
	if err != nil {
		return 0, err
	}
	if sess.Expired(time.Now().UTC()) {
		if err = svc.repo.DeleteSession(ctx, token); err != nil {
			return 0, err
		}
		return 0, ErrNotFound
	}
	return sess.UserID, nil
}

func (svc *service) Destroy(ctx context.Context, token string) error {
	return svc.repo.DeleteSession(ctx, token)
}

func (svc *service) DestroyUserSessions(ctx context.Context, userID int, excludedTokens ...string) error {
	return svc.repo.DeleteUserSessions(ctx, userID, excludedTokens...)
}
