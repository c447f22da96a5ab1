package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium-app/scholium/core"
	"github.com/scholium-app/scholium/core/session"
	dummydb "github.com/scholium-app/scholium/storage/database/dummy"
)

func setup(t *testing.T) (session.Service, session.Repository, *core.Config) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := core.NewConfig()
	conf.TestMode = true
	repo := dummydb.NewSessionRepository(db)
	return session.NewService(repo, conf), repo, conf
}

func Test_sessionService_CreateAndResolve(t *testing.T) {
	svc, _, conf := setup(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(conf.Server.SessionTTL), sess.ExpiresAt, time.Minute)

	userID, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)

	// two sessions for one user coexist
	sess2, err := svc.Create(ctx, 42)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, sess2.Token)
}

func Test_sessionService_Resolve_unknownToken(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Resolve(context.Background(), "8a9c5cdc-91a5-4e1c-8f69-a2fcba2eaee3")
	assert.Equal(t, session.ErrNotFound, err)
}

func Test_sessionService_Resolve_malformedToken(t *testing.T) {
	svc, _, _ := setup(t)

	// non-uuid tokens never reach the store; the uuid column would reject them
	for _, token := range []string{"", "garbage", "8a9c5cdc-91a5-4e1c-8f69"} {
		_, err := svc.Resolve(context.Background(), token)
		assert.Equal(t, session.ErrNotFound, err, "token = %q", token)
	}
}

func Test_sessionService_Resolve_expiredTokenIsReaped(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	now := time.Now().UTC()
	sess := session.Session{
		Token:     "2b21b1c0-5ebc-4f8f-bd44-dcb63140ebc8",
		UserID:    7,
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-time.Hour),
	}
	require.NoError(t, repo.CreateSession(ctx, sess))

	_, err := svc.Resolve(ctx, sess.Token)
	assert.Equal(t, session.ErrNotFound, err)

	// the expired row is gone, not just rejected
	_, err = repo.GetSession(ctx, sess.Token)
	assert.Equal(t, session.ErrNotFound, err)
}

func Test_sessionService_Destroy(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, sess.Token))
	_, err = svc.Resolve(ctx, sess.Token)
	assert.Equal(t, session.ErrNotFound, err)
}

func Test_sessionService_DestroyUserSessions(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	kept, err := svc.Create(ctx, 42)
	require.NoError(t, err)
	dropped, err := svc.Create(ctx, 42)
	require.NoError(t, err)
	other, err := svc.Create(ctx, 43)
	require.NoError(t, err)

	require.NoError(t, svc.DestroyUserSessions(ctx, 42, kept.Token))

	_, err = svc.Resolve(ctx, kept.Token)
	assert.NoError(t, err)
	_, err = svc.Resolve(ctx, dropped.Token)
	assert.Equal(t, session.ErrNotFound, err)
	_, err = svc.Resolve(ctx, other.Token)
	assert.NoError(t, err)
}
