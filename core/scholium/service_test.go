package scholium_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium-app/scholium/core/scholium"
	"github.com/scholium-app/scholium/core/user"
	dummydb "github.com/scholium-app/scholium/storage/database/dummy"
)

func setup(t *testing.T) (scholium.Service, *testFixtures) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	usrRepo := dummydb.NewUserRepository(db)
	svc := scholium.NewService(dummydb.NewScholiumRepository(db))

	fx := &testFixtures{t: t, usrRepo: usrRepo}
	return svc, fx
}

type testFixtures struct {
	t       *testing.T
	usrRepo user.Repository
}

func (fx *testFixtures) createUser(name, email string) user.User {
	fx.t.Helper()
	now := time.Now().UTC()
	usr, err := fx.usrRepo.CreateUser(context.Background(), user.User{
		Email:     email,
		Name:      name,
		Role:      user.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(fx.t, err)
	return usr
}

var accessCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{8}$`)

func Test_scholiumService_Create(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra Club", sch.Name)
	assert.Equal(t, host.ID, sch.OwnerID)
	assert.Regexp(t, accessCodeRe, sch.AccessCode)

	// the creator is a host member immediately
	state, err := svc.MemberState(ctx, sch.ID, host.ID)
	require.NoError(t, err)
	assert.True(t, state.IsHost)
	assert.True(t, state.CanAddHomework)
	assert.True(t, state.CanCreateSubject)

	// a second scholium gets a distinct code
	sch2, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Physics Club"})
	require.NoError(t, err)
	assert.NotEqual(t, sch.AccessCode, sch2.AccessCode)
}

// collidingRepo reports an access-code collision on the first `collisions`
// inserts, then delegates to the real repository.
type collidingRepo struct {
	scholium.Repository
	collisions int
	calls      int
}

func (r *collidingRepo) CreateScholium(ctx context.Context, sch scholium.Scholium, host scholium.Member) (scholium.Scholium, error) {
	r.calls++
	if r.calls <= r.collisions {
		return scholium.Scholium{}, scholium.ErrCodeExists
	}
	return r.Repository.CreateScholium(ctx, sch, host)
}

func (r *collidingRepo) SetAccessCode(ctx context.Context, scholiumID int, code string) error {
	r.calls++
	if r.calls <= r.collisions {
		return scholium.ErrCodeExists
	}
	return r.Repository.SetAccessCode(ctx, scholiumID, code)
}

func Test_scholiumService_Create_codeCollisions(t *testing.T) {
	ctx := context.Background()

	t.Run("retries on collision", func(t *testing.T) {
		db, err := dummydb.Open()
		require.NoError(t, err)
		repo := &collidingRepo{Repository: dummydb.NewScholiumRepository(db), collisions: 3}
		svc := scholium.NewService(repo)

		usr, err := dummydb.NewUserRepository(db).CreateUser(ctx, user.User{Email: "ada@test.cd", Name: "Ada"})
		require.NoError(t, err)

		sch, err := svc.Create(ctx, usr.ID, scholium.NewScholium{Name: "Algebra Club"})
		require.NoError(t, err)
		assert.Regexp(t, accessCodeRe, sch.AccessCode)
		assert.Equal(t, 4, repo.calls)
	})

	t.Run("gives up after too many collisions", func(t *testing.T) {
		db, err := dummydb.Open()
		require.NoError(t, err)
		repo := &collidingRepo{Repository: dummydb.NewScholiumRepository(db), collisions: 5}
		svc := scholium.NewService(repo)

		usr, err := dummydb.NewUserRepository(db).CreateUser(ctx, user.User{Email: "ada@test.cd", Name: "Ada"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, usr.ID, scholium.NewScholium{Name: "Algebra Club"})
		assert.Equal(t, scholium.ErrCodeExhausted, err)
		assert.Equal(t, 5, repo.calls)
	})
}

func Test_scholiumService_RenewAccessCode_codeCollisions(t *testing.T) {
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)
	real := dummydb.NewScholiumRepository(db)
	repo := &collidingRepo{Repository: real}
	svc := scholium.NewService(repo)

	usr, err := dummydb.NewUserRepository(db).CreateUser(ctx, user.User{Email: "ada@test.cd", Name: "Ada"})
	require.NoError(t, err)
	sch, err := svc.Create(ctx, usr.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)

	// two collisions, then the third generated code sticks
	repo.calls, repo.collisions = 0, 2
	code, err := svc.RenewAccessCode(ctx, usr.ID, sch.ID)
	require.NoError(t, err)
	assert.Regexp(t, accessCodeRe, code)
	assert.NotEqual(t, sch.AccessCode, code)
	assert.Equal(t, 3, repo.calls)

	repo.calls, repo.collisions = 0, 5
	_, err = svc.RenewAccessCode(ctx, usr.ID, sch.ID)
	assert.Equal(t, scholium.ErrCodeExhausted, err)
}

func Test_scholiumService_Join(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")
	member := fx.createUser("Grace", "grace@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Join(ctx, member.ID, "nope1234")
		assert.Equal(t, scholium.ErrNotFound, err)
	})

	t.Run("ok with default permissions", func(t *testing.T) {
		joined, err := svc.Join(ctx, member.ID, sch.AccessCode)
		require.NoError(t, err)
		assert.Equal(t, sch.ID, joined.ID)

		state, err := svc.MemberState(ctx, sch.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, state.IsHost)
		assert.True(t, state.CanAddHomework)
		assert.False(t, state.CanCreateSubject)
	})

	t.Run("joining twice fails", func(t *testing.T) {
		_, err := svc.Join(ctx, member.ID, sch.AccessCode)
		assert.Equal(t, scholium.ErrAlreadyMember, err)
	})

	t.Run("host cannot rejoin", func(t *testing.T) {
		_, err := svc.Join(ctx, host.ID, sch.AccessCode)
		assert.Equal(t, scholium.ErrAlreadyMember, err)
	})
}

func Test_scholiumService_RenewAccessCode(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")
	member := fx.createUser("Grace", "grace@test.cd")
	outsider := fx.createUser("Alan", "alan@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, member.ID, sch.AccessCode)
	require.NoError(t, err)

	t.Run("member is not allowed", func(t *testing.T) {
		_, err := svc.RenewAccessCode(ctx, member.ID, sch.ID)
		assert.Equal(t, scholium.ErrNotHost, err)
	})

	t.Run("non-member gets not found", func(t *testing.T) {
		_, err := svc.RenewAccessCode(ctx, outsider.ID, sch.ID)
		assert.Equal(t, scholium.ErrNotFound, err)
	})

	t.Run("host renews, old code stops working", func(t *testing.T) {
		oldCode := sch.AccessCode
		newCode, err := svc.RenewAccessCode(ctx, host.ID, sch.ID)
		require.NoError(t, err)
		assert.Regexp(t, accessCodeRe, newCode)
		assert.NotEqual(t, oldCode, newCode)

		_, err = svc.Join(ctx, outsider.ID, oldCode)
		assert.Equal(t, scholium.ErrNotFound, err)

		_, err = svc.Join(ctx, outsider.ID, newCode)
		assert.NoError(t, err)
	})
}

func Test_scholiumService_UpdateMemberPermissions(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")
	member := fx.createUser("Grace", "grace@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, member.ID, sch.AccessCode)
	require.NoError(t, err)

	t.Run("member cannot grant permissions", func(t *testing.T) {
		err := svc.UpdateMemberPermissions(ctx, member.ID, sch.ID, member.ID, scholium.UpdatePermissions{CanCreateSubject: true})
		assert.Equal(t, scholium.ErrNotHost, err)
	})

	t.Run("host grants and revokes", func(t *testing.T) {
		err := svc.UpdateMemberPermissions(ctx, host.ID, sch.ID, member.ID, scholium.UpdatePermissions{CanCreateSubject: true})
		require.NoError(t, err)

		state, err := svc.MemberState(ctx, sch.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, state.CanAddHomework)
		assert.True(t, state.CanCreateSubject)
	})

	t.Run("host flags are irrelevant", func(t *testing.T) {
		err := svc.UpdateMemberPermissions(ctx, host.ID, sch.ID, host.ID, scholium.UpdatePermissions{})
		require.NoError(t, err)

		state, err := svc.MemberState(ctx, sch.ID, host.ID)
		require.NoError(t, err)
		assert.True(t, state.CanAddHomework)
		assert.True(t, state.CanCreateSubject)
	})

	t.Run("unknown target", func(t *testing.T) {
		err := svc.UpdateMemberPermissions(ctx, host.ID, sch.ID, 999, scholium.UpdatePermissions{})
		assert.Equal(t, scholium.ErrNotFound, err)
	})
}

func Test_scholiumService_RemoveMember(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")
	member := fx.createUser("Grace", "grace@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, member.ID, sch.AccessCode)
	require.NoError(t, err)

	members, err := svc.Members(ctx, sch.ID, host.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	t.Run("member cannot remove", func(t *testing.T) {
		err := svc.RemoveMember(ctx, member.ID, sch.ID, member.ID)
		assert.Equal(t, scholium.ErrNotHost, err)
	})

	t.Run("host cannot be removed", func(t *testing.T) {
		err := svc.RemoveMember(ctx, host.ID, sch.ID, host.ID)
		assert.Equal(t, scholium.ErrHostRemoval, err)
	})

	t.Run("host removes member", func(t *testing.T) {
		err := svc.RemoveMember(ctx, host.ID, sch.ID, member.ID)
		require.NoError(t, err)

		_, err = svc.MemberState(ctx, sch.ID, member.ID)
		assert.Equal(t, scholium.ErrNotFound, err)
	})
}

func Test_scholiumService_Details(t *testing.T) {
	svc, fx := setup(t)
	ctx := context.Background()
	host := fx.createUser("Ada", "ada@test.cd")
	member := fx.createUser("Grace", "grace@test.cd")
	outsider := fx.createUser("Alan", "alan@test.cd")

	sch, err := svc.Create(ctx, host.ID, scholium.NewScholium{Name: "Algebra Club"})
	require.NoError(t, err)
	_, err = svc.Join(ctx, member.ID, sch.AccessCode)
	require.NoError(t, err)

	t.Run("non-member gets not found", func(t *testing.T) {
		_, err := svc.Details(ctx, sch.ID, outsider.ID)
		assert.Equal(t, scholium.ErrNotFound, err)
	})

	t.Run("member sees details", func(t *testing.T) {
		details, err := svc.Details(ctx, sch.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, details.IsHost)
		assert.Equal(t, 2, details.MemberCount)
		assert.Equal(t, sch.Name, details.Name)
	})

	t.Run("query by user", func(t *testing.T) {
		schs, err := svc.QueryByUser(ctx, member.ID)
		require.NoError(t, err)
		require.Len(t, schs, 1)
		assert.Equal(t, sch.ID, schs[0].ID)

		schs, err = svc.QueryByUser(ctx, outsider.ID)
		require.NoError(t, err)
		assert.Empty(t, schs)
	})
}
