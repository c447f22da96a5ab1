package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium-app/scholium/core"
	"github.com/scholium-app/scholium/core/session"
	"github.com/scholium-app/scholium/core/user"
	emailsvc "github.com/scholium-app/scholium/services/email"
	dummydb "github.com/scholium-app/scholium/storage/database/dummy"
)

func setup(t *testing.T) (user.Service, *dummydb.DB, *core.Config) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := core.NewConfig()
	conf.TestMode = true
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	return user.NewService(dummydb.NewUserRepository(db), mailSvc, conf), db, conf
}

func Test_userService_SignUp(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	t.Run("new account is a student", func(t *testing.T) {
		usr, err := svc.SignUp(ctx, user.NewUser{
			Email:    "ada@test.cd",
			Name:     "Ada",
			Password: "s3cr3t!",
			Role:     user.RoleAdmin, // must be ignored
		})
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.NotEmpty(t, usr.ID)
		assert.NoError(t, usr.CheckPassword("s3cr3t!"))
	})

	t.Run("duplicate email is a field error", func(t *testing.T) {
		_, err := svc.SignUp(ctx, user.NewUser{
			Email:    "ada@test.cd",
			Name:     "Ada Again",
			Password: "s3cr3t!",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

// racingUserRepo lets a duplicate slip past the pre-insert check so the
// unique-violation path of CreateUser is reachable.
type racingUserRepo struct {
	user.Repository
}

func (racingUserRepo) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	return nil
}

func Test_userService_Create_concurrentDuplicate(t *testing.T) {
	db, err := dummydb.Open()
	require.NoError(t, err)
	conf := core.NewConfig()
	conf.TestMode = true
	svc := user.NewService(
		racingUserRepo{Repository: dummydb.NewUserRepository(db)},
		emailsvc.NewConsoleServiceMock(conf),
		conf,
	)
	ctx := context.Background()

	_, err = svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada", Password: "s3cr3t!"})
	require.NoError(t, err)

	// the insert itself reports the duplicate; it must surface as the same
	// field error the pre-insert check produces
	_, err = svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada Again", Password: "s3cr3t!"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "email", vErr.Fields[0].Field)
	assert.Equal(t, user.ErrEmailExists.Error(), vErr.Fields[0].Error)
}

func Test_userService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Email:    "root@test.cd",
		Name:     "Root",
		Password: "s3cr3t!",
		Role:     user.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.True(t, usr.IsAdmin())
}

func Test_userService_ChangePassword(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.SignUp(ctx, user.NewUser{Email: "grace@test.cd", Name: "Grace", Password: "oldpassword"})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, usr.ID, user.ChangePassword{
			CurrentPassword: "nope",
			NewPassword:     "newpassword",
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("valid change", func(t *testing.T) {
		err := svc.ChangePassword(ctx, usr.ID, user.ChangePassword{
			CurrentPassword: "oldpassword",
			NewPassword:     "newpassword",
		})
		require.NoError(t, err)

		fresh, err := svc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Error(t, fresh.CheckPassword("oldpassword"))
		assert.NoError(t, fresh.CheckPassword("newpassword"))
	})
}

func Test_userService_UpdateProfile(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.SignUp(ctx, user.NewUser{Email: "alan@test.cd", Name: "Alan", Password: "s3cr3t!"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, usr.ID, user.UpdateProfile{
		ProfilePictureURL: "https://files.test.cd/alan.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alan", updated.Name) // untouched
	assert.Equal(t, "https://files.test.cd/alan.png", updated.ProfilePictureURL)
}

func Test_userService_UpdateRole(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, user.NewUser{Email: "root@test.cd", Name: "Root", Password: "s3cr3t!", Role: user.RoleAdmin})
	require.NoError(t, err)
	student, err := svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada", Password: "s3cr3t!"})
	require.NoError(t, err)

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		err := svc.UpdateRole(ctx, admin.ID, user.RoleStudent)
		assert.Equal(t, user.ErrLastAdmin, err)
	})

	t.Run("promote then demote", func(t *testing.T) {
		require.NoError(t, svc.UpdateRole(ctx, student.ID, user.RoleAdmin))
		require.NoError(t, svc.UpdateRole(ctx, admin.ID, user.RoleStudent))

		fresh, err := svc.GetByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, fresh.Role)
	})
}

func Test_userService_Delete(t *testing.T) {
	svc, db, conf := setup(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, user.NewUser{Email: "root@test.cd", Name: "Root", Password: "s3cr3t!", Role: user.RoleAdmin})
	require.NoError(t, err)
	student, err := svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada", Password: "s3cr3t!"})
	require.NoError(t, err)

	t.Run("self delete is refused", func(t *testing.T) {
		assert.Equal(t, user.ErrSelfDelete, svc.Delete(ctx, admin.ID, admin.ID))
	})

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		assert.Equal(t, user.ErrLastAdmin, svc.Delete(ctx, student.ID, admin.ID))
	})

	t.Run("sessions go with the user", func(t *testing.T) {
		sessSvc := session.NewService(dummydb.NewSessionRepository(db), conf)
		sess, err := sessSvc.Create(ctx, student.ID)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, admin.ID, student.ID))

		_, err = svc.GetByID(ctx, student.ID)
		assert.Equal(t, user.ErrNotFound, err)
		_, err = sessSvc.Resolve(ctx, sess.Token)
		assert.Equal(t, session.ErrNotFound, err)
	})
}

func Test_userService_VerifyEmail(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr, err := svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada", Password: "s3cr3t!"})
	require.NoError(t, err)
	require.False(t, usr.EmailVerified)

	require.NoError(t, svc.VerifyEmail(ctx, usr.ID))

	fresh, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, fresh.EmailVerified)
	assert.True(t, fresh.UpdatedAt.After(usr.UpdatedAt) || fresh.UpdatedAt.Equal(usr.UpdatedAt))
}

func Test_userService_GetByEmail(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, user.NewUser{Email: "ada@test.cd", Name: "Ada", Password: "s3cr3t!"})
	require.NoError(t, err)

	// lookups normalize casing and spacing
	usr, err := svc.GetByEmail(ctx, "  Ada@Test.CD ")
	require.NoError(t, err)
	assert.Equal(t, "ada@test.cd", usr.Email)

	_, err = svc.GetByEmail(ctx, "nobody@test.cd")
	assert.Equal(t, user.ErrNotFound, err)
}
