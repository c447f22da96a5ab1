package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/user"
)

const uniqueViolation = pq.ErrorCode("23505")

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND id != ALL($2)`
		args = append(args, pq.Array(ids))
	}

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO "user" (email, name, role, email_verified, profile_picture_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		usr.Email, usr.Name, usr.Role, usr.EmailVerified, usr.ProfilePictureURL, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	query := `SELECT * FROM "user" ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &users, query); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	query := `SELECT * FROM "user" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &usr, query, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	query := `SELECT * FROM "user" WHERE email = $1`
	if err := repo.db.GetContext(ctx, &usr, query, email); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return usr, nil
}

func (repo *userRepository) UpdateProfile(ctx context.Context, id int, name, pictureURL string, updatedAt time.Time) (user.User, error) {
	query := `
		UPDATE "user"
		SET name = COALESCE(NULLIF($2, ''), name),
		    profile_picture_url = COALESCE(NULLIF($3, ''), profile_picture_url),
		    updated_at = $4
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, name, pictureURL, updatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *userRepository) SetPasswordHash(ctx context.Context, id int, hash []byte, updatedAt time.Time) error {
	query := `UPDATE "user" SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, hash, updatedAt)
	if err != nil {
		return errors.Wrap(err, "setting password hash")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) SetEmailVerified(ctx context.Context, id int, updatedAt time.Time) error {
	query := `UPDATE "user" SET email_verified = true, updated_at = $2 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, updatedAt)
	if err != nil {
		return errors.Wrap(err, "setting email verified")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) SetRole(ctx context.Context, id int, role string, updatedAt time.Time) error {
	query := `UPDATE "user" SET role = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id, role, updatedAt)
	if err != nil {
		return errors.Wrap(err, "setting role")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM "user" WHERE role = $1`
	if err := repo.db.GetContext(ctx, &count, query, user.RoleAdmin); err != nil {
		return 0, errors.Wrap(err, "counting admins")
	}
	return count, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// dependent rows go first; FK cascades cover memberships, owned scholiums
	// and authored homework.
	if _, err = tx.ExecContext(ctx, `DELETE FROM session WHERE user_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting user sessions")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM homework_completion WHERE user_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting user completions")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}

	return errors.Wrap(tx.Commit(), "committing user deletion")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
