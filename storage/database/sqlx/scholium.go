package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/scholium"
)

type scholiumRepository struct {
	db *sqlx.DB
}

var _ scholium.Repository = (*scholiumRepository)(nil) // interface compliance check

func NewScholiumRepository(db *sqlx.DB) scholium.Repository {
	return &scholiumRepository{db: db}
}

func (repo *scholiumRepository) CreateScholium(ctx context.Context, sch scholium.Scholium, host scholium.Member) (scholium.Scholium, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return scholium.Scholium{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO scholium (name, user_id, access_code, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err = tx.QueryRowContext(ctx, query, sch.Name, sch.OwnerID, sch.AccessCode, sch.CreatedAt).Scan(&sch.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return scholium.Scholium{}, scholium.ErrCodeExists
		}
		return scholium.Scholium{}, errors.Wrap(err, "creating scholium")
	}

	query = `
		INSERT INTO scholium_member (scholium_id, user_id, is_host, can_add_homework, can_create_subject, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.ExecContext(ctx, query, sch.ID, host.UserID, host.IsHost, host.CanAddHomework, host.CanCreateSubject, host.JoinedAt)
	if err != nil {
		return scholium.Scholium{}, errors.Wrap(err, "creating host membership")
	}

	if err = tx.Commit(); err != nil {
		return scholium.Scholium{}, errors.Wrap(err, "committing scholium creation")
	}
	return sch, nil
}

func (repo *scholiumRepository) GetScholiumByID(ctx context.Context, id int) (scholium.Scholium, error) {
	var sch scholium.Scholium
	query := `SELECT * FROM scholium WHERE id = $1`
	if err := repo.db.GetContext(ctx, &sch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return scholium.Scholium{}, scholium.ErrNotFound
		}
		return scholium.Scholium{}, errors.Wrap(err, "getting scholium")
	}
	return sch, nil
}

func (repo *scholiumRepository) GetScholiumByCode(ctx context.Context, code string) (scholium.Scholium, error) {
	var sch scholium.Scholium
	query := `SELECT * FROM scholium WHERE access_code = $1`
	if err := repo.db.GetContext(ctx, &sch, query, code); err != nil {
		if err == sql.ErrNoRows {
			return scholium.Scholium{}, scholium.ErrNotFound
		}
		return scholium.Scholium{}, errors.Wrap(err, "getting scholium by code")
	}
	return sch, nil
}

func (repo *scholiumRepository) QueryUserScholiums(ctx context.Context, userID int) ([]scholium.Scholium, error) {
	var schs []scholium.Scholium
	query := `
		SELECT s.*
		FROM scholium s
		JOIN scholium_member m ON m.scholium_id = s.id
		WHERE m.user_id = $1
		ORDER BY s.created_at DESC`
	if err := repo.db.SelectContext(ctx, &schs, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying user scholiums")
	}
	return schs, nil
}

func (repo *scholiumRepository) SetAccessCode(ctx context.Context, scholiumID int, code string) error {
	query := `UPDATE scholium SET access_code = $2 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, scholiumID, code)
	if err != nil {
		if isUniqueViolation(err) {
			return scholium.ErrCodeExists
		}
		return errors.Wrap(err, "setting access code")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scholium.ErrNotFound
	}
	return nil
}

func (repo *scholiumRepository) DeleteScholium(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM scholium WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting scholium")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scholium.ErrNotFound
	}
	return nil
}

func (repo *scholiumRepository) CreateMember(ctx context.Context, m scholium.Member) (scholium.Member, error) {
	query := `
		INSERT INTO scholium_member (scholium_id, user_id, is_host, can_add_homework, can_create_subject, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		m.ScholiumID, m.UserID, m.IsHost, m.CanAddHomework, m.CanCreateSubject, m.JoinedAt,
	).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return scholium.Member{}, scholium.ErrAlreadyMember
		}
		return scholium.Member{}, errors.Wrap(err, "creating member")
	}
	return m, nil
}

func (repo *scholiumRepository) GetMember(ctx context.Context, scholiumID, userID int) (scholium.Member, error) {
	var m scholium.Member
	query := `
		SELECT m.*, u.name AS user_name, u.email AS user_email
		FROM scholium_member m
		JOIN "user" u ON u.id = m.user_id
		WHERE m.scholium_id = $1 AND m.user_id = $2`
	if err := repo.db.GetContext(ctx, &m, query, scholiumID, userID); err != nil {
		if err == sql.ErrNoRows {
			return scholium.Member{}, scholium.ErrNotFound
		}
		return scholium.Member{}, errors.Wrap(err, "getting member")
	}
	return m, nil
}

func (repo *scholiumRepository) QueryMembers(ctx context.Context, scholiumID int) ([]scholium.Member, error) {
	var members []scholium.Member
	query := `
		SELECT m.*, u.name AS user_name, u.email AS user_email
		FROM scholium_member m
		JOIN "user" u ON u.id = m.user_id
		WHERE m.scholium_id = $1
		ORDER BY m.joined_at ASC`
	if err := repo.db.SelectContext(ctx, &members, query, scholiumID); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return members, nil
}

func (repo *scholiumRepository) CountMembers(ctx context.Context, scholiumID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM scholium_member WHERE scholium_id = $1`
	if err := repo.db.GetContext(ctx, &count, query, scholiumID); err != nil {
		return 0, errors.Wrap(err, "counting members")
	}
	return count, nil
}

func (repo *scholiumRepository) UpdateMemberPermissions(ctx context.Context, scholiumID, userID int, canAddHomework, canCreateSubject bool) error {
	query := `
		UPDATE scholium_member
		SET can_add_homework = $3, can_create_subject = $4
		WHERE scholium_id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, query, scholiumID, userID, canAddHomework, canCreateSubject)
	if err != nil {
		return errors.Wrap(err, "updating member permissions")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scholium.ErrNotFound
	}
	return nil
}

func (repo *scholiumRepository) DeleteMember(ctx context.Context, memberID int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM scholium_member WHERE id = $1`, memberID)
	if err != nil {
		return errors.Wrap(err, "deleting member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scholium.ErrNotFound
	}
	return nil
}
