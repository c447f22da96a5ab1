package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/admin"
)

type adminRepository struct {
	db *sqlx.DB
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB) admin.Repository {
	return &adminRepository{db: db}
}

func (repo *adminRepository) GetStats(ctx context.Context) (admin.Stats, error) {
	var stats admin.Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM "user") AS total_users,
			(SELECT COUNT(*) FROM scholium) AS total_scholiums,
			(SELECT COUNT(*) FROM homework) AS total_homework,
			(SELECT COUNT(*) FROM homework_completion) AS total_completions`
	if err := repo.db.GetContext(ctx, &stats, query); err != nil {
		return admin.Stats{}, errors.Wrap(err, "getting stats")
	}
	return stats, nil
}

func (repo *adminRepository) QueryScholiumSummaries(ctx context.Context) ([]admin.ScholiumSummary, error) {
	var summaries []admin.ScholiumSummary
	query := `
		SELECT
			s.id, s.name, s.access_code, s.created_at,
			u.name AS creator_name,
			u.email AS creator_email,
			(SELECT COUNT(*) FROM scholium_member m WHERE m.scholium_id = s.id) AS member_count
		FROM scholium s
		JOIN "user" u ON u.id = s.user_id
		ORDER BY s.created_at DESC`
	if err := repo.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, errors.Wrap(err, "querying scholium summaries")
	}
	return summaries, nil
}
