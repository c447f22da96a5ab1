package dummydb

import (
	"context"
	"sort"

	"github.com/scholium-app/scholium/core/admin"
)

type adminRepository struct {
	db *DB
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *DB) admin.Repository {
	return &adminRepository{db: db}
}

func (repo *adminRepository) GetStats(ctx context.Context) (admin.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	// completion rows are counted whether or not they are currently toggled
	// on; a row exists once a user has ever marked the homework done
	return admin.Stats{
		TotalUsers:       len(repo.db.users),
		TotalScholiums:   len(repo.db.scholiums),
		TotalHomework:    len(repo.db.homework),
		TotalCompletions: len(repo.db.completions),
	}, nil
}

func (repo *adminRepository) QueryScholiumSummaries(ctx context.Context) ([]admin.ScholiumSummary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	summaries := make([]admin.ScholiumSummary, 0, len(repo.db.scholiums))
	for _, sch := range repo.db.scholiums {
		summary := admin.ScholiumSummary{
			ID:         sch.ID,
			Name:       sch.Name,
			AccessCode: sch.AccessCode,
			CreatedAt:  sch.CreatedAt,
		}
		if usr, ok := repo.db.users[sch.OwnerID]; ok {
			summary.CreatorName = usr.Name
			summary.CreatorEmail = usr.Email
		}
		for _, m := range repo.db.members {
			if m.ScholiumID == sch.ID {
				summary.MemberCount++
			}
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].CreatedAt.After(summaries[j].CreatedAt) })
	return summaries, nil
}
