package admin

import (
	"context"
	"time"
)

type (
	// Stats are the aggregate counts shown on the console dashboard.
	Stats struct {
		TotalUsers       int `json:"total_users" db:"total_users"`
		TotalScholiums   int `json:"total_scholiums" db:"total_scholiums"`
		TotalHomework    int `json:"total_homework" db:"total_homework"`
		TotalCompletions int `json:"total_completions" db:"total_completions"`
	}

	// ScholiumSummary is a scholium row joined with its creator and member
	// count, for the console listing.
	ScholiumSummary struct {
		ID           int       `json:"id" db:"id"`
		Name         string    `json:"name" db:"name"`
		AccessCode   string    `json:"access_code" db:"access_code"`
		CreatorName  string    `json:"creator_name" db:"creator_name"`
		CreatorEmail string    `json:"creator_email" db:"creator_email"`
		MemberCount  int       `json:"member_count" db:"member_count"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"`
	}

	Repository interface {
		GetStats(ctx context.Context) (Stats, error)
		QueryScholiumSummaries(ctx context.Context) ([]ScholiumSummary, error)
	}

	Service interface {
		Stats(ctx context.Context) (Stats, error)
		QueryScholiums(ctx context.Context) ([]ScholiumSummary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.GetStats(ctx)
}

func (svc *service) QueryScholiums(ctx context.Context) ([]ScholiumSummary, error) {
	return svc.repo.QueryScholiumSummaries(ctx)
}
