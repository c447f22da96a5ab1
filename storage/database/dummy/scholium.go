package dummydb

import (
	"context"
	"sort"

	"github.com/scholium-app/scholium/core/scholium"
)

type scholiumRepository struct {
	db *DB
}

var _ scholium.Repository = (*scholiumRepository)(nil) // interface compliance check

func NewScholiumRepository(db *DB) scholium.Repository {
	return &scholiumRepository{db: db}
}

func (repo *scholiumRepository) CreateScholium(ctx context.Context, sch scholium.Scholium, host scholium.Member) (scholium.Scholium, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, s := range repo.db.scholiums {
		if s.AccessCode == sch.AccessCode {
			return scholium.Scholium{}, scholium.ErrCodeExists
		}
	}

	sch.ID = repo.db.nextPK()
	repo.db.scholiums[sch.ID] = &sch

	host.ID = repo.db.nextPK()
	host.ScholiumID = sch.ID
	repo.db.members[host.ID] = &host
	return sch, nil
}

func (repo *scholiumRepository) GetScholiumByID(ctx context.Context, id int) (scholium.Scholium, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.scholiums[id]; ok {
		return *sch, nil
	}
	return scholium.Scholium{}, scholium.ErrNotFound
}

func (repo *scholiumRepository) GetScholiumByCode(ctx context.Context, code string) (scholium.Scholium, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, sch := range repo.db.scholiums {
		if sch.AccessCode == code {
			return *sch, nil
		}
	}
	return scholium.Scholium{}, scholium.ErrNotFound
}

func (repo *scholiumRepository) QueryUserScholiums(ctx context.Context, userID int) ([]scholium.Scholium, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	schs := make([]scholium.Scholium, 0)
	for _, m := range repo.db.members {
		if m.UserID == userID {
			if sch, ok := repo.db.scholiums[m.ScholiumID]; ok {
				schs = append(schs, *sch)
			}
		}
	}
	sort.Slice(schs, func(i, j int) bool { return schs[i].CreatedAt.After(schs[j].CreatedAt) })
	return schs, nil
}

func (repo *scholiumRepository) SetAccessCode(ctx context.Context, scholiumID int, code string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch, ok := repo.db.scholiums[scholiumID]
	if !ok {
		return scholium.ErrNotFound
	}
	for id, s := range repo.db.scholiums {
		if id != scholiumID && s.AccessCode == code {
			return scholium.ErrCodeExists
		}
	}
	sch.AccessCode = code
	return nil
}

func (repo *scholiumRepository) DeleteScholium(ctx context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.scholiums[id]; !ok {
		return scholium.ErrNotFound
	}
	repo.db.deleteScholiumCascade(id)
	return nil
}

func (repo *scholiumRepository) CreateMember(ctx context.Context, m scholium.Member) (scholium.Member, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, existing := range repo.db.members {
		if existing.ScholiumID == m.ScholiumID && existing.UserID == m.UserID {
			return scholium.Member{}, scholium.ErrAlreadyMember
		}
	}

	m.ID = repo.db.nextPK()
	repo.db.members[m.ID] = &m
	return m, nil
}

func (repo *scholiumRepository) GetMember(ctx context.Context, scholiumID, userID int) (scholium.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, m := range repo.db.members {
		if m.ScholiumID == scholiumID && m.UserID == userID {
			return repo.db.withUserFields(*m), nil
		}
	}
	return scholium.Member{}, scholium.ErrNotFound
}

func (repo *scholiumRepository) QueryMembers(ctx context.Context, scholiumID int) ([]scholium.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	members := make([]scholium.Member, 0)
	for _, m := range repo.db.members {
		if m.ScholiumID == scholiumID {
			members = append(members, repo.db.withUserFields(*m))
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (repo *scholiumRepository) CountMembers(ctx context.Context, scholiumID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, m := range repo.db.members {
		if m.ScholiumID == scholiumID {
			count++
		}
	}
	return count, nil
}

func (repo *scholiumRepository) UpdateMemberPermissions(ctx context.Context, scholiumID, userID int, canAddHomework, canCreateSubject bool) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, m := range repo.db.members {
		if m.ScholiumID == scholiumID && m.UserID == userID {
			m.CanAddHomework = canAddHomework
			m.CanCreateSubject = canCreateSubject
			return nil
		}
	}
	return scholium.ErrNotFound
}

func (repo *scholiumRepository) DeleteMember(ctx context.Context, memberID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.members[memberID]; !ok {
		return scholium.ErrNotFound
	}
	delete(repo.db.members, memberID)
	return nil
}

// withUserFields must be called with db.mu held.
func (db *DB) withUserFields(m scholium.Member) scholium.Member {
	if usr, ok := db.users[m.UserID]; ok {
		m.UserName = usr.Name
		m.UserEmail = usr.Email
	}
	return m
}

// deleteScholiumCascade must be called with db.mu held. It mirrors the FK
// cascades of the real schema.
func (db *DB) deleteScholiumCascade(id int) {
	for mID, m := range db.members {
		if m.ScholiumID == id {
			delete(db.members, mID)
		}
	}
	for subID, sub := range db.subjects {
		if sub.ScholiumID == id {
			delete(db.subjects, subID)
		}
	}
	for hwID, hw := range db.homework {
		if hw.ScholiumID == id {
			db.deleteHomeworkCascade(hwID)
		}
	}
	delete(db.scholiums, id)
}
