package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/scholium-app/scholium/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *DB) homework.Repository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	hw.ID = repo.db.nextPK()
	repo.db.homework[hw.ID] = &hw
	return hw, nil
}

func (repo *homeworkRepository) GetHomework(ctx context.Context, scholiumID, homeworkID int) (homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if hw, ok := repo.db.homework[homeworkID]; ok && hw.ScholiumID == scholiumID {
		return repo.db.withSubjectFields(*hw), nil
	}
	return homework.Homework{}, homework.ErrNotFound
}

func (repo *homeworkRepository) GetHomeworkByID(ctx context.Context, homeworkID int) (homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if hw, ok := repo.db.homework[homeworkID]; ok {
		return repo.db.withSubjectFields(*hw), nil
	}
	return homework.Homework{}, homework.ErrNotFound
}

func (repo *homeworkRepository) QueryHomework(ctx context.Context, scholiumID, forUserID int) ([]homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	hws := make([]homework.Homework, 0)
	for _, hw := range repo.db.homework {
		if hw.ScholiumID == scholiumID {
			hws = append(hws, repo.db.withCompletion(repo.db.withSubjectFields(*hw), forUserID))
		}
	}
	sortHomework(hws)
	return hws, nil
}

func (repo *homeworkRepository) QueryHomeworkDueBetween(ctx context.Context, scholiumID, forUserID int, from, to time.Time) ([]homework.Homework, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	hws := make([]homework.Homework, 0)
	for _, hw := range repo.db.homework {
		if hw.ScholiumID != scholiumID {
			continue
		}
		if hw.DueDate.Before(from) || hw.DueDate.After(to) {
			continue
		}
		hws = append(hws, repo.db.withCompletion(repo.db.withSubjectFields(*hw), forUserID))
	}
	sortHomework(hws)
	return hws, nil
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.homework[hw.ID]
	if !ok || orig.ScholiumID != hw.ScholiumID {
		return homework.Homework{}, homework.ErrNotFound
	}
	hw.CreatedBy = orig.CreatedBy
	hw.CreatedAt = orig.CreatedAt
	repo.db.homework[hw.ID] = &hw
	return hw, nil
}

func (repo *homeworkRepository) DeleteHomework(ctx context.Context, scholiumID, homeworkID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if hw, ok := repo.db.homework[homeworkID]; !ok || hw.ScholiumID != scholiumID {
		return homework.ErrNotFound
	}
	repo.db.deleteHomeworkCascade(homeworkID)
	return nil
}

func (repo *homeworkRepository) CreateSubject(ctx context.Context, sub homework.Subject) (homework.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sub.ID = repo.db.nextPK()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *homeworkRepository) GetSubject(ctx context.Context, scholiumID, subjectID int) (homework.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sub, ok := repo.db.subjects[subjectID]; ok && sub.ScholiumID == scholiumID {
		return *sub, nil
	}
	return homework.Subject{}, homework.ErrSubjectNotFound
}

func (repo *homeworkRepository) QuerySubjects(ctx context.Context, scholiumID int) ([]homework.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]homework.Subject, 0)
	for _, sub := range repo.db.subjects {
		if sub.ScholiumID == scholiumID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

func (repo *homeworkRepository) DeleteSubject(ctx context.Context, scholiumID, subjectID int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if sub, ok := repo.db.subjects[subjectID]; !ok || sub.ScholiumID != scholiumID {
		return homework.ErrSubjectNotFound
	}

	// dependent homework keeps its rows, losing only the subject link
	for _, hw := range repo.db.homework {
		if hw.SubjectID != nil && *hw.SubjectID == subjectID {
			hw.SubjectID = nil
		}
	}
	delete(repo.db.subjects, subjectID)
	return nil
}

func (repo *homeworkRepository) ToggleCompletion(ctx context.Context, userID, homeworkID int, now time.Time) (homework.Completion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := completionKey{userID: userID, homeworkID: homeworkID}
	comp, ok := repo.db.completions[key]
	if !ok {
		comp = &homework.Completion{UserID: userID, HomeworkID: homeworkID}
		repo.db.completions[key] = comp
	}

	comp.Completed = !comp.Completed
	if comp.Completed {
		comp.CompletedAt = &now
	} else {
		comp.CompletedAt = nil
	}
	return *comp, nil
}

func (repo *homeworkRepository) CreateAttachment(ctx context.Context, at homework.Attachment) (homework.Attachment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	at.ID = repo.db.nextPK()
	repo.db.attachments[at.ID] = &at
	return at, nil
}

func (repo *homeworkRepository) QueryAttachments(ctx context.Context, homeworkID int) ([]homework.Attachment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ats := make([]homework.Attachment, 0)
	for _, at := range repo.db.attachments {
		if at.HomeworkID == homeworkID {
			ats = append(ats, *at)
		}
	}
	sort.Slice(ats, func(i, j int) bool { return ats[i].ID < ats[j].ID })
	return ats, nil
}

// withSubjectFields must be called with db.mu held.
func (db *DB) withSubjectFields(hw homework.Homework) homework.Homework {
	if hw.SubjectID != nil {
		if sub, ok := db.subjects[*hw.SubjectID]; ok {
			hw.SubjectName = sub.Name
			hw.SubjectColor = sub.Color
		}
	}
	return hw
}

// withCompletion must be called with db.mu held.
func (db *DB) withCompletion(hw homework.Homework, userID int) homework.Homework {
	if comp, ok := db.completions[completionKey{userID: userID, homeworkID: hw.ID}]; ok {
		hw.Completed = comp.Completed
	}
	return hw
}

// deleteHomeworkCascade must be called with db.mu held.
func (db *DB) deleteHomeworkCascade(id int) {
	for key := range db.completions {
		if key.homeworkID == id {
			delete(db.completions, key)
		}
	}
	for atID, at := range db.attachments {
		if at.HomeworkID == id {
			delete(db.attachments, atID)
		}
	}
	delete(db.homework, id)
}

func sortHomework(hws []homework.Homework) {
	sort.Slice(hws, func(i, j int) bool {
		if hws[i].DueDate.Equal(hws[j].DueDate) {
			return hws[i].Title < hws[j].Title
		}
		return hws[i].DueDate.Before(hws[j].DueDate)
	})
}
