package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core/homework"
)

type homeworkRepository struct {
	db *sqlx.DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *sqlx.DB) homework.Repository {
	return &homeworkRepository{db: db}
}

const homeworkColumns = `
	h.*,
	COALESCE(s.name, '') AS subject_name,
	COALESCE(s.color, '') AS subject_color,
	COALESCE(c.completed, false) AS completed`

func (repo *homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	query := `
		INSERT INTO homework (scholium_id, subject_id, title, description, homework_type, due_date, start_time, end_time, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		hw.ScholiumID, hw.SubjectID, hw.Title, hw.Description, hw.Type, hw.DueDate, hw.StartTime, hw.EndTime, hw.CreatedBy, hw.CreatedAt, hw.UpdatedAt,
	).Scan(&hw.ID)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "creating homework")
	}
	return hw, nil
}

func (repo *homeworkRepository) GetHomework(ctx context.Context, scholiumID, homeworkID int) (homework.Homework, error) {
	var hw homework.Homework
	query := `
		SELECT h.*, COALESCE(s.name, '') AS subject_name, COALESCE(s.color, '') AS subject_color, false AS completed
		FROM homework h
		LEFT JOIN subject s ON s.id = h.subject_id
		WHERE h.scholium_id = $1 AND h.id = $2`
	if err := repo.db.GetContext(ctx, &hw, query, scholiumID, homeworkID); err != nil {
		if err == sql.ErrNoRows {
			return homework.Homework{}, homework.ErrNotFound
		}
		return homework.Homework{}, errors.Wrap(err, "getting homework")
	}
	return hw, nil
}

func (repo *homeworkRepository) GetHomeworkByID(ctx context.Context, homeworkID int) (homework.Homework, error) {
	var hw homework.Homework
	query := `
		SELECT h.*, COALESCE(s.name, '') AS subject_name, COALESCE(s.color, '') AS subject_color, false AS completed
		FROM homework h
		LEFT JOIN subject s ON s.id = h.subject_id
		WHERE h.id = $1`
	if err := repo.db.GetContext(ctx, &hw, query, homeworkID); err != nil {
		if err == sql.ErrNoRows {
			return homework.Homework{}, homework.ErrNotFound
		}
		return homework.Homework{}, errors.Wrap(err, "getting homework")
	}
	return hw, nil
}

func (repo *homeworkRepository) QueryHomework(ctx context.Context, scholiumID, forUserID int) ([]homework.Homework, error) {
	var hws []homework.Homework
	query := `
		SELECT ` + homeworkColumns + `
		FROM homework h
		LEFT JOIN subject s ON s.id = h.subject_id
		LEFT JOIN homework_completion c ON c.homework_id = h.id AND c.user_id = $2
		WHERE h.scholium_id = $1
		ORDER BY h.due_date ASC, h.title ASC`
	if err := repo.db.SelectContext(ctx, &hws, query, scholiumID, forUserID); err != nil {
		return nil, errors.Wrap(err, "querying homework")
	}
	return hws, nil
}

func (repo *homeworkRepository) QueryHomeworkDueBetween(ctx context.Context, scholiumID, forUserID int, from, to time.Time) ([]homework.Homework, error) {
	var hws []homework.Homework
	query := `
		SELECT ` + homeworkColumns + `
		FROM homework h
		LEFT JOIN subject s ON s.id = h.subject_id
		LEFT JOIN homework_completion c ON c.homework_id = h.id AND c.user_id = $2
		WHERE h.scholium_id = $1 AND h.due_date BETWEEN $3 AND $4
		ORDER BY h.due_date ASC, h.title ASC`
	if err := repo.db.SelectContext(ctx, &hws, query, scholiumID, forUserID, from, to); err != nil {
		return nil, errors.Wrap(err, "querying homework deadlines")
	}
	return hws, nil
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	query := `
		UPDATE homework
		SET subject_id = $3, title = $4, description = $5, homework_type = $6, due_date = $7, start_time = $8, end_time = $9, updated_at = $10
		WHERE scholium_id = $1 AND id = $2`
	res, err := repo.db.ExecContext(
		ctx, query,
		hw.ScholiumID, hw.ID, hw.SubjectID, hw.Title, hw.Description, hw.Type, hw.DueDate, hw.StartTime, hw.EndTime, hw.UpdatedAt,
	)
	if err != nil {
		return homework.Homework{}, errors.Wrap(err, "updating homework")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.Homework{}, homework.ErrNotFound
	}
	return hw, nil
}

func (repo *homeworkRepository) DeleteHomework(ctx context.Context, scholiumID, homeworkID int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM homework WHERE scholium_id = $1 AND id = $2`, scholiumID, homeworkID)
	if err != nil {
		return errors.Wrap(err, "deleting homework")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.ErrNotFound
	}
	return nil
}

func (repo *homeworkRepository) CreateSubject(ctx context.Context, sub homework.Subject) (homework.Subject, error) {
	query := `
		INSERT INTO subject (scholium_id, name, color, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, sub.ScholiumID, sub.Name, sub.Color, sub.CreatedAt).Scan(&sub.ID)
	if err != nil {
		return homework.Subject{}, errors.Wrap(err, "creating subject")
	}
	return sub, nil
}

func (repo *homeworkRepository) GetSubject(ctx context.Context, scholiumID, subjectID int) (homework.Subject, error) {
	var sub homework.Subject
	query := `SELECT * FROM subject WHERE scholium_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &sub, query, scholiumID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return homework.Subject{}, homework.ErrSubjectNotFound
		}
		return homework.Subject{}, errors.Wrap(err, "getting subject")
	}
	return sub, nil
}

func (repo *homeworkRepository) QuerySubjects(ctx context.Context, scholiumID int) ([]homework.Subject, error) {
	var subs []homework.Subject
	query := `SELECT * FROM subject WHERE scholium_id = $1 ORDER BY name ASC`
	if err := repo.db.SelectContext(ctx, &subs, query, scholiumID); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subs, nil
}

func (repo *homeworkRepository) DeleteSubject(ctx context.Context, scholiumID, subjectID int) error {
	// the subject_id FK is ON DELETE SET NULL; dependent homework survives.
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE scholium_id = $1 AND id = $2`, scholiumID, subjectID)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return homework.ErrSubjectNotFound
	}
	return nil
}

func (repo *homeworkRepository) ToggleCompletion(ctx context.Context, userID, homeworkID int, now time.Time) (homework.Completion, error) {
	var comp homework.Completion
	query := `
		INSERT INTO homework_completion (user_id, homework_id, completed, completed_at)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (user_id, homework_id) DO UPDATE
		SET completed = NOT homework_completion.completed,
		    completed_at = CASE WHEN homework_completion.completed THEN NULL ELSE $3 END
		RETURNING *`
	if err := repo.db.GetContext(ctx, &comp, query, userID, homeworkID, now); err != nil {
		return homework.Completion{}, errors.Wrap(err, "toggling completion")
	}
	return comp, nil
}

func (repo *homeworkRepository) CreateAttachment(ctx context.Context, at homework.Attachment) (homework.Attachment, error) {
	query := `
		INSERT INTO homework_attachment (homework_id, filename, url, size)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, query, at.HomeworkID, at.Filename, at.URL, at.Size).Scan(&at.ID)
	if err != nil {
		return homework.Attachment{}, errors.Wrap(err, "creating attachment")
	}
	return at, nil
}

func (repo *homeworkRepository) QueryAttachments(ctx context.Context, homeworkID int) ([]homework.Attachment, error) {
	var ats []homework.Attachment
	query := `SELECT * FROM homework_attachment WHERE homework_id = $1 ORDER BY id ASC`
	if err := repo.db.SelectContext(ctx, &ats, query, homeworkID); err != nil {
		return nil, errors.Wrap(err, "querying attachments")
	}
	return ats, nil
}
