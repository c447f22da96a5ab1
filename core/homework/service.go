package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/scholium-app/scholium/core"
	"github.com/scholium-app/scholium/core/scholium"
)

var (
	// errors
	ErrNotFound         = errors.New("homework not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)

type (
	Repository interface {
		CreateHomework(ctx context.Context, hw Homework) (Homework, error)
		// GetHomework is scoped to one scholium: rows from another scholium
		// are ErrNotFound, never a permission error.
		GetHomework(ctx context.Context, scholiumID, homeworkID int) (Homework, error)
		GetHomeworkByID(ctx context.Context, homeworkID int) (Homework, error)
		// QueryHomework returns rows ordered by due date then title, with
		// subject join fields and forUserID's completion state.
		QueryHomework(ctx context.Context, scholiumID, forUserID int) ([]Homework, error)
		QueryHomeworkDueBetween(ctx context.Context, scholiumID, forUserID int, from, to time.Time) ([]Homework, error)
		UpdateHomework(ctx context.Context, hw Homework) (Homework, error)
		DeleteHomework(ctx context.Context, scholiumID, homeworkID int) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, scholiumID, subjectID int) (Subject, error)
		QuerySubjects(ctx context.Context, scholiumID int) ([]Subject, error)
		// DeleteSubject clears the subject reference on dependent homework
		// rows; it never deletes them.
		DeleteSubject(ctx context.Context, scholiumID, subjectID int) error

		// ToggleCompletion upserts the (user, homework) row, flipping its
		// completed state.
		ToggleCompletion(ctx context.Context, userID, homeworkID int, now time.Time) (Completion, error)

		CreateAttachment(ctx context.Context, at Attachment) (Attachment, error)
		QueryAttachments(ctx context.Context, homeworkID int) ([]Attachment, error)
	}

	Service interface {
		Create(ctx context.Context, userID, scholiumID int, nh NewHomework) (Homework, error)
		Update(ctx context.Context, userID, scholiumID, homeworkID int, uh UpdateHomework) (Homework, error)
		Delete(ctx context.Context, userID, scholiumID, homeworkID int) error
		Query(ctx context.Context, userID, scholiumID int) ([]Homework, error)
		UpcomingDeadlines(ctx context.Context, userID, scholiumID, windowDays int) ([]Homework, error)
		CreateSubject(ctx context.Context, userID, scholiumID int, ns NewSubject) (Subject, error)
		DeleteSubject(ctx context.Context, userID, scholiumID, subjectID int) error
		Subjects(ctx context.Context, userID, scholiumID int) ([]Subject, error)
		ToggleCompletion(ctx context.Context, userID, homeworkID int) (Completion, error)
		AddAttachment(ctx context.Context, userID, scholiumID, homeworkID int, na NewAttachment) (Attachment, error)
		Attachments(ctx context.Context, userID, scholiumID, homeworkID int) ([]Attachment, error)
	}

	service struct {
		repo    Repository
		members scholium.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, members scholium.Service) Service {
	return &service{repo: repo, members: members}
}

func (svc *service) Create(ctx context.Context, userID, scholiumID int, nh NewHomework) (Homework, error) {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return Homework{}, err
	}
	if !state.CanAddHomework {
		return Homework{}, ErrPermissionDenied
	}

	due, err := parseDate(nh.DueDate)
	if err != nil {
		return Homework{}, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: "invalid date"})
	}
	if err = checkTimeRange(nh.StartTime, nh.EndTime); err != nil {
		return Homework{}, err
	}
	if nh.SubjectID != nil {
		if _, err = svc.repo.GetSubject(ctx, scholiumID, *nh.SubjectID); err != nil {
			return Homework{}, err
		}
	}

	if nh.Type == "" {
		nh.Type = TypeAssignment
	}

	now := time.Now().UTC()
	hw := Homework{
		ScholiumID:  scholiumID,
		SubjectID:   nh.SubjectID,
		Title:       nh.Title,
		Description: nh.Description,
		Type:        nh.Type,
		DueDate:     due,
		StartTime:   nh.StartTime,
		EndTime:     nh.EndTime,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateHomework(ctx, hw)
}

func (svc *service) Update(ctx context.Context, userID, scholiumID, homeworkID int, uh UpdateHomework) (Homework, error) {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return Homework{}, err
	}
	if !state.CanAddHomework {
		return Homework{}, ErrPermissionDenied
	}

	hw, err := svc.repo.GetHomework(ctx, scholiumID, homeworkID)
	if err != nil {
		return Homework{}, err
	}

	if uh.Title != "" {
		hw.Title = uh.Title
	}
	if uh.Description != nil {
		hw.Description = core.CleanString(*uh.Description)
	}
	if uh.Type != "" {
		hw.Type = uh.Type
	}
	if uh.DueDate != "" {
		due, err := parseDate(uh.DueDate)
		if err != nil {
			return Homework{}, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: "invalid date"})
		}
		hw.DueDate = due
	}
	if uh.StartTime != nil {
		hw.StartTime = *uh.StartTime
	}
	if uh.EndTime != nil {
		hw.EndTime = *uh.EndTime
	}
	if err = checkTimeRange(hw.StartTime, hw.EndTime); err != nil {
		return Homework{}, err
	}
	if uh.SubjectID != nil {
		if _, err = svc.repo.GetSubject(ctx, scholiumID, *uh.SubjectID); err != nil {
			return Homework{}, err
		}
		hw.SubjectID = uh.SubjectID
	}
	hw.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateHomework(ctx, hw)
}

func (svc *service) Delete(ctx context.Context, userID, scholiumID, homeworkID int) error {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return err
	}
	if !state.CanAddHomework {
		return ErrPermissionDenied
	}
	return svc.repo.DeleteHomework(ctx, scholiumID, homeworkID)
}

func (svc *service) Query(ctx context.Context, userID, scholiumID int) ([]Homework, error) {
	if _, err := svc.members.MemberState(ctx, scholiumID, userID); err != nil {
		return nil, err
	}
	return svc.repo.QueryHomework(ctx, scholiumID, userID)
}

// UpcomingDeadlines returns homework due within [today, today+windowDays],
// due date ascending with title as the tie-break.
func (svc *service) UpcomingDeadlines(ctx context.Context, userID, scholiumID, windowDays int) ([]Homework, error) {
	if _, err := svc.members.MemberState(ctx, scholiumID, userID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, windowDays)
	return svc.repo.QueryHomeworkDueBetween(ctx, scholiumID, userID, from, to)
}

func (svc *service) CreateSubject(ctx context.Context, userID, scholiumID int, ns NewSubject) (Subject, error) {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return Subject{}, err
	}
	if !state.CanCreateSubject {
		return Subject{}, ErrPermissionDenied
	}

	sub := Subject{
		ScholiumID: scholiumID,
		Name:       ns.Name,
		Color:      paletteColor(ns.Color),
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) DeleteSubject(ctx context.Context, userID, scholiumID, subjectID int) error {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return err
	}
	if !state.CanCreateSubject {
		return ErrPermissionDenied
	}
	return svc.repo.DeleteSubject(ctx, scholiumID, subjectID)
}

func (svc *service) Subjects(ctx context.Context, userID, scholiumID int) ([]Subject, error) {
	if _, err := svc.members.MemberState(ctx, scholiumID, userID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySubjects(ctx, scholiumID)
}

func (svc *service) ToggleCompletion(ctx context.Context, userID, homeworkID int) (Completion, error) {
	hw, err := svc.repo.GetHomeworkByID(ctx, homeworkID)
	if err != nil {
		return Completion{}, err
	}
	if _, err = svc.members.MemberState(ctx, hw.ScholiumID, userID); err != nil {
		return Completion{}, err
	}
	return svc.repo.ToggleCompletion(ctx, userID, homeworkID, time.Now().UTC())
}

func (svc *service) AddAttachment(ctx context.Context, userID, scholiumID, homeworkID int, na NewAttachment) (Attachment, error) {
	state, err := svc.members.MemberState(ctx, scholiumID, userID)
	if err != nil {
		return Attachment{}, err
	}
	if !state.CanAddHomework {
		return Attachment{}, ErrPermissionDenied
	}
	if _, err = svc.repo.GetHomework(ctx, scholiumID, homeworkID); err != nil {
		return Attachment{}, err
	}

	at := Attachment{
		HomeworkID: homeworkID,
		Filename:   na.Filename,
		URL:        na.URL,
		Size:       na.Size,
	}
	return svc.repo.CreateAttachment(ctx, at)
}

func (svc *service) Attachments(ctx context.Context, userID, scholiumID, homeworkID int) ([]Attachment, error) {
	if _, err := svc.members.MemberState(ctx, scholiumID, userID); err != nil {
		return nil, err
	}
	if _, err := svc.repo.GetHomework(ctx, scholiumID, homeworkID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttachments(ctx, homeworkID)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// checkTimeRange is the authoritative start<end check; handlers surface the
// same rule earlier through validator tags.
func checkTimeRange(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	if _, err := time.Parse(timeLayout, start); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "start_time", Error: "invalid time"})
	}
	if _, err := time.Parse(timeLayout, end); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "end_time", Error: "invalid time"})
	}
	if end <= start {
		return core.NewValidationError(ErrInvalidTimeRange, core.FieldError{Field: "end_time", Error: ErrInvalidTimeRange.Error()})
	}
	return nil
}

func paletteColor(color string) string {
	for _, c := range SubjectColors {
		if color == c {
			return c
		}
	}
	return SubjectColors[0]
}
