package homework

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scholium-app/scholium/core"
)

// Homework types
const (
	TypeAssignment   = "assignment"
	TypeProject      = "project"
	TypeReading      = "reading"
	TypeEssay        = "essay"
	TypePresentation = "presentation"
	TypeExam         = "exam"
	TypeOther        = "other"
)

var AllTypes = []string{TypeAssignment, TypeProject, TypeReading, TypeEssay, TypePresentation, TypeExam, TypeOther}

// SubjectColors is the palette subjects pick from; anything else falls back
// to the first entry. Informational only.
var SubjectColors = []string{"#6366f1", "#ec4899", "#f59e0b", "#10b981", "#3b82f6", "#8b5cf6", "#ef4444", "#14b8a6"}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Subject struct {
	ID         int       `json:"id" db:"id"`
	ScholiumID int       `json:"scholium_id" db:"scholium_id"`
	Name       string    `json:"name" db:"name"`
	Color      string    `json:"color" db:"color"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
}

// Homework is one assignment within a scholium. SubjectName/SubjectColor are
// join fields; Completed reflects the querying user's completion row.
type Homework struct {
	ID          int       `json:"id" db:"id"`
	ScholiumID  int       `json:"scholium_id" db:"scholium_id"`
	SubjectID   *int      `json:"subject_id" db:"subject_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Type        string    `json:"homework_type" db:"homework_type"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	StartTime   string    `json:"start_time,omitempty" db:"start_time"` // "HH:MM", optional
	EndTime     string    `json:"end_time,omitempty" db:"end_time"`     // "HH:MM", optional
	CreatedBy   int       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC

	SubjectName  string `json:"subject_name,omitempty" db:"subject_name"`
	SubjectColor string `json:"subject_color,omitempty" db:"subject_color"`
	Completed    bool   `json:"completed" db:"completed"`
}

type Completion struct {
	UserID      int        `json:"user_id" db:"user_id"`
	HomeworkID  int        `json:"homework_id" db:"homework_id"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"` // UTC
}

type Attachment struct {
	ID         int    `json:"id" db:"id"`
	HomeworkID int    `json:"homework_id" db:"homework_id"`
	Filename   string `json:"filename" db:"filename"`
	URL        string `json:"url" db:"url"`
	Size       int64  `json:"size" db:"size"`
}

// NewHomework contains information needed to create a Homework item.
type NewHomework struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	SubjectID   *int   `json:"subject_id"`
	Type        string `json:"homework_type" validate:"omitempty,hwType"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"omitempty,datetime=15:04,required_with=EndTime"`
	EndTime     string `json:"end_time" validate:"omitempty,datetime=15:04,required_with=StartTime"`
}

func (nh *NewHomework) Validate(validate *validator.Validate) error {
	nh.Title = core.CleanString(nh.Title)
	nh.Description = core.CleanString(nh.Description)
	nh.Type = core.CleanString(nh.Type, true /* lower */)
	return validate.Struct(nh)
}

// UpdateHomework defines what may be modified on an existing Homework item.
// Empty/nil fields are left untouched, except StartTime/EndTime where an
// explicit empty string clears the time window.
type UpdateHomework struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	SubjectID   *int    `json:"subject_id"`
	Type        string  `json:"homework_type" validate:"omitempty,hwType"`
	DueDate     string  `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

func (uh *UpdateHomework) Validate(validate *validator.Validate) error {
	uh.Title = core.CleanString(uh.Title)
	uh.Type = core.CleanString(uh.Type, true /* lower */)
	return validate.Struct(uh)
}

type NewSubject struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Color = core.CleanString(ns.Color, true /* lower */)
	return validate.Struct(ns)
}

type NewAttachment struct {
	Filename string `json:"filename" validate:"required"`
	URL      string `json:"url" validate:"required,url"`
	Size     int64  `json:"size" validate:"omitempty,gte=0"`
}

func (na *NewAttachment) Validate(validate *validator.Validate) error {
	na.Filename = core.CleanString(na.Filename)
	na.URL = core.CleanString(na.URL)
	return validate.Struct(na)
}
