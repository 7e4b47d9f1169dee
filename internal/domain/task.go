package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task validation errors.
var (
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle = fmt.Errorf("%w: task title cannot be empty", ErrValidation)
	ErrEmptyStatus    = fmt.Errorf("%w: status name cannot be empty", ErrValidation)
	ErrInvalidTag     = fmt.Errorf("%w: tag must look like #category-subcategory-purpose", ErrValidation)
)

// DefaultDeadlineDays is how far in the future a task is due when it is
// created without an explicit deadline.
const DefaultDeadlineDays = 3

// Status is a named task state such as "new" or "in progress".
type Status struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Slug returns the CSS-safe form of the status name.
func (s Status) Slug() string {
	return StatusSlug(s.Name)
}

// StatusSlug lowercases a status label and replaces spaces with hyphens.
func StatusSlug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// Task is a unit of work with a deadline. ManagedByID is the user whose
// calendar shows the task.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	HeadTaskID   *uuid.UUID `json:"head_task_id,omitempty"`
	Title        string     `json:"title"`
	AssignedByID *uuid.UUID `json:"assigned_by_id,omitempty"`
	ManagedByID  *uuid.UUID `json:"managed_by_id,omitempty"`
	CreatedByID  *uuid.UUID `json:"created_by_id,omitempty"`
	Priority     bool       `json:"priority"`
	Deadline     time.Time  `json:"deadline"`
	StatusID     *uuid.UUID `json:"status_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTask creates a task managed by managedBy. A zero deadline is replaced by
// DefaultDeadline computed in loc.
func NewTask(title string, managedBy uuid.UUID, deadline time.Time, loc *time.Location) (*Task, error) {
	now := time.Now().UTC()
	if deadline.IsZero() {
		deadline = DefaultDeadline(now, loc)
	}

	t := &Task{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Priority:  true,
		Deadline:  deadline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if managedBy != uuid.Nil {
		t.ManagedByID = &managedBy
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	return nil
}

// DefaultDeadline returns midnight DefaultDeadlineDays after the calendar day
// of now in loc.
func DefaultDeadline(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+DefaultDeadlineDays, 0, 0, 0, 0, loc)
}

// ManagedTask is the read model of a task as the feed needs it: the task
// joined with its status label and the name of the managing user.
type ManagedTask struct {
	ID               uuid.UUID
	Title            string
	Deadline         time.Time
	StatusName       string
	ManagerID        uuid.UUID
	ManagerFirstName string
	ManagerLastName  string
	UpdatedAt        time.Time
}

// ManagerName is the display name of the managing user.
func (t ManagedTask) ManagerName() string {
	return DisplayName(t.ManagerFirstName, t.ManagerLastName)
}

// Tag classifies a task as #category-subcategory-purpose. Empty parts are
// written as "_".
type Tag struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category,omitempty"`
	Subcategory string    `json:"subcategory,omitempty"`
	ForWhat     string    `json:"for_what,omitempty"`
}

const emptyTagPart = "_"

// String renders the tag in its hash form.
func (t Tag) String() string {
	parts := []string{t.Category, t.Subcategory, t.ForWhat}
	for i, p := range parts {
		if p == "" {
			parts[i] = emptyTagPart
		}
	}
	return "#" + strings.Join(parts, "-")
}

// ParseTag parses the hash form produced by Tag.String.
func ParseTag(raw string) (Tag, error) {
	if !strings.HasPrefix(raw, "#") {
		return Tag{}, ErrInvalidTag
	}
	parts := strings.Split(raw[1:], "-")
	if len(parts) != 3 {
		return Tag{}, ErrInvalidTag
	}
	for i, p := range parts {
		if p == emptyTagPart {
			parts[i] = ""
		}
	}
	return Tag{Category: parts[0], Subcategory: parts[1], ForWhat: parts[2]}, nil
}
