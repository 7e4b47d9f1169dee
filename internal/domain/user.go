package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for users and departments.
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyFirstName      = errors.New("first name cannot be empty")
	ErrEmptyDepartmentID   = errors.New("department ID cannot be empty")
	ErrEmptyDepartmentName = errors.New("department name cannot be empty")
)

// Department groups employees. Holidays are attached to departments.
type Department struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	HeadUserID *uuid.UUID `json:"head_user_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewDepartment creates a Department with a fresh ID.
func NewDepartment(name string) (*Department, error) {
	now := time.Now().UTC()
	d := &Department{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Name == "" {
		return nil, ErrEmptyDepartmentName
	}
	return d, nil
}

// User is an employee profile. Tasks are managed by users and every user may
// own one schedule.
type User struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Patronymic       string    `json:"patronymic,omitempty"`
	DepartmentID     uuid.UUID `json:"department_id"`
	JobTitle         string    `json:"job_title"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewUser creates a User in the given department. The telegram handle is
// normalised to start with "@".
func NewUser(departmentID uuid.UUID, firstName, lastName, jobTitle, telegram string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:               uuid.New(),
		FirstName:        strings.TrimSpace(firstName),
		LastName:         strings.TrimSpace(lastName),
		DepartmentID:     departmentID,
		JobTitle:         strings.TrimSpace(jobTitle),
		TelegramUsername: normalizeTelegram(telegram),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.FirstName == "" {
		return ErrEmptyFirstName
	}
	if u.DepartmentID == uuid.Nil {
		return ErrEmptyDepartmentID
	}
	return nil
}

// DisplayName is the "first last" form shown next to tasks in the calendar.
func (u *User) DisplayName() string {
	return DisplayName(u.FirstName, u.LastName)
}

// DisplayName joins a first and last name the way the calendar renders them.
func DisplayName(first, last string) string {
	return first + " " + last
}

func normalizeTelegram(handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" || strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}
