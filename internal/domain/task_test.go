package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStatusSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"new", "new"},
		{"In Progress", "in-progress"},
		{"Waiting for review", "waiting-for-review"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StatusSlug(tt.name); got != tt.want {
			t.Errorf("StatusSlug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDefaultDeadline(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	now := time.Date(2024, 6, 10, 22, 30, 0, 0, time.UTC) // 01:30 on the 11th in MSK

	got := DefaultDeadline(now, loc)
	want := time.Date(2024, 6, 14, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DefaultDeadline() = %v, want %v", got, want)
	}
}

func TestNewTask(t *testing.T) {
	manager := uuid.New()

	task, err := NewTask("Report", manager, time.Time{}, time.UTC)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.ManagedByID == nil || *task.ManagedByID != manager {
		t.Errorf("Expected manager %s, got %v", manager, task.ManagedByID)
	}
	if task.Deadline.IsZero() {
		t.Error("Expected default deadline to be applied")
	}
	if task.Deadline.Hour() != 0 || task.Deadline.Minute() != 0 {
		t.Errorf("Expected default deadline at midnight, got %v", task.Deadline)
	}

	_, err = NewTask("", manager, time.Time{}, time.UTC)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestTagRoundTrip(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Tag{Category: "dev", Subcategory: "backend", ForWhat: "release"}, "#dev-backend-release"},
		{Tag{Category: "dev"}, "#dev-_-_"},
		{Tag{}, "#_-_-_"},
	}

	for _, tt := range tests {
		got := tt.tag.String()
		if got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}

		parsed, err := ParseTag(got)
		if err != nil {
			t.Fatalf("ParseTag(%q) error: %v", got, err)
		}
		if parsed != tt.tag {
			t.Errorf("ParseTag(%q) = %+v, want %+v", got, parsed, tt.tag)
		}
	}
}

func TestParseTagRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "dev-backend-release", "#dev-backend", "#a-b-c-d"} {
		if _, err := ParseTag(raw); !errors.Is(err, ErrInvalidTag) {
			t.Errorf("ParseTag(%q) error = %v, want ErrInvalidTag", raw, err)
		}
	}
}

func TestManagedTaskManagerName(t *testing.T) {
	mt := ManagedTask{ManagerFirstName: "Ivan", ManagerLastName: "Petrov"}
	if mt.ManagerName() != "Ivan Petrov" {
		t.Errorf("ManagerName() = %q", mt.ManagerName())
	}
}
