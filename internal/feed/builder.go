package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/domain/availability"
	"github.com/phrazzld/taskcal/internal/platform/logger"
	"github.com/phrazzld/taskcal/internal/store"
)

// NoStatusClass is the class slug used for tasks without a status.
const NoStatusClass = "none"

// Sources groups the entity stores a Builder reads from.
type Sources struct {
	Users     store.UserStore
	Tasks     store.TaskStore
	Schedules store.ScheduleStore
	Vacations store.VacationStore
	Holidays  store.HolidayStore
}

// Builder computes feeds and their fingerprints from the entity store.
type Builder struct {
	src       Sources
	projector *availability.Projector
	logger    *slog.Logger
}

// NewBuilder creates a Builder. It panics if any store is nil.
func NewBuilder(src Sources, projector *availability.Projector, log *slog.Logger) *Builder {
	if src.Users == nil || src.Tasks == nil || src.Schedules == nil || src.Vacations == nil || src.Holidays == nil {
		panic("feed sources cannot be nil")
	}
	if projector == nil {
		projector = availability.NewDefaultProjector()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		src:       src,
		projector: projector,
		logger:    log.With(slog.String("component", "feed_builder")),
	}
}

// Build returns the feed of userID over r. Task events are ordered by
// deadline; background events follow the projector's order with holiday
// events appended last. A user without a schedule gets no schedule or
// vacation background, which is not an error.
func (b *Builder) Build(ctx context.Context, userID uuid.UUID, r domain.DateRange) (domain.Feed, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if _, err := b.src.Users.GetByID(ctx, userID); err != nil {
		return domain.Feed{}, err
	}

	tasks, err := b.src.Tasks.FindByManagerInRange(ctx, userID, r.Start, r.End)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("find tasks: %w", err)
	}

	schedule, err := b.schedule(ctx, userID)
	if err != nil {
		return domain.Feed{}, err
	}

	var vacations []domain.Vacation
	if schedule != nil {
		vacations, err = b.src.Vacations.FindOverlapping(ctx, userID, r.FirstDay(), r.LastDay())
		if err != nil {
			return domain.Feed{}, fmt.Errorf("find vacations: %w", err)
		}
	}

	background, err := b.projector.Project(userID, schedule, vacations, r)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("project availability: %w", err)
	}

	holidays, err := b.src.Holidays.FindForUser(ctx, userID, r.Start, r.End)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("find holidays: %w", err)
	}
	background = append(background, b.projector.ProjectHolidays(userID, holidays, r)...)

	feed := domain.Feed{
		UserID:      userID,
		LastUpdated: lastUpdated(tasks),
		Tasks:       taskEvents(tasks, r.Location()),
		Background:  background,
	}
	if feed.Tasks == nil {
		feed.Tasks = []domain.CalendarEvent{}
	}
	if feed.Background == nil {
		feed.Background = []domain.BackgroundEvent{}
	}

	log.Debug("feed built",
		slog.String("user_id", userID.String()),
		slog.String("range", r.String()),
		slog.Int("tasks", len(feed.Tasks)),
		slog.Int("background_events", len(feed.Background)))
	return feed, nil
}

// Fingerprint summarises the freshness of every source a feed of userID over
// r depends on. It changes whenever a task, schedule, vacation or holiday of
// the user is created, updated or deleted, and whenever the range changes.
func (b *Builder) Fingerprint(ctx context.Context, userID uuid.UUID, r domain.DateRange) (string, error) {
	user, err := b.src.Users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	tasks, err := b.src.Tasks.Stats(ctx, userID)
	if err != nil {
		return "", err
	}

	scheduleStamp := "-"
	schedule, err := b.schedule(ctx, userID)
	if err != nil {
		return "", err
	}
	if schedule != nil {
		scheduleStamp = stamp(schedule.UpdatedAt)
	}

	vacations, err := b.src.Vacations.Stats(ctx, userID)
	if err != nil {
		return "", err
	}
	holidays, err := b.src.Holidays.Stats(ctx, userID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("v1|u:%s|t:%s|s:%s|v:%s|h:%s|r:%s",
		stamp(user.UpdatedAt),
		statsStamp(tasks),
		scheduleStamp,
		statsStamp(vacations),
		statsStamp(holidays),
		r.Key(),
	), nil
}

func (b *Builder) schedule(ctx context.Context, userID uuid.UUID) (*domain.UserSchedule, error) {
	schedule, err := b.src.Schedules.GetByUserID(ctx, userID)
	if errors.Is(err, store.ErrScheduleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return schedule, nil
}

func taskEvents(tasks []domain.ManagedTask, loc *time.Location) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		at := t.Deadline.In(loc).Format(domain.TimestampLayout)
		name := t.ManagerName()
		events = append(events, domain.CalendarEvent{
			ID:        t.ID.String(),
			Title:     fmt.Sprintf("%s (%s)", t.Title, name),
			Start:     at,
			End:       at,
			Status:    t.StatusName,
			ClassName: StatusClass(t.StatusName),
			UserID:    t.ManagerID.String(),
			UserName:  name,
		})
	}
	return events
}

// StatusClass returns the CSS class of a task status, e.g. "status-in-progress".
func StatusClass(status string) string {
	slug := domain.StatusSlug(status)
	if slug == "" {
		slug = NoStatusClass
	}
	return "status-" + slug
}

func lastUpdated(tasks []domain.ManagedTask) string {
	var latest time.Time
	for _, t := range tasks {
		if t.UpdatedAt.After(latest) {
			latest = t.UpdatedAt
		}
	}
	if latest.IsZero() {
		return ""
	}
	return latest.UTC().Format(time.RFC3339Nano)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func statsStamp(s store.SourceStats) string {
	return fmt.Sprintf("%d@%s", s.Count, stamp(s.LastUpdated))
}
