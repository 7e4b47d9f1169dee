package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskcal/internal/domain"
	"github.com/phrazzld/taskcal/internal/platform/postgres"
	"github.com/phrazzld/taskcal/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFixture is returned when a fixture file is inconsistent.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is the YAML document loaded by the seed command. Entities refer to
// each other by their fixture key.
type Fixture struct {
	Departments []DepartmentFixture `yaml:"departments"`
	Statuses    []string            `yaml:"statuses"`
	Users       []UserFixture       `yaml:"users"`
	Schedules   []ScheduleFixture   `yaml:"schedules"`
	Tasks       []TaskFixture       `yaml:"tasks"`
	Holidays    []HolidayFixture    `yaml:"holidays"`
}

// DepartmentFixture describes a department.
type DepartmentFixture struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

// UserFixture describes a user. ID is optional; a random one is generated
// when empty.
type UserFixture struct {
	Key        string `yaml:"key"`
	ID         string `yaml:"id"`
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Department string `yaml:"department"`
	JobTitle   string `yaml:"job_title"`
	Telegram   string `yaml:"telegram"`
}

// ScheduleFixture describes the schedule of a user and its vacations.
type ScheduleFixture struct {
	User          string            `yaml:"user"`
	WorkStart     string            `yaml:"work_start"`
	WorkEnd       string            `yaml:"work_end"`
	PersonalStart string            `yaml:"personal_start"`
	PersonalEnd   string            `yaml:"personal_end"`
	Vacations     []VacationFixture `yaml:"vacations"`
}

// VacationFixture describes a vacation as inclusive dates.
type VacationFixture struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Tag   string `yaml:"tag"`
}

// TaskFixture describes a task managed by a user.
type TaskFixture struct {
	Title    string   `yaml:"title"`
	Manager  string   `yaml:"manager"`
	Deadline string   `yaml:"deadline"`
	Status   string   `yaml:"status"`
	Priority *bool    `yaml:"priority"`
	Tags     []string `yaml:"tags"`
}

// HolidayFixture describes a holiday shared by departments.
type HolidayFixture struct {
	Name        string   `yaml:"name"`
	Start       string   `yaml:"start"`
	End         string   `yaml:"end"`
	Departments []string `yaml:"departments"`
}

// LoadFixture decodes a fixture document. Unknown fields are rejected.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	return &f, nil
}

// SeedStores are the stores a fixture is written to.
type SeedStores struct {
	Departments store.DepartmentStore
	Users       store.UserStore
	Statuses    store.StatusStore
	Tags        store.TagStore
	Tasks       store.TaskStore
	Schedules   store.ScheduleStore
	Vacations   store.VacationStore
	Holidays    store.HolidayStore
}

// NewSeedStores adapts the Postgres stores.
func NewSeedStores(s postgres.Stores) SeedStores {
	return SeedStores{
		Departments: s.Departments,
		Users:       s.Users,
		Statuses:    s.Statuses,
		Tags:        s.Tags,
		Tasks:       s.Tasks,
		Schedules:   s.Schedules,
		Vacations:   s.Vacations,
		Holidays:    s.Holidays,
	}
}

// WithTx returns the same stores bound to tx.
func (s SeedStores) WithTx(tx *sql.Tx) SeedStores {
	return SeedStores{
		Departments: s.Departments.WithTx(tx),
		Users:       s.Users.WithTx(tx),
		Statuses:    s.Statuses.WithTx(tx),
		Tags:        s.Tags.WithTx(tx),
		Tasks:       s.Tasks.WithTx(tx),
		Schedules:   s.Schedules.WithTx(tx),
		Vacations:   s.Vacations.WithTx(tx),
		Holidays:    s.Holidays.WithTx(tx),
	}
}

// SeedResult reports what a fixture created. Users maps fixture keys to the
// stored user IDs.
type SeedResult struct {
	Departments int                  `json:"departments"`
	Statuses    int                  `json:"statuses"`
	Users       map[string]uuid.UUID `json:"users"`
	Schedules   int                  `json:"schedules"`
	Vacations   int                  `json:"vacations"`
	Tasks       int                  `json:"tasks"`
	Tags        int                  `json:"tags"`
	Holidays    int                  `json:"holidays"`
}

// Seed writes f to stores in dependency order. loc is the zone local
// timestamps in the fixture are read in.
func Seed(ctx context.Context, stores SeedStores, f *Fixture, loc *time.Location) (*SeedResult, error) {
	if loc == nil {
		loc = time.UTC
	}
	res := &SeedResult{Users: make(map[string]uuid.UUID)}
	depts := make(map[string]uuid.UUID)

	for _, df := range f.Departments {
		if _, dup := depts[df.Key]; dup || df.Key == "" {
			return nil, fmt.Errorf("%w: department key %q is empty or repeated", ErrInvalidFixture, df.Key)
		}
		dept, err := domain.NewDepartment(df.Name)
		if err != nil {
			return nil, fmt.Errorf("department %q: %w", df.Key, err)
		}
		if err := stores.Departments.Create(ctx, dept); err != nil {
			return nil, fmt.Errorf("department %q: %w", df.Key, err)
		}
		depts[df.Key] = dept.ID
		res.Departments++
	}

	// Declared statuses must be new; tasks may still name undeclared ones.
	for _, name := range f.Statuses {
		if err := stores.Statuses.Create(ctx, &domain.Status{Name: name}); err != nil {
			if store.IsDuplicateError(err) {
				return nil, fmt.Errorf("%w: status %q declared twice or already stored: %w", ErrInvalidFixture, name, err)
			}
			return nil, fmt.Errorf("status %q: %w", name, err)
		}
		res.Statuses++
	}

	for _, uf := range f.Users {
		if _, dup := res.Users[uf.Key]; dup || uf.Key == "" {
			return nil, fmt.Errorf("%w: user key %q is empty or repeated", ErrInvalidFixture, uf.Key)
		}
		deptID, ok := depts[uf.Department]
		if !ok {
			return nil, fmt.Errorf("%w: user %q references unknown department %q", ErrInvalidFixture, uf.Key, uf.Department)
		}
		user, err := domain.NewUser(deptID, uf.FirstName, uf.LastName, uf.JobTitle, uf.Telegram)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", uf.Key, err)
		}
		if uf.ID != "" {
			if user.ID, err = uuid.Parse(uf.ID); err != nil {
				return nil, fmt.Errorf("user %q: %w: %v", uf.Key, domain.ErrInvalidID, err)
			}
		}
		if err := stores.Users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("user %q: %w", uf.Key, err)
		}
		res.Users[uf.Key] = user.ID
	}

	for _, sf := range f.Schedules {
		n, err := seedSchedule(ctx, stores, sf, res.Users)
		if err != nil {
			return nil, fmt.Errorf("schedule of %q: %w", sf.User, err)
		}
		res.Schedules++
		res.Vacations += n
	}

	for i, tf := range f.Tasks {
		tags, err := seedTask(ctx, stores, tf, res.Users, loc)
		if err != nil {
			return nil, fmt.Errorf("task %d (%q): %w", i, tf.Title, err)
		}
		res.Tasks++
		res.Tags += tags
	}

	for _, hf := range f.Holidays {
		if err := seedHoliday(ctx, stores, hf, depts, loc); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", hf.Name, err)
		}
		res.Holidays++
	}

	return res, nil
}

func seedSchedule(ctx context.Context, stores SeedStores, sf ScheduleFixture, users map[string]uuid.UUID) (int, error) {
	userID, ok := users[sf.User]
	if !ok {
		return 0, fmt.Errorf("%w: unknown user", ErrInvalidFixture)
	}
	workStart, err := domain.ParseTimeOfDay(sf.WorkStart)
	if err != nil {
		return 0, err
	}
	workEnd, err := domain.ParseTimeOfDay(sf.WorkEnd)
	if err != nil {
		return 0, err
	}
	sch, err := domain.NewUserSchedule(userID, workStart, workEnd)
	if err != nil {
		return 0, err
	}
	if sf.PersonalStart != "" || sf.PersonalEnd != "" {
		ps, err := domain.ParseTimeOfDay(sf.PersonalStart)
		if err != nil {
			return 0, err
		}
		pe, err := domain.ParseTimeOfDay(sf.PersonalEnd)
		if err != nil {
			return 0, err
		}
		sch.PersonalStart, sch.PersonalEnd = &ps, &pe
	}
	if err := stores.Schedules.Upsert(ctx, sch); err != nil {
		return 0, err
	}

	for _, vf := range sf.Vacations {
		start, err := parseFixtureTime(vf.Start, time.UTC)
		if err != nil {
			return 0, err
		}
		end, err := parseFixtureTime(vf.End, time.UTC)
		if err != nil {
			return 0, err
		}
		v, err := domain.NewVacation(sch.ID, start, end, vf.Tag)
		if err != nil {
			return 0, err
		}
		if err := stores.Vacations.Create(ctx, v); err != nil {
			return 0, err
		}
	}
	return len(sf.Vacations), nil
}

func seedTask(ctx context.Context, stores SeedStores, tf TaskFixture, users map[string]uuid.UUID, loc *time.Location) (int, error) {
	managerID, ok := users[tf.Manager]
	if !ok {
		return 0, fmt.Errorf("%w: unknown manager %q", ErrInvalidFixture, tf.Manager)
	}

	var deadline time.Time
	if tf.Deadline != "" {
		var err error
		if deadline, err = parseFixtureTime(tf.Deadline, loc); err != nil {
			return 0, err
		}
	}
	task, err := domain.NewTask(tf.Title, managerID, deadline, loc)
	if err != nil {
		return 0, err
	}
	if tf.Priority != nil {
		task.Priority = *tf.Priority
	}
	if tf.Status != "" {
		status, err := stores.Statuses.GetOrCreate(ctx, tf.Status)
		if err != nil {
			return 0, err
		}
		task.StatusID = &status.ID
	}
	if err := stores.Tasks.Create(ctx, task); err != nil {
		return 0, err
	}

	for _, raw := range tf.Tags {
		tag, err := domain.ParseTag(raw)
		if err != nil {
			return 0, fmt.Errorf("tag %q: %w", raw, err)
		}
		tag.ID = uuid.New()
		if err := stores.Tags.Create(ctx, &tag, task.ID); err != nil {
			return 0, err
		}
	}
	return len(tf.Tags), nil
}

func seedHoliday(ctx context.Context, stores SeedStores, hf HolidayFixture, depts map[string]uuid.UUID, loc *time.Location) error {
	start, err := parseFixtureTime(hf.Start, loc)
	if err != nil {
		return err
	}
	end, err := parseFixtureTime(hf.End, loc)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(hf.Departments))
	for _, key := range hf.Departments {
		id, ok := depts[key]
		if !ok {
			return fmt.Errorf("%w: unknown department %q", ErrInvalidFixture, key)
		}
		ids = append(ids, id)
	}
	h, err := domain.NewHoliday(hf.Name, start, end, ids...)
	if err != nil {
		return err
	}
	return stores.Holidays.Create(ctx, h)
}

// fixtureTimeLayouts are tried in order; layouts without an offset are read
// in the caller's location.
var fixtureTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseFixtureTime(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range fixtureTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: time %q", domain.ErrInvalidFormat, raw)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load fixture data into the database",
		Long: "Insert the departments, statuses, users, schedules, vacations, " +
			"tasks and holidays of a YAML fixture in a single transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runSeed(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixture: %w", err)
	}
	defer func() { _ = file.Close() }()

	fixture, err := LoadFixture(file)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stores := NewSeedStores(postgres.NewStores(db, env.location, env.log))
	var res *SeedResult
	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		res, err = Seed(ctx, stores.WithTx(tx), fixture, env.location)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}

	env.log.Info("fixture loaded",
		slog.String("path", path),
		slog.Int("users", len(res.Users)),
		slog.Int("tasks", res.Tasks))
	return writeJSON(cmd.OutOrStdout(), res)
}
