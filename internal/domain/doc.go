// Package domain contains the core business entities of the calendar
// backend: employees and their departments, tasks with deadlines, work
// schedules, vacations and holidays, plus the calendar event types that make
// up a user's feed. It is independent of any storage or delivery mechanism.
package domain
