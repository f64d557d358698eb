package service

import (
	"context"
	"strings"
	"time"

	"timetracker/internal/duration"
	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
)

// Store is the persistence contract the tracker runs on. The concrete
// engine behind it (embedded sqlite or client-server postgres) is
// chosen at startup and never visible here.
type Store interface {
	CreateSession(ctx context.Context, taskName, project *string, startTime time.Time) (int64, error)
	GetSession(ctx context.Context, id int64) (*model.WorkSession, error)
	GetActiveSession(ctx context.Context) (*model.WorkSession, error)
	StopSession(ctx context.Context, id int64, endTime time.Time) error
	UpdateSession(ctx context.Context, id int64, params repository.UpdateSessionParams) error
	DeleteSession(ctx context.Context, id int64) error
	SessionsByDate(ctx context.Context, date string) ([]model.WorkSession, error)
	AddEntry(ctx context.Context, taskName string, durationSeconds int64, date string, project, notes *string, createdAt time.Time) (int64, error)
	GetEntry(ctx context.Context, id int64) (*model.ManualEntry, error)
	UpdateEntry(ctx context.Context, id int64, params repository.UpdateEntryParams) error
	DeleteEntry(ctx context.Context, id int64) error
	EntriesByDate(ctx context.Context, date string) ([]model.ManualEntry, error)
	AllProjects(ctx context.Context) ([]string, error)
}

// TrackerService enforces the tracking business rules on top of the
// store. It keeps no state between calls: the single-active-session
// invariant is re-checked against the store on every start.
type TrackerService struct {
	store Store
}

func NewTrackerService(store Store) *TrackerService {
	return &TrackerService{store: store}
}

type AddEntryInput struct {
	TaskName string
	Duration string
	Project  *string
	Notes    *string
	Date     *string
}

type UpdateSessionInput struct {
	TaskName *string
	Project  *string
	Notes    *string
}

type UpdateEntryInput struct {
	TaskName *string
	Duration *string
	Date     *string
	Project  *string
	Notes    *string
}

// StartSession begins a new timed session. The active check and the
// insert are not atomic; two truly concurrent starts can both pass the
// check. Accepted for the single-interactive-user deployment model.
func (s *TrackerService) StartSession(ctx context.Context, taskName, project *string) (*model.WorkSession, *apperrors.APIError) {
	now := time.Now().UTC()

	active, err := s.store.GetActiveSession(ctx)
	if err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to check active session")
	}
	if active != nil {
		return nil, apperrors.Conflict("session_already_active", "a work session is already running", map[string]interface{}{
			"session": active,
		})
	}

	id, err := s.store.CreateSession(ctx, normalizeOptional(taskName), normalizeOptional(project), now)
	if err != nil {
		return nil, apperrors.Internal("failed to create session")
	}

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to read created session")
	}
	return session, nil
}

// StopSession finalizes the running session, setting its end time and
// derived duration.
func (s *TrackerService) StopSession(ctx context.Context) (*model.WorkSession, *apperrors.APIError) {
	now := time.Now().UTC()

	active, apiErr := s.requireActiveSession(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := s.store.StopSession(ctx, active.ID, now); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("session_not_found", "session not found")
		}
		return nil, apperrors.Internal("failed to stop session")
	}

	session, err := s.store.GetSession(ctx, active.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to read stopped session")
	}
	return session, nil
}

// CancelSession discards the running session without saving it.
func (s *TrackerService) CancelSession(ctx context.Context) (*model.WorkSession, *apperrors.APIError) {
	active, apiErr := s.requireActiveSession(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	if err := s.store.DeleteSession(ctx, active.ID); err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to cancel session")
	}
	return active, nil
}

// ActiveSession returns the running session, or nil when none is.
func (s *TrackerService) ActiveSession(ctx context.Context) (*model.WorkSession, *apperrors.APIError) {
	active, err := s.store.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get active session")
	}
	return active, nil
}

// AddManualEntry records a retroactive block of work. Manual entries
// are independent of session state.
func (s *TrackerService) AddManualEntry(ctx context.Context, input AddEntryInput) (*model.ManualEntry, *apperrors.APIError) {
	now := time.Now().UTC()

	taskName := strings.TrimSpace(input.TaskName)
	if taskName == "" {
		return nil, apperrors.BadRequest("invalid_input", "task name cannot be empty")
	}

	seconds, err := duration.Parse(input.Duration)
	if err != nil {
		return nil, invalidDuration()
	}

	date, apiErr := resolveDate(input.Date, now)
	if apiErr != nil {
		return nil, apiErr
	}

	id, err := s.store.AddEntry(ctx, taskName, seconds, date, normalizeOptional(input.Project), input.Notes, now)
	if err != nil {
		return nil, apperrors.Internal("failed to add entry")
	}

	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to read created entry")
	}
	return entry, nil
}

func (s *TrackerService) UpdateSession(ctx context.Context, id int64, input UpdateSessionInput) (*model.WorkSession, *apperrors.APIError) {
	if input.TaskName != nil && strings.TrimSpace(*input.TaskName) == "" {
		return nil, apperrors.BadRequest("invalid_input", "task name cannot be empty")
	}

	err := s.store.UpdateSession(ctx, id, repository.UpdateSessionParams{
		TaskName: trimmed(input.TaskName),
		Project:  input.Project,
		Notes:    input.Notes,
	})
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update session")
	}

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to read updated session")
	}
	return session, nil
}

func (s *TrackerService) UpdateEntry(ctx context.Context, id int64, input UpdateEntryInput) (*model.ManualEntry, *apperrors.APIError) {
	if input.TaskName != nil && strings.TrimSpace(*input.TaskName) == "" {
		return nil, apperrors.BadRequest("invalid_input", "task name cannot be empty")
	}

	var seconds *int64
	if input.Duration != nil {
		parsed, err := duration.Parse(*input.Duration)
		if err != nil {
			return nil, invalidDuration()
		}
		seconds = &parsed
	}

	var date *string
	if input.Date != nil {
		resolved, apiErr := resolveDate(input.Date, time.Now().UTC())
		if apiErr != nil {
			return nil, apiErr
		}
		date = &resolved
	}

	err := s.store.UpdateEntry(ctx, id, repository.UpdateEntryParams{
		TaskName: trimmed(input.TaskName),
		Duration: seconds,
		Date:     date,
		Project:  input.Project,
		Notes:    input.Notes,
	})
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("entry_not_found", "entry not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update entry")
	}

	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to read updated entry")
	}
	return entry, nil
}

// DeleteSession removes a session. Deleting a missing id reports
// not-found rather than succeeding silently.
func (s *TrackerService) DeleteSession(ctx context.Context, id int64) *apperrors.APIError {
	err := s.store.DeleteSession(ctx, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete session")
	}
	return nil
}

func (s *TrackerService) DeleteEntry(ctx context.Context, id int64) *apperrors.APIError {
	err := s.store.DeleteEntry(ctx, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("entry_not_found", "entry not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete entry")
	}
	return nil
}

// DailySummary aggregates the sessions and manual entries of one
// calendar day. A still-running session contributes its elapsed time
// against now.
func (s *TrackerService) DailySummary(ctx context.Context, rawDate *string) (*model.DailySummary, *apperrors.APIError) {
	now := time.Now().UTC()

	date, apiErr := resolveDate(rawDate, now)
	if apiErr != nil {
		return nil, apiErr
	}

	sessions, err := s.store.SessionsByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to get sessions")
	}
	entries, err := s.store.EntriesByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to get entries")
	}

	summary := &model.DailySummary{
		Date:     date,
		Projects: make(map[string]int64),
	}
	for i := range sessions {
		summary.AddSession(&sessions[i], now)
	}
	for i := range entries {
		summary.AddManualEntry(&entries[i])
	}
	summary.TotalFormatted = duration.Format(summary.TotalDuration)

	return summary, nil
}

func (s *TrackerService) SessionsByDate(ctx context.Context, rawDate *string) ([]model.WorkSession, *apperrors.APIError) {
	date, apiErr := resolveDate(rawDate, time.Now().UTC())
	if apiErr != nil {
		return nil, apiErr
	}

	sessions, err := s.store.SessionsByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to get sessions")
	}
	return sessions, nil
}

func (s *TrackerService) EntriesByDate(ctx context.Context, rawDate *string) ([]model.ManualEntry, *apperrors.APIError) {
	date, apiErr := resolveDate(rawDate, time.Now().UTC())
	if apiErr != nil {
		return nil, apiErr
	}

	entries, err := s.store.EntriesByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to get entries")
	}
	return entries, nil
}

func (s *TrackerService) Projects(ctx context.Context) ([]string, *apperrors.APIError) {
	projects, err := s.store.AllProjects(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to get projects")
	}
	return projects, nil
}

func (s *TrackerService) requireActiveSession(ctx context.Context) (*model.WorkSession, *apperrors.APIError) {
	active, err := s.store.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return nil, apperrors.Conflict("no_active_session", "no work session is running", nil)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get active session")
	}
	return active, nil
}

func invalidDuration() *apperrors.APIError {
	return apperrors.BadRequest("invalid_duration", `invalid duration format, use formats like "2h 30m", "90m", or "1.5h"`)
}

func resolveDate(raw *string, now time.Time) (string, *apperrors.APIError) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return now.Format(model.DateFormat), nil
	}
	date := strings.TrimSpace(*raw)
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return "", apperrors.BadRequest("invalid_date", "date must be YYYY-MM-DD")
	}
	return date, nil
}

// normalizeOptional trims an optional string and drops it entirely when
// nothing is left.
func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
