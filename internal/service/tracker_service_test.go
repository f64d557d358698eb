package service_test

import (
	"context"
	"net/http"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"timetracker/internal/db"
	"timetracker/internal/model"
	"timetracker/internal/repository"
	"timetracker/internal/service"
)

func setupTracker(t *testing.T) (*service.TrackerService, *repository.TimeRepository) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations", "sqlite")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	repo := repository.NewTimeRepository(database)
	return service.NewTrackerService(repo), repo
}

func strPtr(s string) *string { return &s }

func TestStartSessionRejectsSecondStart(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	first, apiErr := tracker.StartSession(ctx, strPtr("write spec"), nil)
	if apiErr != nil {
		t.Fatalf("start session: %v", apiErr)
	}
	if !first.Active() {
		t.Fatal("expected started session to be active")
	}

	// Manual entries in between must not unblock a second start.
	if _, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{TaskName: "email", Duration: "45m"}); apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}

	_, apiErr = tracker.StartSession(ctx, strPtr("another"), nil)
	if apiErr == nil {
		t.Fatal("expected second start to fail")
	}
	if apiErr.Code != "session_already_active" {
		t.Errorf("expected session_already_active, got %s", apiErr.Code)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("expected 409, got %d", apiErr.Status)
	}
}

func TestStopSessionWithoutActive(t *testing.T) {
	tracker, _ := setupTracker(t)

	_, apiErr := tracker.StopSession(context.Background())
	if apiErr == nil || apiErr.Code != "no_active_session" {
		t.Fatalf("expected no_active_session, got %v", apiErr)
	}
}

func TestStopSessionFinalizesDuration(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	started, apiErr := tracker.StartSession(ctx, strPtr("task"), nil)
	if apiErr != nil {
		t.Fatalf("start session: %v", apiErr)
	}

	stopped, apiErr := tracker.StopSession(ctx)
	if apiErr != nil {
		t.Fatalf("stop session: %v", apiErr)
	}
	if stopped.ID != started.ID {
		t.Fatalf("stopped a different session: %d != %d", stopped.ID, started.ID)
	}
	if stopped.EndTime == nil || stopped.Duration == nil {
		t.Fatal("expected end time and duration to be set")
	}
	want := int64(stopped.EndTime.Sub(stopped.StartTime).Seconds())
	if *stopped.Duration != want {
		t.Errorf("duration %d does not match end-start %d", *stopped.Duration, want)
	}

	active, apiErr := tracker.ActiveSession(ctx)
	if apiErr != nil {
		t.Fatalf("active session: %v", apiErr)
	}
	if active != nil {
		t.Error("expected no active session after stop")
	}
}

func TestCancelSessionDiscardsIt(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	started, apiErr := tracker.StartSession(ctx, strPtr("oops"), nil)
	if apiErr != nil {
		t.Fatalf("start session: %v", apiErr)
	}

	cancelled, apiErr := tracker.CancelSession(ctx)
	if apiErr != nil {
		t.Fatalf("cancel session: %v", apiErr)
	}
	if cancelled.ID != started.ID {
		t.Fatalf("cancelled a different session")
	}

	summary, apiErr := tracker.DailySummary(ctx, nil)
	if apiErr != nil {
		t.Fatalf("daily summary: %v", apiErr)
	}
	if summary.SessionCount != 0 {
		t.Errorf("cancelled session still counted: %d", summary.SessionCount)
	}

	if _, apiErr := tracker.CancelSession(ctx); apiErr == nil || apiErr.Code != "no_active_session" {
		t.Errorf("expected no_active_session, got %v", apiErr)
	}
}

func TestAddManualEntryValidation(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input service.AddEntryInput
		code  string
	}{
		{"empty task", service.AddEntryInput{TaskName: "   ", Duration: "1h"}, "invalid_input"},
		{"bad duration", service.AddEntryInput{TaskName: "x", Duration: "abc"}, "invalid_duration"},
		{"negative duration", service.AddEntryInput{TaskName: "x", Duration: "-5h"}, "invalid_duration"},
		{"bad date", service.AddEntryInput{TaskName: "x", Duration: "1h", Date: strPtr("14-03-2024")}, "invalid_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, apiErr := tracker.AddManualEntry(ctx, tc.input)
			if apiErr == nil || apiErr.Code != tc.code {
				t.Errorf("expected %s, got %v", tc.code, apiErr)
			}
		})
	}
}

func TestAddManualEntryDefaultsAndTrims(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	entry, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{
		TaskName: "  email  ",
		Duration: "45m",
		Project:  strPtr("  "),
	})
	if apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}
	if entry.TaskName != "email" {
		t.Errorf("task name not trimmed: %q", entry.TaskName)
	}
	if entry.Duration != 2700 {
		t.Errorf("expected 2700 seconds, got %d", entry.Duration)
	}
	if entry.Date != time.Now().UTC().Format(model.DateFormat) {
		t.Errorf("date did not default to today: %s", entry.Date)
	}
	if entry.Project != nil {
		t.Errorf("blank project should be dropped, got %v", entry.Project)
	}
}

func TestDailySummaryAggregation(t *testing.T) {
	tracker, repo := setupTracker(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	date := "2024-03-14"
	otherDate := "2024-03-15"

	// One completed 1h session on acme, one 30m session without project.
	id1, err := repo.CreateSession(ctx, strPtr("build"), strPtr("acme"), day)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := repo.StopSession(ctx, id1, day.Add(time.Hour)); err != nil {
		t.Fatalf("stop session: %v", err)
	}
	id2, err := repo.CreateSession(ctx, nil, nil, day.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := repo.StopSession(ctx, id2, day.Add(2*time.Hour+30*time.Minute)); err != nil {
		t.Fatalf("stop session: %v", err)
	}

	// Manual entries: 45m on acme that day, 1h on another day.
	if _, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{
		TaskName: "email", Duration: "45m", Project: strPtr("acme"), Date: &date,
	}); apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}
	if _, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{
		TaskName: "other day", Duration: "1h", Date: &otherDate,
	}); apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}

	summary, apiErr := tracker.DailySummary(ctx, &date)
	if apiErr != nil {
		t.Fatalf("daily summary: %v", apiErr)
	}

	if summary.TotalDuration != 3600+1800+2700 {
		t.Errorf("expected total 8100, got %d", summary.TotalDuration)
	}
	if summary.SessionCount != 2 {
		t.Errorf("expected 2 sessions, got %d", summary.SessionCount)
	}
	if summary.ManualEntryCount != 1 {
		t.Errorf("expected 1 manual entry, got %d", summary.ManualEntryCount)
	}
	if summary.Projects["acme"] != 3600+2700 {
		t.Errorf("expected acme 6300, got %d", summary.Projects["acme"])
	}
	if summary.Projects[model.UnassignedProject] != 1800 {
		t.Errorf("expected unassigned 1800, got %d", summary.Projects[model.UnassignedProject])
	}
	if summary.TotalFormatted != "2h 15m" {
		t.Errorf("unexpected formatted total: %s", summary.TotalFormatted)
	}

	// The other day only sees its own entry.
	other, apiErr := tracker.DailySummary(ctx, &otherDate)
	if apiErr != nil {
		t.Fatalf("daily summary: %v", apiErr)
	}
	if other.TotalDuration != 3600 || other.SessionCount != 0 || other.ManualEntryCount != 1 {
		t.Errorf("unexpected other-day summary: %+v", other)
	}
}

func TestDailySummaryIncludesRunningSession(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	if _, apiErr := tracker.StartSession(ctx, strPtr("write spec"), nil); apiErr != nil {
		t.Fatalf("start session: %v", apiErr)
	}
	if _, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{TaskName: "email", Duration: "45m"}); apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}

	summary, apiErr := tracker.DailySummary(ctx, nil)
	if apiErr != nil {
		t.Fatalf("daily summary: %v", apiErr)
	}
	if summary.SessionCount != 1 || summary.ManualEntryCount != 1 {
		t.Fatalf("expected 1 session + 1 entry, got %d + %d", summary.SessionCount, summary.ManualEntryCount)
	}
	if summary.TotalDuration < 2700 {
		t.Errorf("expected total to include the 45m entry, got %d", summary.TotalDuration)
	}

	if _, apiErr := tracker.StopSession(ctx); apiErr != nil {
		t.Fatalf("stop session: %v", apiErr)
	}
	after, apiErr := tracker.DailySummary(ctx, nil)
	if apiErr != nil {
		t.Fatalf("daily summary: %v", apiErr)
	}
	if after.TotalDuration < summary.TotalDuration {
		t.Errorf("total shrank after stop: %d < %d", after.TotalDuration, summary.TotalDuration)
	}
}

func TestUpdateValidation(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	entry, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{TaskName: "email", Duration: "30m"})
	if apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}

	if _, apiErr := tracker.UpdateEntry(ctx, entry.ID, service.UpdateEntryInput{TaskName: strPtr("  ")}); apiErr == nil || apiErr.Code != "invalid_input" {
		t.Errorf("expected invalid_input, got %v", apiErr)
	}
	if _, apiErr := tracker.UpdateEntry(ctx, entry.ID, service.UpdateEntryInput{Duration: strPtr("0m")}); apiErr == nil || apiErr.Code != "invalid_duration" {
		t.Errorf("expected invalid_duration, got %v", apiErr)
	}

	updated, apiErr := tracker.UpdateEntry(ctx, entry.ID, service.UpdateEntryInput{Duration: strPtr("1h")})
	if apiErr != nil {
		t.Fatalf("update entry: %v", apiErr)
	}
	if updated.Duration != 3600 {
		t.Errorf("expected 3600, got %d", updated.Duration)
	}
	if updated.TaskName != "email" {
		t.Errorf("task name changed: %q", updated.TaskName)
	}

	if _, apiErr := tracker.UpdateEntry(ctx, 9999, service.UpdateEntryInput{TaskName: strPtr("x")}); apiErr == nil || apiErr.Code != "entry_not_found" {
		t.Errorf("expected entry_not_found, got %v", apiErr)
	}
	if _, apiErr := tracker.UpdateSession(ctx, 9999, service.UpdateSessionInput{Notes: strPtr("x")}); apiErr == nil || apiErr.Code != "session_not_found" {
		t.Errorf("expected session_not_found, got %v", apiErr)
	}
}

func TestUpdateBlankProjectClearsIt(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	entry, apiErr := tracker.AddManualEntry(ctx, service.AddEntryInput{
		TaskName: "email", Duration: "30m", Project: strPtr("acme"),
	})
	if apiErr != nil {
		t.Fatalf("add manual entry: %v", apiErr)
	}

	updated, apiErr := tracker.UpdateEntry(ctx, entry.ID, service.UpdateEntryInput{Project: strPtr("  ")})
	if apiErr != nil {
		t.Fatalf("update entry: %v", apiErr)
	}
	if updated.Project != nil {
		t.Errorf("blank project should clear to null, got %q", *updated.Project)
	}

	session, apiErr := tracker.StartSession(ctx, strPtr("task"), strPtr("acme"))
	if apiErr != nil {
		t.Fatalf("start session: %v", apiErr)
	}
	updatedSession, apiErr := tracker.UpdateSession(ctx, session.ID, service.UpdateSessionInput{Project: strPtr("")})
	if apiErr != nil {
		t.Fatalf("update session: %v", apiErr)
	}
	if updatedSession.Project != nil {
		t.Errorf("blank project should clear to null, got %q", *updatedSession.Project)
	}

	projects, apiErr := tracker.Projects(ctx)
	if apiErr != nil {
		t.Fatalf("projects: %v", apiErr)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects after clearing, got %v", projects)
	}
}

func TestDeleteNotFound(t *testing.T) {
	tracker, _ := setupTracker(t)
	ctx := context.Background()

	if apiErr := tracker.DeleteSession(ctx, 1); apiErr == nil || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %v", apiErr)
	}
	if apiErr := tracker.DeleteEntry(ctx, 1); apiErr == nil || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %v", apiErr)
	}
}
