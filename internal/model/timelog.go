package model

import "time"

// DateFormat is the wire and storage format for calendar dates.
const DateFormat = "2006-01-02"

// UnassignedProject is the summary bucket for sessions and entries
// that carry no project.
const UnassignedProject = "unassigned"

// WorkSession is one timed interval of work. EndTime and Duration stay
// nil while the session is running.
type WorkSession struct {
	ID        int64      `json:"id"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	TaskName  *string    `json:"taskName,omitempty"`
	Project   *string    `json:"project,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Active reports whether the session is still running.
func (s *WorkSession) Active() bool {
	return s.EndTime == nil
}

// ElapsedSeconds returns the stored duration for a finished session, or
// the elapsed time against now for a running one.
func (s *WorkSession) ElapsedSeconds(now time.Time) int64 {
	if !s.Active() {
		if s.Duration == nil {
			return 0
		}
		return *s.Duration
	}
	elapsed := int64(now.Sub(s.StartTime).Seconds())
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// ManualEntry is a retroactively logged block of work. It is never
// "active": duration and date are fixed at creation.
type ManualEntry struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Duration  int64     `json:"duration"`
	TaskName  string    `json:"taskName"`
	Project   *string   `json:"project,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DailySummary aggregates one calendar day. It is derived on demand and
// never stored.
type DailySummary struct {
	Date             string           `json:"date"`
	TotalDuration    int64            `json:"totalDuration"`
	TotalFormatted   string           `json:"totalFormatted"`
	SessionCount     int              `json:"sessionCount"`
	ManualEntryCount int              `json:"manualEntryCount"`
	Projects         map[string]int64 `json:"projects"`
}

// AddSession folds a session's duration into the summary. Running
// sessions contribute their elapsed time against now.
func (d *DailySummary) AddSession(s *WorkSession, now time.Time) {
	seconds := s.ElapsedSeconds(now)
	d.TotalDuration += seconds
	d.SessionCount++
	d.addProject(s.Project, seconds)
}

// AddManualEntry folds a manual entry's duration into the summary.
func (d *DailySummary) AddManualEntry(e *ManualEntry) {
	d.TotalDuration += e.Duration
	d.ManualEntryCount++
	d.addProject(e.Project, e.Duration)
}

func (d *DailySummary) addProject(project *string, seconds int64) {
	name := UnassignedProject
	if project != nil && *project != "" {
		name = *project
	}
	if d.Projects == nil {
		d.Projects = make(map[string]int64)
	}
	d.Projects[name] += seconds
}
