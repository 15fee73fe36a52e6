package model

import "time"

// PunchRequest is built fresh for every submission and not changed after
// it is sent. A nil TimeEntryCode is sent as null.
type PunchRequest struct {
	EmployeeID     string
	PositionNumber string
	ClockEventType ClockEventType
	TimeEntryCode  *string
}

// PunchResponse is the backend's acknowledgement of a punch.
type PunchResponse struct {
	WrittenToTCD   string
	PunchTime      string
	ClockEventType string
	Hostname       string
}

// Durable reports whether the backend recorded the punch.
func (r PunchResponse) Durable() bool {
	return r.WrittenToTCD == "true"
}

// Status carries the availability flags returned with every employee fetch.
type Status struct {
	EmployeeCacheOnline bool
	TimeEventsOnline    bool
	UpstreamOnline      bool
}

// Offline reports whether any subsystem is unavailable.
func (s Status) Offline() bool {
	return !s.EmployeeCacheOnline || !s.TimeEventsOnline || !s.UpstreamOnline
}

// FetchResult is a decoded employee fetch.
type FetchResult struct {
	Status          Status
	UnsyncedPunches int
	Employee        *Employee
}

// LogEntry is a client event shipped to the backend without waiting.
type LogEntry struct {
	ID         string
	Time       time.Time
	Message    string
	EmployeeID string
	Button     string
	Notify     bool
}

// Notices are the one-off banners shown after a login.
type Notices struct {
	Offline            bool   `json:"offline"`
	InternationalAlert string `json:"international_alert,omitempty"`
	// ReviewTimesheet is false when there is nothing to review or the HR
	// API is down.
	ReviewTimesheet bool `json:"review_timesheet"`
}

// UIState is the kiosk-wide presentation state that outlives sessions.
type UIState struct {
	Theme                   string `json:"theme"`
	Route                   string `json:"route"`
	InternationalAlertShown bool   `json:"international_alert_shown"`
}
