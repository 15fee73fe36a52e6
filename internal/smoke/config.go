// Package smoke drives a running kiosk through a scripted employee visit
// and checks every response along the way.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL        string        // Base URL of the kiosk API
	EmployeeID     string        // Employee to log in as
	PositionNumber string        // Position to punch against
	TimeEntryCode  string        // Code sent with each punch
	Iterations     int           // Number of full visits to run
	Timeout        time.Duration // HTTP request timeout
	LogFile        string        // Log file for run output
	Verbose        bool          // Log every step
}

// Stats holds run statistics.
type Stats struct {
	Visits      int
	Steps       int
	StepsPassed int
	StepsFailed int
	Punches     int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

type session struct {
	HandleID string `json:"handle_id"`
	Employee struct {
		ID        string `json:"id"`
		ShowTEC   bool   `json:"show_tec"`
		Positions []struct {
			PositionNumber string `json:"position_number"`
			InStatus       bool   `json:"in_status"`
		} `json:"positions"`
	} `json:"employee"`
	SelectedDate string `json:"selected_date"`
}

type punchResult struct {
	Outcome   string `json:"outcome"`
	LoggedOut bool   `json:"logged_out"`
}

type calendarGrid struct {
	Cells []struct {
		Date string `json:"date"`
	} `json:"cells"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
