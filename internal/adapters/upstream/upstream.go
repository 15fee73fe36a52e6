// Package upstream is an in-memory stand-in for the time-clock backend. It
// serves the employee, punch and log routes the kiosk gateway calls, and
// lets tests inject failures.
package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/timeclock/internal/adapters/gateway"
	"github.com/okian/timeclock/pkg/logger"
)

type failure struct {
	status int
	reason string
}

// Server holds employees by worker id and records every punch and log it
// receives.
type Server struct {
	mu        sync.Mutex
	employees map[string]*gateway.EmployeeDTO
	status    gateway.StatusDTO
	unsynced  int
	failures  map[string]failure
	durable   bool
	hostname  string
	punches   []gateway.PunchRequestDTO
	logs      []gateway.LogEntryDTO
	clock     func() time.Time
	logger    logger.Logger
}

// New returns an empty Server with every subsystem online.
func New(opts ...Option) *Server {
	host, err := os.Hostname()
	if err != nil {
		host = "fake-upstream"
	}
	s := &Server{
		employees: make(map[string]*gateway.EmployeeDTO),
		status: gateway.StatusDTO{
			EmployeeCacheOnline: true,
			TimeEventsOnline:    true,
			WorkdayAPIOnline:    true,
		},
		failures: make(map[string]failure),
		durable:  true,
		hostname: host,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("upstream")
	}
	return s
}

// Handler returns the backend routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/get_employee_data/{id}", s.handleEmployee)
	r.Post("/punch/{id}", s.handlePunch)
	r.Post("/log", s.handleLog)
	return r
}

// Put stores or replaces an employee.
func (s *Server) Put(emp gateway.EmployeeDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := clone(emp)
	s.employees[emp.WorkerID] = &e
}

// Employee returns a copy of the stored employee.
func (s *Server) Employee(id string) (gateway.EmployeeDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return gateway.EmployeeDTO{}, false
	}
	return clone(*e), true
}

func clone(e gateway.EmployeeDTO) gateway.EmployeeDTO {
	e.TimeEntryCodes = append(gateway.TimeEntryCodeList(nil), e.TimeEntryCodes...)
	e.Positions = append([]gateway.PositionDTO(nil), e.Positions...)
	e.PeriodPunches = append([]gateway.PunchDTO(nil), e.PeriodPunches...)
	e.PeriodBlocks = append([]gateway.PeriodBlockDTO(nil), e.PeriodBlocks...)
	return e
}

// SetStatus replaces the availability flags and unsynced punch count.
func (s *Server) SetStatus(st gateway.StatusDTO, unsynced int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	s.unsynced = unsynced
}

// FailFetch makes employee fetches for id answer status with reason as the
// error body. A zero status clears the failure.
func (s *Server) FailFetch(id string, status int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, id)
		return
	}
	s.failures[id] = failure{status: status, reason: reason}
}

// SetDurable controls the written_to_tcd flag of punch answers. A
// non-durable punch changes nothing.
func (s *Server) SetDurable(durable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durable = durable
}

// Punches returns every punch received, durable or not.
func (s *Server) Punches() []gateway.PunchRequestDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.PunchRequestDTO(nil), s.punches...)
}

// Logs returns every log entry received.
func (s *Server) Logs() []gateway.LogEntryDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.LogEntryDTO(nil), s.logs...)
}

func (s *Server) handleEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.failures[id]; ok {
		writeJSON(w, f.status, gateway.ErrorResponse{Error: f.reason})
		return
	}
	emp, ok := s.employees[id]
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, gateway.ErrorResponse{Error: "no worker found with id " + id})
		return
	}

	status := s.status
	status.UnprocessedPunches = gateway.FlexInt(s.unsynced)
	writeJSON(w, http.StatusOK, gateway.EmployeeResponse{
		Status:             status,
		Employee:           emp,
		UnprocessedPunches: gateway.FlexInt(s.unsynced),
	})
}

func (s *Server) handlePunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req gateway.PunchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.ErrorResponse{Error: "invalid punch body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.punches = append(s.punches, req)
	now := s.clock()
	resp := gateway.PunchResponseDTO{
		WrittenToTCD:   "false",
		PunchTime:      now.Format("03:04 PM"),
		ClockEventType: strings.ToUpper(req.ClockEventType),
		Hostname:       s.hostname,
	}

	emp, ok := s.employees[id]
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, gateway.ErrorResponse{Error: "no worker found with id " + id})
		return
	}
	if !s.durable {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err := apply(emp, req, now); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info(r.Context(), "punch recorded",
		logger.String("worker_id", id),
		logger.String("position", req.PositionNumber),
		logger.String("clock_event_type", resp.ClockEventType),
	)
	resp.WrittenToTCD = "true"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var entry gateway.LogEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.ErrorResponse{Error: "invalid log body"})
		return
	}
	s.mu.Lock()
	s.logs = append(s.logs, entry)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// apply records a durable punch: the position's clocked_in flag follows the
// punch, a punch is appended, and a clock-in opens a block that the next
// clock-out on the same position closes.
func apply(emp *gateway.EmployeeDTO, req gateway.PunchRequestDTO, now time.Time) error {
	in := strings.EqualFold(req.ClockEventType, "IN")
	if !in && !strings.EqualFold(req.ClockEventType, "OUT") {
		return fmt.Errorf("unknown clock_event_type %q", req.ClockEventType)
	}

	var title string
	found := false
	for i := range emp.Positions {
		if emp.Positions[i].PositionNumber == req.PositionNumber {
			emp.Positions[i].ClockedIn = gateway.FlexBool(in)
			title = emp.Positions[i].BusinessTitle
			found = true
		}
	}
	if !found {
		return fmt.Errorf("unknown position %s", req.PositionNumber)
	}

	stamp := now.Format(time.RFC3339)
	eventType := "check-out"
	if in {
		eventType = "check-in"
	}
	emp.PeriodPunches = append(emp.PeriodPunches, gateway.PunchDTO{
		PositionNumber:         req.PositionNumber,
		BusinessTitle:          title,
		ClockEventType:         eventType,
		TimeClockEventDateTime: stamp,
	})

	if in {
		emp.PeriodBlocks = append(emp.PeriodBlocks, gateway.PeriodBlockDTO{
			PositionNumber:            req.PositionNumber,
			BusinessTitle:             title,
			TimeClockEventDateTimeIn:  stamp,
			TimeClockEventDateTimeOut: "0001-01-01T00:00:00Z",
			ReferenceID:               fmt.Sprintf("%s-%d", req.PositionNumber, now.Unix()),
		})
		return nil
	}

	for i := len(emp.PeriodBlocks) - 1; i >= 0; i-- {
		b := &emp.PeriodBlocks[i]
		if b.PositionNumber != req.PositionNumber {
			continue
		}
		if _, closed := gateway.ParseTime(b.TimeClockEventDateTimeOut, now.Location()); closed {
			break
		}
		b.TimeClockEventDateTimeOut = stamp
		if start, ok := gateway.ParseTime(b.TimeClockEventDateTimeIn, now.Location()); ok {
			b.Length = gateway.Hours(now.Sub(*start).Hours())
		}
		break
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
