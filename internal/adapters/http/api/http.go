// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"github.com/okian/timeclock/internal/adapters/http/swagger"
	service "github.com/okian/timeclock/internal/app"
	"github.com/okian/timeclock/internal/domain/calendar"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	"github.com/okian/timeclock/internal/domain/session"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Login(ctx context.Context, employeeID string) (*session.Ref, error)
	Current() (*session.Ref, error)
	Logout(ctx context.Context) error
	Navigate(ctx context.Context, path string) bool
	SelectDate(date time.Time) error

	// Touch restarts the inactivity timer of the live session.
	Touch() bool

	Punch(ctx context.Context, a punch.Attempt) (*punch.Result, error)

	// Read models over the live session.
	Calendar(positionNumber string, month calendar.Month) (*service.CalendarView, error)
	Day(date time.Time) (*service.DayOverview, error)

	SetTheme(name string)
	UI() model.UIState
	Notices() model.Notices
	Location() *time.Location

	// Log queues a client log. Returns false on backpressure.
	Log(ctx context.Context, button, message string, notify bool) bool
}

// Server wires HTTP routes for the kiosk API.
type Server struct {
	deps           Dependencies
	allowedOrigins []string
	requestLogger  *slog.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	punchHandler   *PunchHandler
	kioskHandler   *KioskHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		allowedOrigins: []string{"*"},
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(deps),
		punchHandler:   NewPunchHandler(deps),
		kioskHandler:   NewKioskHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.requestLogger == nil {
		logFormat := httplog.SchemaECS.Concise(false)
		s.requestLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			ReplaceAttr: logFormat.ReplaceAttr,
		})).With(
			slog.String("app", "timeclock"),
		)
	}
	return s
}

// Routes builds the router holding every kiosk route.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httplog.RequestLogger(s.requestLogger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	swagger.Register(r)

	r.Get("/ui", MetricsMiddleware(s.kioskHandler.HandleGetUI, "ui"))
	r.Put("/theme", MetricsMiddleware(s.kioskHandler.HandlePutTheme, "theme"))
	r.Post("/logs", MetricsMiddleware(s.kioskHandler.HandlePostLog, "logs"))

	r.Post("/employees/{id}/session", MetricsMiddleware(s.sessionHandler.HandleLogin, "login"))

	r.Route("/session", func(r chi.Router) {
		r.Use(touch(s.deps))
		r.Get("/", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
		r.Post("/logout", MetricsMiddleware(s.sessionHandler.HandleLogout, "logout"))
		r.Post("/navigate", MetricsMiddleware(s.sessionHandler.HandleNavigate, "navigate"))
		r.Put("/selected-date", MetricsMiddleware(s.sessionHandler.HandleSelectDate, "selected_date"))
		r.Get("/days/{date}", MetricsMiddleware(s.sessionHandler.HandleGetDay, "day"))
		r.Get("/positions/{position}/calendar", MetricsMiddleware(s.sessionHandler.HandleGetCalendar, "calendar"))
		r.Post("/punch", MetricsMiddleware(s.punchHandler.HandlePunch, "punch"))
	})

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
