package api

import "log/slog"

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the origins the kiosk front end may call from.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRequestLogger replaces the request log destination.
func WithRequestLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.requestLogger = l
		}
	}
}
