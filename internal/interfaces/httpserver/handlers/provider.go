package handlers

import "github.com/rs/zerolog"

// Provider bundles the handlers for route registration.
type Provider struct {
	Session  *SessionHandler
	Throttle *ThrottleHandler
}

// NewProvider wires the handlers.
func NewProvider(sessions SessionService, throttles ThrottleService, log zerolog.Logger) *Provider {
	return &Provider{
		Session:  NewSessionHandler(sessions, log),
		Throttle: NewThrottleHandler(throttles, log),
	}
}
