package throttle

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/actor"
)

// Service is the addressable facade over throttle actors, one per upstream
// domain, dispatched through the actor runtime.
type Service struct {
	rt *actor.Runtime
}

// NewService wires the throttle actor factory into a runtime.
func NewService(cfg Config, rtCfg actor.Config, store SnapshotStore, log zerolog.Logger) (*Service, error) {
	factory := func(ctx context.Context, key string) (any, error) {
		return NewActor(ctx, key, cfg, store, log), nil
	}
	rt, err := actor.NewRuntime("throttle", rtCfg, factory, log)
	if err != nil {
		return nil, err
	}
	return &Service{rt: rt}, nil
}

// Consume attempts to take n tokens from the domain's bucket.
func (s *Service) Consume(ctx context.Context, domain string, n int) (Decision, error) {
	var decision Decision
	err := s.rt.Invoke(ctx, domain, func(ctx context.Context, inst any) error {
		decision = inst.(*Actor).Consume(ctx, n)
		return nil
	})
	return decision, err
}

// Check reports bucket state without consuming.
func (s *Service) Check(ctx context.Context, domain string) (Status, error) {
	var status Status
	err := s.rt.Invoke(ctx, domain, func(ctx context.Context, inst any) error {
		status = inst.(*Actor).Check(ctx)
		return nil
	})
	return status, err
}

// Reset restores the domain's bucket to full.
func (s *Service) Reset(ctx context.Context, domain string) (int, error) {
	var tokens int
	err := s.rt.Invoke(ctx, domain, func(ctx context.Context, inst any) error {
		tokens = inst.(*Actor).Reset(ctx)
		return nil
	})
	return tokens, err
}

// LiveActors reports the number of live throttle mailboxes.
func (s *Service) LiveActors() int {
	return s.rt.Len()
}

// Shutdown drains the runtime.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.rt.Shutdown(ctx)
}
