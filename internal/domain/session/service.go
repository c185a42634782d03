package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chatcart/session-api/internal/actor"
	"github.com/chatcart/session-api/internal/domain/chat"
)

// Service is the addressable facade over conversation actors. Every call
// is dispatched through the actor runtime, which serializes operations per
// session id while letting distinct sessions run in parallel.
type Service struct {
	rt  *actor.Runtime
	log zerolog.Logger
}

// NewService wires the actor factory into a runtime. Wake timer fires
// re-enter the runtime through the service, so the close path observes the
// same serialization as caller operations.
func NewService(
	cfg Config,
	rtCfg actor.Config,
	store StateStore,
	backing BackingStore,
	sink MessageSink,
	log zerolog.Logger,
) (*Service, error) {
	s := &Service{
		log: log.With().Str("component", "session-service").Logger(),
	}

	factory := func(ctx context.Context, key string) (any, error) {
		return NewActor(ctx, key, cfg, store, backing, sink, s.wake, log, nil), nil
	}

	rt, err := actor.NewRuntime("session", rtCfg, factory, log)
	if err != nil {
		return nil, err
	}
	s.rt = rt
	return s, nil
}

// Append adds one turn and returns the new live log length.
func (s *Service) Append(ctx context.Context, sessionID string, msg chat.MessageRecord) (int, error) {
	var count int
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		n, err := inst.(*Actor).Append(ctx, msg)
		count = n
		return err
	})
	return count, err
}

// List returns the most recent limit messages in append order.
func (s *Service) List(ctx context.Context, sessionID string, limit int) ([]chat.MessageRecord, error) {
	var messages []chat.MessageRecord
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		m, err := inst.(*Actor).List(ctx, limit)
		messages = m
		return err
	})
	return messages, err
}

// Count returns the live log length.
func (s *Service) Count(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		n, err := inst.(*Actor).Count(ctx)
		count = n
		return err
	})
	return count, err
}

// Clear deletes the live log for the session.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		return inst.(*Actor).Clear(ctx)
	})
}

// Metadata returns the session metadata.
func (s *Service) Metadata(ctx context.Context, sessionID string) (chat.SessionMetadata, error) {
	var meta chat.SessionMetadata
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		meta = inst.(*Actor).Metadata(ctx)
		return nil
	})
	return meta, err
}

// UpdateMetadata shallow-merges the patch and returns the merged record.
func (s *Service) UpdateMetadata(ctx context.Context, sessionID string, patch chat.MetadataPatch) (chat.SessionMetadata, error) {
	var meta chat.SessionMetadata
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		m, err := inst.(*Actor).UpdateMetadata(ctx, patch)
		meta = m
		return err
	})
	return meta, err
}

// Archive triggers an explicit archival pass.
func (s *Service) Archive(ctx context.Context, sessionID string) (int, error) {
	var archived int
	err := s.rt.Invoke(ctx, sessionID, func(ctx context.Context, inst any) error {
		n, err := inst.(*Actor).Archive(ctx)
		archived = n
		return err
	})
	return archived, err
}

// LiveActors reports the number of live session mailboxes.
func (s *Service) LiveActors() int {
	return s.rt.Len()
}

// Shutdown drains the runtime.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.rt.Shutdown(ctx)
}

// wake routes a timer fire back through the runtime so the close check is
// serialized with regular operations. Errors are logged, never surfaced.
func (s *Service) wake(sessionID string) {
	err := s.rt.Invoke(context.Background(), sessionID, func(ctx context.Context, inst any) error {
		return inst.(*Actor).MaybeClose(ctx)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("wake timer close failed")
	}
}
