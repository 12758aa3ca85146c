package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"jornada/internal/cache"
	"jornada/internal/model"
	"jornada/internal/repository"
)

var (
	// ErrCodeAlreadyUsed means the code already has a session, open or
	// closed. Codes are one-shot: a closed session blocks its code forever.
	ErrCodeAlreadyUsed = errors.New("code already used")
	// ErrSessionActive means the code has an open session.
	ErrSessionActive = errors.New("session already active")
	// ErrNoActiveSession means there is no open session to close.
	ErrNoActiveSession = errors.New("no active session")
)

// SessionService handles the work-session lifecycle: start, end, active
// lookup. Per code the lifecycle is open → closed, closed is terminal.
type SessionService struct {
	repo  repository.SessionRepo
	cache cache.SessionCache
	log   *logrus.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(repo repository.SessionRepo, sessionCache cache.SessionCache, log *logrus.Logger) *SessionService {
	return &SessionService{
		repo:  repo,
		cache: sessionCache,
		log:   log,
	}
}

// Start opens a session for code. The pre-checks give precise errors on the
// common paths; the unique index on code is what actually guarantees
// one-session-per-code, so a duplicate-key insert is reported as
// ErrCodeAlreadyUsed rather than an internal failure.
func (s *SessionService) Start(ctx context.Context, code string) (*model.WorkSession, error) {
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	if existing != nil {
		return nil, ErrCodeAlreadyUsed
	}

	// Guard against a start that slipped in after the lookup above. On a
	// single conforming request this is unreachable: any open session was
	// already caught by the code check.
	active, err := s.repo.GetActive(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	if active != nil {
		return nil, ErrSessionActive
	}

	session := &model.WorkSession{
		ID:        uuid.New().String(),
		Code:      code,
		StartTime: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			// Lost the race against a concurrent start.
			return nil, ErrCodeAlreadyUsed
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.cache.SetActive(ctx, session); err != nil {
		s.log.WithError(err).WithField("code", code).Warn("failed to cache active session")
	}

	return session, nil
}

// End closes the open session for code and computes its duration. The
// conditional update in the store serializes concurrent ends: the second
// caller finds nothing open and gets ErrNoActiveSession.
func (s *SessionService) End(ctx context.Context, code string) (*model.WorkSession, error) {
	session, err := s.repo.EndActive(ctx, code, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	if err := s.cache.DeleteActive(ctx, code); err != nil {
		s.log.WithError(err).WithField("code", code).Warn("failed to evict active session from cache")
	}

	return session, nil
}

// QueryActive returns the open session for code, or nil when there is none.
// Absence is not an error. Cache reads are best-effort; the store is the
// fallback.
func (s *SessionService) QueryActive(ctx context.Context, code string) (*model.WorkSession, error) {
	if code == "" {
		return nil, nil
	}

	cached, err := s.cache.GetActive(ctx, code)
	if err != nil {
		s.log.WithError(err).WithField("code", code).Warn("active session cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	session, err := s.repo.GetActive(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if err := s.cache.SetActive(ctx, session); err != nil {
		s.log.WithError(err).WithField("code", code).Warn("failed to cache active session")
	}

	return session, nil
}
