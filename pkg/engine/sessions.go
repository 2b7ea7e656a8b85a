package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// SessionManager owns the lifecycle of workflow runs:
// pending -> running -> completed | failed | cancelled, terminal states final.
type SessionManager struct {
	sessions domain.SessionStore
}

func NewSessionManager(sessions domain.SessionStore) *SessionManager {
	return &SessionManager{sessions: sessions}
}

type CreateSessionParams struct {
	WorkflowID string
	Name       string
	CreatedBy  string
}

func (m *SessionManager) CreateSession(ctx context.Context, p CreateSessionParams) (domain.Session, error) {
	if p.WorkflowID == "" {
		return domain.Session{}, &domain.ConfigurationError{Field: "workflow_id", Reason: "must not be empty"}
	}

	session := domain.Session{
		ID:         xid.New().String(),
		WorkflowID: p.WorkflowID,
		Name:       p.Name,
		Status:     domain.SessionStatusPending,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  time.Now().UTC(),
	}

	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID).
		Str("workflow_id", session.WorkflowID).
		Msg("Session created")

	return session, nil
}

func (m *SessionManager) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return m.sessions.GetSession(ctx, sessionID)
}

// Cancel flags the session for cooperative cancellation. The orchestrator
// observes the flag between node executions; an in-flight collaborator call
// is not pre-empted.
func (m *SessionManager) Cancel(ctx context.Context, sessionID string) error {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status.IsTerminal() {
		return domain.ErrSessionTerminal
	}

	if err := m.sessions.RequestCancel(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to request cancellation: %w", err)
	}

	log.Info().Str("session_id", sessionID).Msg("Session cancellation requested")

	return nil
}

func (m *SessionManager) markRunning(ctx context.Context, sessionID string) error {
	session, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status != domain.SessionStatusPending {
		return fmt.Errorf("session %s is %s, expected pending: %w", sessionID, session.Status, domain.ErrSessionTerminal)
	}

	return m.sessions.UpdateSessionStatus(ctx, sessionID, domain.SessionStatusRunning, "")
}

func (m *SessionManager) finish(ctx context.Context, sessionID string, status domain.SessionStatus, errMsg string) {
	if err := m.sessions.UpdateSessionStatus(ctx, sessionID, status, errMsg); err != nil {
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("status", string(status)).
			Msg("Failed to persist terminal session status")
	}
}

func (m *SessionManager) isCancelRequested(ctx context.Context, sessionID string) bool {
	cancelled, err := m.sessions.IsCancelRequested(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to read cancellation flag")
		return false
	}

	return cancelled
}
