package domain

import (
	"context"
	"errors"
	"time"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed || s == SessionStatusCancelled
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionTerminal  = errors.New("session is already in a terminal state")
	ErrSessionCancelled = errors.New("session cancelled")
)

// Session is one execution instance of a workflow definition. Sessions are
// never reused; a new run always creates a new session id.
type Session struct {
	ID          string        `json:"id" bson:"_id"`
	WorkflowID  string        `json:"workflow_id" bson:"workflow_id"`
	Name        string        `json:"name" bson:"name"`
	Status      SessionStatus `json:"status" bson:"status"`
	CreatedBy   string        `json:"created_by" bson:"created_by"`
	Error       string        `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

type NodeExecutionStatus string

const (
	NodeExecutionStatusRunning NodeExecutionStatus = "running"
	NodeExecutionStatusSuccess NodeExecutionStatus = "success"
	NodeExecutionStatusError   NodeExecutionStatus = "error"
)

// NodeExecutionRecord is the per-attempt audit entry behind the step-by-step
// inspector. Records are appended, never deleted.
type NodeExecutionRecord struct {
	ID          string              `json:"id" bson:"_id"`
	SessionID   string              `json:"session_id" bson:"session_id"`
	NodeID      string              `json:"node_id" bson:"node_id"`
	NodeType    NodeType            `json:"node_type" bson:"node_type"`
	Status      NodeExecutionStatus `json:"status" bson:"status"`
	Input       map[string]any      `json:"input" bson:"input"`
	Output      map[string]any      `json:"output,omitempty" bson:"output,omitempty"`
	Error       string              `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt   time.Time           `json:"started_at" bson:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

type SessionStore interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	UpdateSessionStatus(ctx context.Context, sessionID string, status SessionStatus, errMsg string) error
	IsCancelRequested(ctx context.Context, sessionID string) (bool, error)
	RequestCancel(ctx context.Context, sessionID string) error
}

type RecordStore interface {
	AppendRecord(ctx context.Context, record NodeExecutionRecord) error
	UpdateRecord(ctx context.Context, record NodeExecutionRecord) error
	ListRecords(ctx context.Context, sessionID string) ([]NodeExecutionRecord, error)
}
