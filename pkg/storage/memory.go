package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

// MemorySessionStore keeps sessions in process memory. Used by tests and by
// one-shot CLI runs that have no database behind them.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	cancels  map[string]bool
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domain.Session),
		cancels:  make(map[string]bool),
	}
}

func (s *MemorySessionStore) CreateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session

	return nil
}

func (s *MemorySessionStore) GetSession(_ context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	return session, nil
}

func (s *MemorySessionStore) UpdateSessionStatus(_ context.Context, sessionID string, status domain.SessionStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}

	now := time.Now()
	session.Status = status

	switch status {
	case domain.SessionStatusRunning:
		session.StartedAt = &now
	case domain.SessionStatusCompleted, domain.SessionStatusFailed, domain.SessionStatusCancelled:
		session.CompletedAt = &now
	}

	if errMsg != "" {
		session.Error = errMsg
	}

	s.sessions[sessionID] = session

	return nil
}

func (s *MemorySessionStore) RequestCancel(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}

	s.cancels[sessionID] = true

	return nil
}

func (s *MemorySessionStore) IsCancelRequested(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false, domain.ErrSessionNotFound
	}

	return s.cancels[sessionID], nil
}

// MemoryRecordStore keeps node execution records in process memory.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string][]domain.NodeExecutionRecord
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string][]domain.NodeExecutionRecord),
	}
}

func (s *MemoryRecordStore) AppendRecord(_ context.Context, record domain.NodeExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.SessionID] = append(s.records[record.SessionID], record)

	return nil
}

func (s *MemoryRecordStore) UpdateRecord(_ context.Context, record domain.NodeExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[record.SessionID]

	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			return nil
		}
	}

	return nil
}

func (s *MemoryRecordStore) ListRecords(_ context.Context, sessionID string) ([]domain.NodeExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.NodeExecutionRecord, len(s.records[sessionID]))
	copy(records, s.records[sessionID])

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

// MemoryDataBus keeps session data rows in process memory.
type MemoryDataBus struct {
	mu      sync.RWMutex
	entries map[string]map[string]domain.SessionDataEntry
}

func NewMemoryDataBus() *MemoryDataBus {
	return &MemoryDataBus{
		entries: make(map[string]map[string]domain.SessionDataEntry),
	}
}

func (b *MemoryDataBus) Put(_ context.Context, entry domain.SessionDataEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.entries[entry.SessionID]
	if !ok {
		session = make(map[string]domain.SessionDataEntry)
		b.entries[entry.SessionID] = session
	}

	session[entry.DataKey] = entry

	return nil
}

func (b *MemoryDataBus) Get(_ context.Context, sessionID, dataKey string) (domain.SessionDataEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[sessionID][dataKey]
	if !ok {
		return domain.SessionDataEntry{}, domain.ErrDataKeyNotFound
	}

	return entry, nil
}

func (b *MemoryDataBus) List(_ context.Context, sessionID string) ([]domain.SessionDataEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]domain.SessionDataEntry, 0, len(b.entries[sessionID]))

	for _, entry := range b.entries[sessionID] {
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// MemoryDefinitionStore serves prompt and api call definitions from maps.
type MemoryDefinitionStore struct {
	mu       sync.RWMutex
	prompts  map[string]domain.PromptDefinition
	apiCalls map[string]domain.APICallDefinition
}

func NewMemoryDefinitionStore() *MemoryDefinitionStore {
	return &MemoryDefinitionStore{
		prompts:  make(map[string]domain.PromptDefinition),
		apiCalls: make(map[string]domain.APICallDefinition),
	}
}

func (s *MemoryDefinitionStore) PutPrompt(prompt domain.PromptDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts[prompt.ID] = prompt
}

func (s *MemoryDefinitionStore) PutAPICall(apiCall domain.APICallDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiCalls[apiCall.ID] = apiCall
}

func (s *MemoryDefinitionStore) GetPrompt(_ context.Context, promptID string) (domain.PromptDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prompt, ok := s.prompts[promptID]
	if !ok {
		return domain.PromptDefinition{}, domain.ErrPromptNotFound
	}

	return prompt, nil
}

func (s *MemoryDefinitionStore) GetAPICall(_ context.Context, apiCallID string) (domain.APICallDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apiCall, ok := s.apiCalls[apiCallID]
	if !ok {
		return domain.APICallDefinition{}, domain.ErrAPICallNotFound
	}

	return apiCall, nil
}
