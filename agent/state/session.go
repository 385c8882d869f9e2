package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

var ErrNilSession = errors.New("session is nil")

// Session is the conversation's source of truth: the model-facing transcript
// and the display list kept next to it. The system entry is fixed and is not
// stored with the other entries.
//
// Every mutation carries the epoch it was produced under. Reset bumps the
// epoch, so writes from a turn that started before a clear are rejected.
type Session struct {
	mu sync.RWMutex

	id           string
	systemPrompt string
	transcript   []contractx.Message
	display      []contractx.DisplayMessage

	// tool call ids of the last assistant entry that have no tool entry yet
	pending map[string]struct{}

	epoch     uint64
	updatedAt time.Time
}

func NewSession(systemPrompt string, now time.Time) *Session {
	return &Session{
		id:           uuid.NewString(),
		systemPrompt: systemPrompt,
		pending:      make(map[string]struct{}),
		updatedAt:    now.UTC(),
	}
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Append adds transcript entries atomically. Either all entries are appended
// or none.
func (s *Session) Append(epoch uint64, entries ...contractx.Message) error {
	if s == nil {
		return ErrNilSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return contractx.ErrConversationCleared
	}

	pending := clonePending(s.pending)
	for i, m := range entries {
		if err := checkEntry(pending, m); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	s.transcript = append(s.transcript, cloneMessages(entries)...)
	s.pending = pending
	s.updatedAt = time.Now().UTC()
	return nil
}

func (s *Session) AppendDisplay(epoch uint64, msgs ...contractx.DisplayMessage) error {
	if s == nil {
		return ErrNilSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return contractx.ErrConversationCleared
	}
	s.display = append(s.display, msgs...)
	return nil
}

// Transcript returns a copy of what the model sees, system entry first.
func (s *Session) Transcript() []contractx.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contractx.Message, 0, len(s.transcript)+1)
	out = append(out, contractx.Message{Role: contractx.RoleSystem, Content: s.systemPrompt})
	return append(out, cloneMessages(s.transcript)...)
}

func (s *Session) Display() []contractx.DisplayMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contractx.DisplayMessage, len(s.display))
	copy(out, s.display)
	return out
}

// Len counts transcript entries, system entry excluded.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// Reset empties the conversation and returns the new epoch.
func (s *Session) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = nil
	s.display = nil
	s.pending = make(map[string]struct{})
	s.epoch++
	s.updatedAt = time.Now().UTC()
	return s.epoch
}

// Restore replaces the conversation with a previously saved one. The entries
// must satisfy the same rules as Append.
func (s *Session) Restore(snap Snapshot) error {
	pending := make(map[string]struct{})
	for i, m := range snap.Messages {
		if err := checkEntry(pending, m); err != nil {
			return fmt.Errorf("restore entry %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.SessionID != "" {
		s.id = snap.SessionID
	}
	s.transcript = cloneMessages(snap.Messages)
	s.display = append([]contractx.DisplayMessage(nil), snap.Display...)
	s.pending = pending
	s.epoch++
	s.updatedAt = time.Now().UTC()
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt.UTC()
	}
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SessionID: s.id,
		SavedAt:   time.Now().UTC(),
		UpdatedAt: s.updatedAt,
		Messages:  cloneMessages(s.transcript),
		Display:   append([]contractx.DisplayMessage(nil), s.display...),
	}
}

// checkEntry enforces the transcript shape: tool entries answer a call of
// the immediately preceding assistant entry, once each, and a new user or
// assistant entry only follows once every call has been answered.
func checkEntry(pending map[string]struct{}, m contractx.Message) error {
	switch m.Role {
	case contractx.RoleUser, contractx.RoleAssistant:
		if len(pending) > 0 {
			return fmt.Errorf("%w: %s entry while %d tool call(s) are unanswered", contractx.ErrTranscriptInvariant, m.Role, len(pending))
		}
		if m.Role == contractx.RoleAssistant {
			for _, call := range m.ToolCalls {
				if call.ID == "" {
					return fmt.Errorf("%w: tool call without id", contractx.ErrTranscriptInvariant)
				}
				if _, dup := pending[call.ID]; dup {
					return fmt.Errorf("%w: duplicate tool call id %s", contractx.ErrTranscriptInvariant, call.ID)
				}
				pending[call.ID] = struct{}{}
			}
		}
	case contractx.RoleTool:
		if _, ok := pending[m.ToolCallID]; !ok {
			return fmt.Errorf("%w: tool entry %q does not answer the preceding assistant entry", contractx.ErrTranscriptInvariant, m.ToolCallID)
		}
		delete(pending, m.ToolCallID)
	case contractx.RoleSystem:
		return fmt.Errorf("%w: system entry is fixed", contractx.ErrTranscriptInvariant)
	default:
		return fmt.Errorf("%w: unknown role %q", contractx.ErrTranscriptInvariant, m.Role)
	}
	return nil
}

func clonePending(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

func cloneMessages(in []contractx.Message) []contractx.Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]contractx.Message, len(in))
	for i, m := range in {
		out[i] = m
		if len(m.ToolCalls) > 0 {
			out[i].ToolCalls = append([]contractx.ToolCall(nil), m.ToolCalls...)
		}
	}
	return out
}
