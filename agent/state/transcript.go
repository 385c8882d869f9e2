package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

// Snapshot is the on-disk form of a conversation.
type Snapshot struct {
	SessionID string                     `yaml:"session_id"`
	Model     string                     `yaml:"model,omitempty"`
	SavedAt   time.Time                  `yaml:"saved_at"`
	UpdatedAt time.Time                  `yaml:"updated_at,omitempty"`
	Messages  []contractx.Message        `yaml:"messages"`
	Display   []contractx.DisplayMessage `yaml:"display,omitempty"`
}

func SaveTranscript(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create transcript dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// LoadTranscript reads a saved conversation. A missing file yields an empty
// snapshot and ok=false.
func LoadTranscript(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read transcript: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return snap, true, nil
}
