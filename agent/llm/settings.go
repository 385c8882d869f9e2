package llm

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

var _ contractx.CredentialSource = (*Settings)(nil)

// Settings holds the API key and the selected model for a session. It stands
// in for the settings screen of a UI client.
type Settings struct {
	mu     sync.RWMutex
	apiKey string
	model  string

	// AllowAnyModel skips the catalog check, for OpenAI-compatible endpoints
	// that serve models outside the built-in list.
	AllowAnyModel bool
}

func NewSettings(apiKey, model string) *Settings {
	return &Settings{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

func (s *Settings) Credentials(ctx context.Context) (contractx.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.apiKey == "" {
		return contractx.Credentials{}, contractx.ErrMissingCredential
	}
	if s.model == "" {
		return contractx.Credentials{}, contractx.ErrMissingModel
	}
	return contractx.Credentials{APIKey: s.apiKey, Model: s.model}, nil
}

func (s *Settings) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

func (s *Settings) RemoveAPIKey() {
	s.SetAPIKey("")
}

func (s *Settings) SetModel(id string) error {
	id = strings.TrimSpace(id)
	if !s.AllowAnyModel {
		if err := ValidateModel(id); err != nil {
			return err
		}
	} else if id == "" {
		return contractx.ErrMissingModel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = id
	return nil
}

// ResetModel falls back to the default model.
func (s *Settings) ResetModel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = DefaultModel
}

func (s *Settings) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Settings) HasAPIKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey != ""
}
