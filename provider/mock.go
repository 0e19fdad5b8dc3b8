package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a mock translation provider for testing.
type MockProvider struct {
	mu           sync.Mutex
	Translations map[string]string // Map of source text to translation
	Errors       map[string]error  // Map of source text to a forced error
	CallCount    int               // Number of times Translate was called
	LastRequest  *TranslateRequest // Last request received
}

// NewMockProvider creates a new mock provider with default German to
// English translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hallo Welt":   "Hello World",
			"Hallo":        "Hello",
			"Welt":         "World",
			"Guten Morgen": "Good morning",
		},
		Errors: map[string]error{},
	}
}

// Translate returns mock translations. Unknown text is returned bracketed
// and prefixed with the target language when it is not English.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = &req

	if err := m.Errors[req.Text]; err != nil {
		return "", err
	}

	translation, ok := m.Translations[req.Text]
	if !ok {
		translation = fmt.Sprintf("[%s]", req.Text)
	}
	if req.TargetLang != "" && req.TargetLang != "EN" {
		translation = fmt.Sprintf("[%s] %s", req.TargetLang, translation)
	}
	return translation, nil
}

// Calls returns the number of Translate calls.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
