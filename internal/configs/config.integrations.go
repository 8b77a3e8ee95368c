package configs

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ModelAuto asks the server to use whatever model the endpoint lists first.
	ModelAuto = `auto`

	DefaultSystemPrompt = `You are a character in a fantasy world. Stay in character, keep replies short and never mention that you are an AI.`
)

type LLMChat struct {
	Enabled               ConfigBool   `yaml:"Enabled"`               // Whether NPCs answer chat with LLM replies at all
	EndpointURL           ConfigString `yaml:"EndpointURL"`           // OpenAI compatible base URL, e.g. http://localhost:11434/v1
	Model                 ConfigString `yaml:"Model"`                 // Model name, or "auto" to use the first listed model
	APIKey                ConfigSecret `yaml:"APIKey"`                // Optional bearer token
	MaxHistory            ConfigInt    `yaml:"MaxHistory"`            // Conversation turns (user+assistant pairs) kept per conversation
	RequestTimeoutMs      ConfigInt    `yaml:"RequestTimeoutMs"`      // Connect and read timeout per request
	DefaultSystemPrompt   ConfigString `yaml:"DefaultSystemPrompt"`   // Used when an NPC has no prompt of its own
	Workers               ConfigInt    `yaml:"Workers"`               // Size of the outbound request pool
	Language              ConfigString `yaml:"Language"`              // Language for fallback text
	RequestsPerMinute     ConfigInt    `yaml:"RequestsPerMinute"`     // Per player. 0 = unlimited
	FailureBackoffSeconds ConfigInt    `yaml:"FailureBackoffSeconds"` // Skip calling out for this long after a failure. 0 = off
}

func (l *LLMChat) Validate() {

	l.EndpointURL = ConfigString(strings.TrimSuffix(strings.TrimSpace(string(l.EndpointURL)), `/`))
	if l.EndpointURL == `` {
		l.EndpointURL = `http://localhost:11434/v1` // Default Ollama OpenAI-compatible URL
	}

	l.Model = ConfigString(strings.TrimSpace(string(l.Model)))
	if l.Model == `` {
		l.Model = ModelAuto
	}

	if l.MaxHistory < 1 {
		l.MaxHistory = 10 // Default context length
	} else if l.MaxHistory > 50 {
		l.MaxHistory = 50 // Cap at 50 turns
	}

	if l.RequestTimeoutMs < 1000 {
		l.RequestTimeoutMs = 30000
	} else if l.RequestTimeoutMs > 300000 {
		l.RequestTimeoutMs = 300000
	}

	if strings.TrimSpace(string(l.DefaultSystemPrompt)) == `` {
		l.DefaultSystemPrompt = DefaultSystemPrompt
	}

	if l.Workers < 1 {
		l.Workers = 2
	} else if l.Workers > 8 {
		l.Workers = 8
	}

	if l.Language == `` {
		l.Language = `en`
	}

	if l.RequestsPerMinute < 0 {
		l.RequestsPerMinute = 0
	}

	if l.FailureBackoffSeconds < 0 {
		l.FailureBackoffSeconds = 0
	}
}

func (l LLMChat) RequestTimeout() time.Duration {
	return time.Duration(l.RequestTimeoutMs) * time.Millisecond
}

// Settings is the live LLM chat configuration shared by every turn.
// Readers always get a consistent snapshot; a reload swaps the whole snapshot.
type Settings struct {
	current  atomic.Pointer[LLMChat]
	detected atomic.Pointer[string]

	listenerLock sync.Mutex
	onReload     []func(LLMChat)
}

func NewSettings(c LLMChat) *Settings {
	c.Validate()
	s := &Settings{}
	s.current.Store(&c)
	return s
}

// Get returns a copy of the current snapshot
func (s *Settings) Get() LLMChat {
	return *s.current.Load()
}

// Reload replaces the snapshot and forgets any auto-detected model,
// since the endpoint it came from may have changed.
func (s *Settings) Reload(c LLMChat) {
	c.Validate()
	s.current.Store(&c)
	s.detected.Store(nil)

	s.listenerLock.Lock()
	listeners := append([]func(LLMChat){}, s.onReload...)
	s.listenerLock.Unlock()

	for _, fn := range listeners {
		fn(c)
	}
}

// OnReload registers a function to run after every Reload
func (s *Settings) OnReload(fn func(LLMChat)) {
	s.listenerLock.Lock()
	s.onReload = append(s.onReload, fn)
	s.listenerLock.Unlock()
}

func (s *Settings) SetDetectedModel(model string) {
	s.detected.Store(&model)
}

func (s *Settings) DetectedModel() string {
	if m := s.detected.Load(); m != nil {
		return *m
	}
	return ``
}

// EffectiveModel is the detected model when the configured model is "auto" and
// detection has succeeded. Otherwise it is the configured model verbatim.
func (s *Settings) EffectiveModel() string {
	configured := string(s.current.Load().Model)
	if configured == ModelAuto {
		if detected := s.DetectedModel(); detected != `` {
			return detected
		}
	}
	return configured
}
