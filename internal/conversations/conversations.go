package conversations

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GoMudEngine/npcchat/internal/configs"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

type Role string

const (
	RoleSystem    Role = `system`
	RoleUser      Role = `user`
	RoleAssistant Role = `assistant`

	keySeparator = `|`
)

// ChatMessage is one line of a conversation. Never modified once created.
type ChatMessage struct {
	Role    Role
	Content string
}

// Key identifies a conversation between a requester (player) and a subject (NPC)
type Key struct {
	Requester uuid.UUID
	Subject   uuid.UUID
}

func (k Key) String() string {
	return k.Requester.String() + keySeparator + k.Subject.String()
}

type history struct {
	lock     sync.Mutex
	messages []ChatMessage
}

// Store holds the message history of every active conversation.
// Appends to different keys never contend with each other.
type Store struct {
	settings      *configs.Settings
	conversations sync.Map // Key -> *history
}

func NewStore(settings *configs.Settings) *Store {
	return &Store{settings: settings}
}

func (s *Store) maxMessages() int {
	// *2 because each turn has input and response
	return int(s.settings.Get().MaxHistory) * 2
}

// HistoryFor returns a copy of the history, oldest first. Never nil.
func (s *Store) HistoryFor(requester uuid.UUID, subject uuid.UUID) []ChatMessage {
	v, ok := s.conversations.Load(Key{requester, subject})
	if !ok {
		return []ChatMessage{}
	}
	h := v.(*history)

	h.lock.Lock()
	defer h.lock.Unlock()

	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Append adds a message, creating the history if needed, then drops the oldest
// messages until at most 2 x MaxHistory remain.
func (s *Store) Append(requester uuid.UUID, subject uuid.UUID, msg ChatMessage) {
	v, _ := s.conversations.LoadOrStore(Key{requester, subject}, &history{})
	h := v.(*history)

	limit := s.maxMessages()

	h.lock.Lock()
	h.messages = append(h.messages, msg)
	if over := len(h.messages) - limit; over > 0 {
		trimmed := make([]ChatMessage, limit)
		copy(trimmed, h.messages[over:])
		h.messages = trimmed
	}
	h.lock.Unlock()
}

// BuildRequestMessages returns [system prompt, ...history, new user message] and records
// the user message in the store. Callers must not Append it themselves.
// A blank systemPrompt falls back to the configured default.
func (s *Store) BuildRequestMessages(requester uuid.UUID, subject uuid.UUID, systemPrompt string, userText string) []ChatMessage {

	if strings.TrimSpace(systemPrompt) == `` {
		systemPrompt = string(s.settings.Get().DefaultSystemPrompt)
	}

	past := s.HistoryFor(requester, subject)

	out := make([]ChatMessage, 0, len(past)+2)
	out = append(out, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	out = append(out, past...)

	userMsg := ChatMessage{Role: RoleUser, Content: userText}
	out = append(out, userMsg)

	s.Append(requester, subject, userMsg)

	return out
}

// RecordReply stores the assistant's half of a turn. Call once per completed turn.
func (s *Store) RecordReply(requester uuid.UUID, subject uuid.UUID, text string) {
	s.Append(requester, subject, ChatMessage{Role: RoleAssistant, Content: text})
}

// ClearForRequester drops every conversation the requester is part of.
func (s *Store) ClearForRequester(requester uuid.UUID) int {
	return s.clearWhere(func(k Key) bool { return k.Requester == requester })
}

// ClearForSubject drops every conversation the subject is part of.
func (s *Store) ClearForSubject(subject uuid.UUID) int {
	return s.clearWhere(func(k Key) bool { return k.Subject == subject })
}

func (s *Store) clearWhere(match func(Key) bool) int {
	ct := 0
	s.conversations.Range(func(k, _ any) bool {
		if key := k.(Key); match(key) {
			s.conversations.Delete(key)
			ct++
		}
		return true
	})
	if ct > 0 {
		mudlog.Debug("Conversation", "cleanup", ct)
	}
	return ct
}

// ActiveConversationCount is for diagnostics only
func (s *Store) ActiveConversationCount() int {
	ct := 0
	s.conversations.Range(func(_, _ any) bool {
		ct++
		return true
	})
	return ct
}
