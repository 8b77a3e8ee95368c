package users

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/wire"
)

const (
	SettingLLMDisabled = `llm_disabled`

	outboundBuffer = 64
)

// UserRecord is one connected player.
type UserRecord struct {
	UserId uuid.UUID
	Name   string

	settingsLock sync.RWMutex
	settings     map[string]string

	sendLock sync.Mutex
	closed   bool
	outbound chan wire.ServerFrame
}

func NewUserRecord(name string) *UserRecord {
	return &UserRecord{
		UserId:   uuid.New(),
		Name:     name,
		settings: map[string]string{},
		outbound: make(chan wire.ServerFrame, outboundBuffer),
	}
}

func (u *UserRecord) GetSetting(name string) string {
	u.settingsLock.RLock()
	defer u.settingsLock.RUnlock()
	return u.settings[name]
}

// SetSetting stores a value. An empty value removes the setting.
func (u *UserRecord) SetSetting(name string, value string) {
	u.settingsLock.Lock()
	defer u.settingsLock.Unlock()
	if value == `` {
		delete(u.settings, name)
		return
	}
	u.settings[name] = value
}

// LLMDisabled is true when the player turned AI replies off with the ai command
func (u *UserRecord) LLMDisabled() bool {
	return u.GetSetting(SettingLLMDisabled) == `true`
}

func (u *UserRecord) SendText(text string) {
	u.SendFrame(wire.ServerFrame{Kind: wire.KindText, Text: text})
}

// DeliverReply hands an NPC's reply to the player
func (u *UserRecord) DeliverReply(subjectId uuid.UUID, displayName string, text string) {
	u.SendFrame(wire.ServerFrame{
		Kind:    wire.KindReply,
		Subject: subjectId.String(),
		Name:    displayName,
		Text:    text,
	})
}

// SendFrame queues a frame for the connection's writer. It never blocks. If the
// player isn't reading, the frame is dropped.
func (u *UserRecord) SendFrame(f wire.ServerFrame) bool {
	u.sendLock.Lock()
	defer u.sendLock.Unlock()

	if u.closed {
		return false
	}

	select {
	case u.outbound <- f:
		return true
	default:
		mudlog.Warn("User", "userId", u.UserId, "dropped", f.Kind, "reason", "outbound buffer full")
		return false
	}
}

// Outbound is drained by the connection's writer. It is closed by Close.
func (u *UserRecord) Outbound() <-chan wire.ServerFrame {
	return u.outbound
}

func (u *UserRecord) Close() {
	u.sendLock.Lock()
	defer u.sendLock.Unlock()
	if !u.closed {
		u.closed = true
		close(u.outbound)
	}
}

// Registry holds every connected player
type Registry struct {
	lock  sync.RWMutex
	users map[uuid.UUID]*UserRecord
}

func NewRegistry() *Registry {
	return &Registry{users: map[uuid.UUID]*UserRecord{}}
}

// Connect creates and registers a new player
func (r *Registry) Connect(name string) *UserRecord {
	name = strings.TrimSpace(name)
	if name == `` {
		name = `Stranger`
	}

	u := NewUserRecord(name)

	r.lock.Lock()
	r.users[u.UserId] = u
	r.lock.Unlock()

	mudlog.Info("User", "connected", u.Name, "userId", u.UserId)

	return u
}

// Disconnect removes the player and closes their outbound channel.
// Returns nil if they weren't connected.
func (r *Registry) Disconnect(userId uuid.UUID) *UserRecord {
	r.lock.Lock()
	u, ok := r.users[userId]
	delete(r.users, userId)
	r.lock.Unlock()

	if !ok {
		return nil
	}

	u.Close()
	mudlog.Info("User", "disconnected", u.Name, "userId", u.UserId)

	return u
}

func (r *Registry) GetByUserId(userId uuid.UUID) *UserRecord {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.users[userId]
}

func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.users)
}
