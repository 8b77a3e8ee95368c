package npcchat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/GoMudEngine/npcchat/internal/configs"
	"github.com/GoMudEngine/npcchat/internal/conversations"
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/integrations/llm"
	"github.com/GoMudEngine/npcchat/internal/mobinterfaces"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/scripting"
	"github.com/GoMudEngine/npcchat/internal/users"
)

const limiterCacheSize = 1024

// ChatClient is the part of the LLM client a turn needs
type ChatClient interface {
	SendChatRequest(messages []conversations.ChatMessage, done func(reply string)) error
	FallbackText() string
}

type UserLookup interface {
	GetByUserId(userId uuid.UUID) *users.UserRecord
}

// Orchestrator runs one chat turn at a time from start to delivery.
// HandleChatMessage is called on the tick goroutine. Replies come back through the
// event queue as events.NPCReply, so delivery also happens on the tick goroutine.
type Orchestrator struct {
	settings *configs.Settings
	store    *conversations.Store
	client   ChatClient
	queue    *events.Queue
	subjects mobinterfaces.GetInstanceFunc
	users    UserLookup

	limiterLock sync.Mutex
	limiters    *lru.Cache[uuid.UUID, *rate.Limiter]
	limiterRate int
}

func NewOrchestrator(settings *configs.Settings, store *conversations.Store, client ChatClient, queue *events.Queue, subjects mobinterfaces.GetInstanceFunc, userLookup UserLookup) *Orchestrator {

	limiters, _ := lru.New[uuid.UUID, *rate.Limiter](limiterCacheSize)

	return &Orchestrator{
		settings: settings,
		store:    store,
		client:   client,
		queue:    queue,
		subjects: subjects,
		users:    userLookup,
		limiters: limiters,
	}
}

// HandleChatMessage starts a turn. It returns true when a reply, possibly the fallback
// text, will be delivered. It returns false when the turn was dropped by the gate: the
// feature is off, the text is blank, the NPC hasn't opted in, the player opted out, the
// player is rate limited or the NPC's script vetoed it. A dropped turn leaves no trace and sends nothing back.
func (o *Orchestrator) HandleChatMessage(requesterId uuid.UUID, subjectId uuid.UUID, text string) bool {

	cfg := o.settings.Get()
	if !cfg.Enabled {
		return false
	}

	text = strings.TrimSpace(text)
	if text == `` {
		return false
	}

	subject := o.subjects(subjectId)
	if subject == nil {
		mudlog.Debug("NPCChat", "info", "no such subject", "subjectId", subjectId)
		return false
	}

	chatCfg := subject.GetChatConfig()
	if chatCfg == nil || !chatCfg.Enabled {
		return false
	}

	user := o.users.GetByUserId(requesterId)
	if user == nil {
		mudlog.Warn("NPCChat", "info", "requester not connected", "userId", requesterId, "subject", subject.GetName())
		o.handOff(requesterId, subjectId, subject.GetName(), o.client.FallbackText())
		return true
	}

	if user.LLMDisabled() {
		return false
	}

	if !o.allow(requesterId, int(cfg.RequestsPerMinute)) {
		mudlog.Debug("NPCChat", "info", "rate limited", "userId", requesterId, "subject", subject.GetName())
		return false
	}

	allow, extraPrompt, err := subject.OnChat(scripting.PlayerInfo{Id: user.UserId.String(), Name: user.Name}, text)
	if err != nil {
		mudlog.Warn("NPCChat", "script", subject.GetName(), "error", err)
	}
	if !allow {
		mudlog.Debug("NPCChat", "info", "vetoed by script", "subject", subject.GetName())
		return false
	}

	prompt := chatCfg.ResolveSystemPrompt(string(cfg.DefaultSystemPrompt))
	if extraPrompt != `` {
		prompt += "\n\n" + extraPrompt
	}

	messages := o.store.BuildRequestMessages(requesterId, subjectId, prompt, text)

	name := subject.GetName()

	err = o.client.SendChatRequest(messages, func(reply string) {
		o.complete(requesterId, subjectId, name, reply)
	})

	if err != nil {
		mudlog.Error("NPCChat", "error", "could not dispatch chat request", "subject", name, "error", err)
		o.handOff(requesterId, subjectId, name, o.client.FallbackText())
	}

	return true
}

// complete runs on a worker goroutine
func (o *Orchestrator) complete(requesterId uuid.UUID, subjectId uuid.UUID, name string, reply string) {

	clean := llm.StripEmojis(reply)
	if clean == `` {
		clean = llm.StripEmojis(o.client.FallbackText())
	}

	o.store.RecordReply(requesterId, subjectId, clean)
	o.handOff(requesterId, subjectId, name, clean)
}

// handOff crosses back onto the tick goroutine
func (o *Orchestrator) handOff(requesterId uuid.UUID, subjectId uuid.UUID, name string, text string) {
	o.queue.AddToQueue(events.NPCReply{
		RequesterId: requesterId,
		SubjectId:   subjectId,
		Name:        name,
		Text:        text,
	})
}

// OnRequesterDisconnect forgets everything about a player's conversations
func (o *Orchestrator) OnRequesterDisconnect(requesterId uuid.UUID) {
	ct := o.store.ClearForRequester(requesterId)
	o.limiters.Remove(requesterId)
	mudlog.Debug("NPCChat", "disconnect", requesterId, "cleared", ct)
}

// OnSubjectRemoved forgets every conversation with an NPC
func (o *Orchestrator) OnSubjectRemoved(subjectId uuid.UUID) {
	ct := o.store.ClearForSubject(subjectId)
	mudlog.Debug("NPCChat", "removed", subjectId, "cleared", ct)
}

func (o *Orchestrator) ActiveConversationCount() int {
	return o.store.ActiveConversationCount()
}

// allow applies the per-requester limit. perMinute <= 0 means unlimited.
func (o *Orchestrator) allow(requesterId uuid.UUID, perMinute int) bool {

	if perMinute <= 0 {
		return true
	}

	o.limiterLock.Lock()
	defer o.limiterLock.Unlock()

	// The limit changed with a reload. Start everyone over.
	if perMinute != o.limiterRate {
		o.limiters.Purge()
		o.limiterRate = perMinute
	}

	limiter, ok := o.limiters.Get(requesterId)
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		o.limiters.Add(requesterId, limiter)
	}

	return limiter.Allow()
}
