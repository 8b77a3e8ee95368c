package mobinterfaces

import (
	"github.com/google/uuid"

	"github.com/GoMudEngine/npcchat/internal/conversations"
	"github.com/GoMudEngine/npcchat/internal/scripting"
)

// Subject is the minimal view of an NPC the chat pipeline needs
type Subject interface {
	// GetInstanceId returns the instance ID of the mob
	GetInstanceId() uuid.UUID
	// GetName returns the display name of the mob
	GetName() string
	// GetChatConfig returns the llmconfig block, or nil if the mob has none
	GetChatConfig() *conversations.LLMConversationConfig
	// OnChat runs the mob's onChat script if it has one
	OnChat(player scripting.PlayerInfo, text string) (allow bool, extraPrompt string, err error)
}

// GetInstanceFunc finds a live subject by instance id, or returns nil
type GetInstanceFunc func(instanceId uuid.UUID) Subject
