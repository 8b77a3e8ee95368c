package conversations

import "strings"

// LLMConversationConfig defines how an NPC takes part in LLM driven chat.
// It is read from the `llmconfig` block of an NPC datafile.
type LLMConversationConfig struct {
	// Whether this NPC answers chat with LLM replies (opt in)
	Enabled bool `yaml:"enabled"`
	// System prompt to guide the LLM's responses. Empty means use the server default.
	SystemPrompt string `yaml:"systemprompt,omitempty"`
	// Optional line shown when a player first looks at the NPC list
	Greeting string `yaml:"greeting,omitempty"`
	// Optional javascript defining onChat(player, text)
	Script string `yaml:"script,omitempty"`
}

// ResolveSystemPrompt returns the NPC's own prompt when it has one, otherwise defaultPrompt.
func (c *LLMConversationConfig) ResolveSystemPrompt(defaultPrompt string) string {
	if c != nil {
		if p := strings.TrimSpace(c.SystemPrompt); p != `` {
			return p
		}
	}
	return defaultPrompt
}
