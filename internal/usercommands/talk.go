package usercommands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/GoMudEngine/npcchat/internal/mobs"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/users"
)

// Talk handles "talk <npc> <message>". The NPC may be given by name, alias or instance id.
func Talk(rest string, user *users.UserRecord, env *Env) (bool, error) {

	words := strings.Fields(rest)
	if len(words) < 2 {
		user.SendText(env.Translator.T(`TalkUsage`))
		return true, nil
	}

	mob, text := findTalkTarget(words, env.Mobs)
	if mob == nil {
		user.SendText(env.Translator.T(`NoSuchNPC`, map[string]any{`Name`: words[0]}))
		return true, nil
	}

	return TalkTo(mob.InstanceId, text, user, env)
}

// TalkTo is the path for chat frames, which already name their NPC by instance id
func TalkTo(subjectId uuid.UUID, text string, user *users.UserRecord, env *Env) (bool, error) {

	mob := env.Mobs.GetInstance(subjectId)
	if mob == nil {
		user.SendText(env.Translator.T(`NoSuchNPC`, map[string]any{`Name`: subjectId.String()}))
		return true, nil
	}

	user.SendText(env.Translator.T(`YouSay`, map[string]any{`Name`: mob.GetName(), `Text`: text}))

	started := env.Chat.HandleChatMessage(user.UserId, mob.InstanceId, text)
	mudlog.Debug("Talk", "userId", user.UserId, "subject", mob.GetName(), "started", started)

	return true, nil
}

// findTalkTarget picks the longest run of leading words that names exactly one mob.
// Whatever follows is the message.
func findTalkTarget(words []string, registry *mobs.Registry) (*mobs.Mob, string) {

	if id, err := uuid.Parse(words[0]); err == nil {
		if mob := registry.GetInstance(id); mob != nil {
			return mob, strings.Join(words[1:], ` `)
		}
		return nil, ``
	}

	for i := len(words) - 1; i >= 1; i-- {
		name := strings.Join(words[:i], ` `)
		matches := registry.FindByName(name)
		if len(matches) == 1 {
			return matches[0], strings.Join(words[i:], ` `)
		}
		if len(matches) > 1 {
			mudlog.Debug("Talk", "info", fmt.Sprintf("Multiple matches found for name %v: %d", name, len(matches)))
		}
	}

	return nil, ``
}
