package usercommands

import (
	"strings"

	"github.com/GoMudEngine/npcchat/internal/configs"
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/integrations/llm"
	"github.com/GoMudEngine/npcchat/internal/language"
	"github.com/GoMudEngine/npcchat/internal/mobs"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/npcchat"
	"github.com/GoMudEngine/npcchat/internal/users"
)

// Env is everything a command can reach
type Env struct {
	Settings   *configs.Settings
	Mobs       *mobs.Registry
	Users      *users.Registry
	Chat       *npcchat.Orchestrator
	Translator *language.Translator
	Queue      *events.Queue
	TokenUsage func() map[string]llm.TokenUsage
}

type CommandFunc func(rest string, user *users.UserRecord, env *Env) (bool, error)

var userCommands = map[string]CommandFunc{
	`talk`:   Talk,
	`npcs`:   NPCs,
	`ai`:     AI,
	`status`: Status,
}

// TryCommand runs one line of player input.
// Returns false if the command isn't known.
func TryCommand(input string, user *users.UserRecord, env *Env) (bool, error) {

	cmd, rest, _ := strings.Cut(strings.TrimSpace(input), ` `)
	cmd = strings.ToLower(cmd)
	rest = strings.TrimSpace(rest)

	fn, ok := userCommands[cmd]
	if !ok {
		user.SendText(env.Translator.T(`UnknownCommand`, map[string]any{`Command`: cmd}))
		return false, nil
	}

	handled, err := fn(rest, user, env)
	if err != nil {
		mudlog.Error("Command", "cmd", cmd, "userId", user.UserId, "error", err)
	}

	return handled, err
}
