package hooks

import (
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

//
// Greet a new player with the list of NPCs
//

func WelcomePlayer(env *usercommands.Env) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		evt, ok := e.(events.PlayerConnect)
		if !ok {
			mudlog.Error("Event", "Expected Type", "PlayerConnect", "Actual Type", e.Type())
			return events.Cancel
		}

		user := env.Users.GetByUserId(evt.UserId)
		if user == nil {
			return events.Continue
		}

		usercommands.NPCs(``, user, env)

		return events.Continue
	}
}
