package hooks

import (
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

//
// Run whatever a player typed
//

func HandleInput(env *usercommands.Env) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		evt, ok := e.(events.Input)
		if !ok {
			mudlog.Error("Event", "Expected Type", "Input", "Actual Type", e.Type())
			return events.Cancel
		}

		user := env.Users.GetByUserId(evt.UserId)
		if user == nil {
			// Typed something and left before the tick
			return events.Continue
		}

		if evt.IsChat() {
			usercommands.TalkTo(evt.SubjectId, evt.Text, user, env)
			return events.Continue
		}

		usercommands.TryCommand(evt.Text, user, env)

		return events.Continue
	}
}
