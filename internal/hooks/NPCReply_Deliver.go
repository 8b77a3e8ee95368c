package hooks

import (
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

//
// Hand finished NPC replies to the player who asked
//

func DeliverNPCReply(env *usercommands.Env) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		evt, ok := e.(events.NPCReply)
		if !ok {
			mudlog.Error("Event", "Expected Type", "NPCReply", "Actual Type", e.Type())
			return events.Cancel
		}

		user := env.Users.GetByUserId(evt.RequesterId)
		if user == nil {
			mudlog.Debug("NPCReply", "info", "requester gone, reply dropped", "userId", evt.RequesterId, "subject", evt.Name)
			return events.Continue
		}

		user.DeliverReply(evt.SubjectId, evt.Name, evt.Text)

		return events.Continue
	}
}
