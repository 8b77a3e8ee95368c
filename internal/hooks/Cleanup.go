package hooks

import (
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

//
// Forget players who left and NPCs that are gone
//

func CleanupDisconnected(env *usercommands.Env) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		evt, ok := e.(events.PlayerDisconnect)
		if !ok {
			mudlog.Error("Event", "Expected Type", "PlayerDisconnect", "Actual Type", e.Type())
			return events.Cancel
		}

		env.Users.Disconnect(evt.UserId)
		env.Chat.OnRequesterDisconnect(evt.UserId)

		return events.Continue
	}
}

func CleanupDespawned(env *usercommands.Env) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		evt, ok := e.(events.MobDespawn)
		if !ok {
			mudlog.Error("Event", "Expected Type", "MobDespawn", "Actual Type", e.Type())
			return events.Cancel
		}

		env.Mobs.Despawn(evt.InstanceId)
		env.Chat.OnSubjectRemoved(evt.InstanceId)

		mudlog.Info("Mobs", "despawned", evt.Name, "instanceId", evt.InstanceId)

		return events.Continue
	}
}
