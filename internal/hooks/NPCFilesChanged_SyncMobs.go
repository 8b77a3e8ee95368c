package hooks

import (
	"time"

	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/mobs"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

//
// Reload NPC definitions after they change on disk
//

func SyncMobs(env *usercommands.Env, npcPath string) events.Listener {
	return func(e events.Event) events.ListenerReturn {

		if _, ok := e.(events.NPCFilesChanged); !ok {
			mudlog.Error("Event", "Expected Type", "NPCFilesChanged", "Actual Type", e.Type())
			return events.Cancel
		}

		tStart := time.Now()

		specs, err := mobs.LoadSpecs(npcPath)
		if err != nil {
			mudlog.Error("Mobs", "path", npcPath, "error", err)
			if specs == nil {
				// Couldn't read the folder at all. Leave everyone where they are.
				return events.Continue
			}

			// A file that didn't load is missing from specs but may only be half saved.
			// Nobody despawns until every file loads cleanly.
			env.Mobs.Update(specs)
			mudlog.Info("Mobs", "updated", len(specs), "took", time.Since(tStart))
			return events.Continue
		}

		_, despawned := env.Mobs.Sync(specs)

		// Sync already removed them. The event is for everyone else who cares.
		for _, mob := range despawned {
			env.Queue.AddToQueue(events.MobDespawn{InstanceId: mob.InstanceId, Name: mob.GetName()})
		}

		mudlog.Info("Mobs", "synced", len(specs), "took", time.Since(tStart))

		return events.Continue
	}
}
