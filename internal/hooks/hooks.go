package hooks

import (
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

// RegisterListeners wires every hook into the queue. Call once at startup.
func RegisterListeners(q *events.Queue, env *usercommands.Env, npcPath string) {

	q.RegisterListener(events.PlayerConnect{}, WelcomePlayer(env))
	q.RegisterListener(events.Input{}, HandleInput(env))
	q.RegisterListener(events.NPCReply{}, DeliverNPCReply(env))
	q.RegisterListener(events.PlayerDisconnect{}, CleanupDisconnected(env))
	q.RegisterListener(events.MobDespawn{}, CleanupDespawned(env))
	q.RegisterListener(events.NPCFilesChanged{}, SyncMobs(env, npcPath))

}
