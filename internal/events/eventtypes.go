package events

import "github.com/google/uuid"

// A player connected
type PlayerConnect struct {
	UserId uuid.UUID
	Name   string
}

func (p PlayerConnect) Type() string { return `PlayerConnect` }

// A player's connection closed
type PlayerDisconnect struct {
	UserId uuid.UUID
}

func (p PlayerDisconnect) Type() string { return `PlayerDisconnect` }

// Input from a player.
// SubjectId is set when the text is chat aimed at one NPC. Otherwise Text is a command line.
type Input struct {
	UserId    uuid.UUID
	SubjectId uuid.UUID
	Text      string
}

func (i Input) Type() string { return `Input` }

func (i Input) IsChat() bool { return i.SubjectId != uuid.Nil }

// An NPC's reply, ready to be handed to the requester
type NPCReply struct {
	RequesterId uuid.UUID
	SubjectId   uuid.UUID
	Name        string
	Text        string
}

func (n NPCReply) Type() string { return `NPCReply` }

// An NPC instance was removed from the world
type MobDespawn struct {
	InstanceId uuid.UUID
	Name       string
}

func (m MobDespawn) Type() string { return `MobDespawn` }

// Something under the NPC datafile folder changed on disk
type NPCFilesChanged struct {
	Path string
}

func (n NPCFilesChanged) Type() string { return `NPCFilesChanged` }
