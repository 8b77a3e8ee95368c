package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoMudEngine/npcchat/internal/dialog"
	"github.com/GoMudEngine/npcchat/internal/wire"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func newTestModel() (*model, *testClock, *[]wire.ClientFrame) {
	sent := &[]wire.ClientFrame{}
	m := newModel(func(f wire.ClientFrame) error {
		*sent = append(*sent, f)
		return nil
	})
	clock := &testClock{t: time.Unix(1700000000, 0)}
	m.presenter = dialog.NewPresenterWithClock(clock.Now)
	return m, clock, sent
}

func TestCommandsSentWithoutSubject(t *testing.T) {
	m, _, sent := newTestModel()

	m.submit(`npcs`)
	require.Len(t, *sent, 1)
	assert.Equal(t, wire.ClientFrame{Kind: wire.KindCommand, Text: `npcs`}, (*sent)[0])
}

func TestReplyStreamsThenLands(t *testing.T) {
	m, clock, sent := newTestModel()
	smith := uuid.NewString()

	m.handleFrame(wire.ServerFrame{Kind: wire.KindReply, Subject: smith, Name: `Grunhilde`, Text: `Aye.`})
	assert.Equal(t, smith, m.subject)
	assert.Equal(t, smith, m.streaming)

	// Nothing is logged until the whole reply has been revealed
	m.advanceStream()
	assert.Empty(t, m.log)

	clock.t = clock.t.Add(time.Second)
	m.advanceStream()
	require.Len(t, m.log, 1)
	assert.Contains(t, m.log[0], `Aye.`)
	assert.Equal(t, ``, m.streaming)

	// Plain input now goes to the NPC that answered
	m.submit(`and shields?`)
	require.Len(t, *sent, 1)
	assert.Equal(t, wire.ClientFrame{Kind: wire.KindChat, Subject: smith, Text: `and shields?`}, (*sent)[0])
}

func TestSwitchingSubjectDropsStream(t *testing.T) {
	m, _, _ := newTestModel()
	smith, guard := uuid.NewString(), uuid.NewString()

	m.handleFrame(wire.ServerFrame{Kind: wire.KindReply, Subject: smith, Name: `Grunhilde`, Text: `A long answer about swords.`})
	m.submit(`/talk ` + guard)

	assert.Equal(t, guard, m.subject)
	assert.Equal(t, ``, m.streaming)
	_, ok := m.presenter.GetStreamedText(smith, charsPerTick)
	assert.False(t, ok)
}

func TestLeaveClearsSubject(t *testing.T) {
	m, _, sent := newTestModel()
	smith := uuid.NewString()

	m.handleFrame(wire.ServerFrame{Kind: wire.KindReply, Subject: smith, Name: `Grunhilde`, Text: `Hm.`})
	m.submit(`/leave`)

	assert.Equal(t, ``, m.subject)
	assert.Equal(t, ``, m.streaming)

	m.submit(`status`)
	require.Len(t, *sent, 1)
	assert.Equal(t, wire.KindCommand, (*sent)[0].Kind)
}

func TestTalkNeedsId(t *testing.T) {
	m, _, sent := newTestModel()

	m.submit(`/talk Grunhilde`)
	assert.Empty(t, *sent)
	assert.Equal(t, ``, m.subject)
	require.Len(t, m.log, 1)
}

func TestTextFramesAreLogged(t *testing.T) {
	m, _, _ := newTestModel()

	m.handleFrame(wire.ServerFrame{Kind: wire.KindText, Text: "one\ntwo\n"})
	assert.Equal(t, []string{`one`, `two`}, m.log)
}
