package events

import (
	"fmt"
	"sync"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

type Event interface {
	Type() string
}

type ListenerReturn int8

const (
	Continue ListenerReturn = iota // Pass the event on to the next listener
	Cancel                         // Stop here. Later listeners never see the event.
)

type Listener func(Event) ListenerReturn

// Queue is the hand-off point between goroutines and the tick goroutine.
// AddToQueue may be called from anywhere. ProcessEvents must only be called from the tick
// goroutine, so every listener runs there and nowhere else.
type Queue struct {
	lock    sync.Mutex
	pending []Event

	listenerLock sync.RWMutex
	listeners    map[string][]Listener
}

func NewQueue() *Queue {
	return &Queue{
		listeners: map[string][]Listener{},
	}
}

// RegisterListener subscribes l to every event with the same Type() as emptyEvent.
// Listeners run in registration order.
func (q *Queue) RegisterListener(emptyEvent Event, l Listener) {
	q.listenerLock.Lock()
	defer q.listenerLock.Unlock()

	eType := emptyEvent.Type()
	q.listeners[eType] = append(q.listeners[eType], l)
}

func (q *Queue) AddToQueue(e Event) {
	q.lock.Lock()
	q.pending = append(q.pending, e)
	q.lock.Unlock()
}

// Len is the number of events waiting for the next ProcessEvents
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.pending)
}

// ProcessEvents runs every event queued before the call, oldest first.
// Events queued by listeners while it runs wait for the next call.
func (q *Queue) ProcessEvents() int {

	q.lock.Lock()
	batch := q.pending
	q.pending = nil
	q.lock.Unlock()

	for _, e := range batch {
		q.dispatch(e)
	}

	return len(batch)
}

func (q *Queue) dispatch(e Event) {

	q.listenerLock.RLock()
	listeners := q.listeners[e.Type()]
	q.listenerLock.RUnlock()

	if len(listeners) == 0 {
		mudlog.Debug("Events", "unhandled", e.Type())
		return
	}

	for i, l := range listeners {
		if runListener(e, i, l) == Cancel {
			return
		}
	}
}

func runListener(e Event, idx int, l Listener) (ret ListenerReturn) {
	defer func() {
		if r := recover(); r != nil {
			mudlog.Error("Events", "type", e.Type(), "listener", idx, "panic", fmt.Sprint(r))
			ret = Continue
		}
	}()
	return l(e)
}
