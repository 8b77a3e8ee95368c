package dialog

import (
	"time"
)

const (
	// RevealInterval is how often another batch of characters becomes visible
	RevealInterval = 50 * time.Millisecond
	// DefaultCharsPerTick is used when a caller has no preference
	DefaultCharsPerTick = 2
)

type pendingReply struct {
	fullText     []rune
	startTime    time.Time
	charsPerTick int
}

// Presenter reveals replies a little at a time. Nothing runs in the background,
// each poll works out how much to show from the time elapsed since the reply arrived.
// It is meant to be used from a single render loop.
type Presenter struct {
	now     func() time.Time
	pending map[string]*pendingReply
}

func NewPresenter() *Presenter {
	return NewPresenterWithClock(time.Now)
}

func NewPresenterWithClock(now func() time.Time) *Presenter {
	return &Presenter{
		now:     now,
		pending: map[string]*pendingReply{},
	}
}

// SetResponse starts streaming text for a subject, replacing anything still streaming.
func (p *Presenter) SetResponse(subject string, text string) {
	p.pending[subject] = &pendingReply{
		fullText:     []rune(text),
		startTime:    p.now(),
		charsPerTick: DefaultCharsPerTick,
	}
}

// GetStreamedText returns the visible part of the subject's reply.
// The second value is false if there is no reply pending.
func (p *Presenter) GetStreamedText(subject string, charsPerTick int) (string, bool) {
	reply, ok := p.pending[subject]
	if !ok {
		return ``, false
	}

	if charsPerTick < 1 {
		charsPerTick = DefaultCharsPerTick
	}
	reply.charsPerTick = charsPerTick

	return string(reply.fullText[:p.visible(reply)]), true
}

// IsStreamingComplete is true once all of the reply is visible, or when nothing is pending.
func (p *Presenter) IsStreamingComplete(subject string) bool {
	reply, ok := p.pending[subject]
	if !ok {
		return true
	}
	return p.visible(reply) >= len(reply.fullText)
}

// ClearResponse forgets the subject's reply
func (p *Presenter) ClearResponse(subject string) {
	delete(p.pending, subject)
}

func (p *Presenter) visible(reply *pendingReply) int {
	elapsed := p.now().Sub(reply.startTime)
	if elapsed < 0 {
		return 0
	}

	ticks := int64(elapsed / RevealInterval)
	total := int64(len(reply.fullText))

	// Guard the multiplication for very old replies
	if ticks >= total {
		return len(reply.fullText)
	}

	chars := ticks * int64(reply.charsPerTick)
	if chars > total {
		return len(reply.fullText)
	}
	return int(chars)
}
