// Package conversation implements the bounded, session-owned turn buffer and the
// prompt it renders for a text-generation backend.
//
// A Buffer is not safe for concurrent use. Hosts that share one across goroutines
// must serialize access themselves; the expected shape is one buffer per session.
package conversation

import (
	"iter"
	"slices"
	"time"

	"github.com/ZanzyTHEbar/convo/convo"
)

// Buffer is an ordered, oldest-first log of turns capped at a fixed capacity.
type Buffer struct {
	turns   []Turn
	cap     int
	evicted int

	system string
	now    func() time.Time
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithSystemInstruction overrides the instruction line rendered at the top of every prompt.
func WithSystemInstruction(s string) Option {
	return func(b *Buffer) { b.system = s }
}

// WithClock overrides the clock used for the prompt's date line.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBuffer creates an empty buffer retaining at most maxItems turns. A non-positive
// maxItems falls back to convo.DefaultMaxHistoryItems.
func NewBuffer(maxItems int, opts ...Option) *Buffer {
	if maxItems <= 0 {
		maxItems = convo.DefaultMaxHistoryItems
	}
	b := &Buffer{
		turns:  make([]Turn, 0, maxItems),
		cap:    maxItems,
		system: convo.DefaultSystemInstruction,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append stores t as the newest turn. When the buffer is already full the oldest turn
// is dropped first, so Len never exceeds Cap.
func (b *Buffer) Append(t Turn) {
	if len(b.turns) == b.cap {
		// shift left in place; the backing array never grows past cap
		copy(b.turns, b.turns[1:])
		b.turns = b.turns[:len(b.turns)-1]
		b.evicted++
	}
	b.turns = append(b.turns, t)
}

func (b *Buffer) AppendUser(text string)      { b.Append(UserTurn(text)) }
func (b *Buffer) AppendAssistant(text string) { b.Append(AssistantTurn(text)) }

// Clear drops every turn. The eviction counter is left untouched.
func (b *Buffer) Clear() {
	clear(b.turns)
	b.turns = b.turns[:0]
}

func (b *Buffer) Len() int     { return len(b.turns) }
func (b *Buffer) Cap() int     { return b.cap }
func (b *Buffer) Empty() bool  { return len(b.turns) == 0 }
func (b *Buffer) Evicted() int { return b.evicted }

// SystemInstruction returns the instruction line rendered into prompts.
func (b *Buffer) SystemInstruction() string { return b.system }

// SetSystemInstruction replaces the instruction line for subsequent prompts.
func (b *Buffer) SetSystemInstruction(s string) { b.system = s }

// Window returns a copy of the last min(n, Len()) turns, oldest first. A non-positive
// n selects every stored turn.
func (b *Buffer) Window(n int) []Turn {
	if n <= 0 || n > len(b.turns) {
		n = len(b.turns)
	}
	return slices.Clone(b.turns[len(b.turns)-n:])
}

// History yields the stored turns oldest first. Each range works on a snapshot taken
// when iteration starts, so the sequence can be ranged repeatedly and is unaffected
// by mutations made while ranging.
func (b *Buffer) History() iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		for _, t := range slices.Clone(b.turns) {
			if !yield(t) {
				return
			}
		}
	}
}

// RenderPrompt renders the prompt for latest using the last window turns. It never
// mutates the buffer.
func (b *Buffer) RenderPrompt(latest string, window int) string {
	return renderPrompt(b.system, b.now(), b.Window(window), latest)
}
