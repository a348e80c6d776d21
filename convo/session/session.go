// Package session runs the interactive chat loop around a conversation buffer.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"github.com/ZanzyTHEbar/convo/convo/conversation"
	"github.com/ZanzyTHEbar/convo/convo/generation"
)

const (
	cmdExit    = "exit"
	cmdClear   = "clear"
	cmdHistory = "history"

	inputPrompt = "Ask the model (type 'exit' to quit, 'clear' to reset memory, 'history' to show): "

	maxLineBytes = 1 << 20
)

// ErrInterrupted is returned by Run when its context is canceled, typically by SIGINT.
var ErrInterrupted = errors.New("interrupted by user")

// Generator produces a reply for a rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (generation.Reply, error)
}

// Action tells the caller whether the loop should keep reading input.
type Action int

const (
	ActionContinue Action = iota
	ActionExit
)

// Settings are the values that may change while a session is running.
type Settings struct {
	PromptWindow      int
	SystemInstruction string
}

// Options configures a Session.
type Options struct {
	MaxHistoryItems   int
	PromptWindow      int
	SystemInstruction string
	Clock             func() time.Time // date line source; defaults to time.Now
	Styled            bool             // colorize role labels and errors
	ShowPrompt        bool             // print the input prompt before each read
}

// Session owns one conversation buffer and drives it from user input. Apply is the
// only method safe to call from other goroutines.
type Session struct {
	id     string
	buf    *conversation.Buffer
	gen    Generator
	out    io.Writer
	logger zerolog.Logger
	styles styles

	window     int
	showPrompt bool

	mu      sync.Mutex
	pending *Settings
}

// New creates a session writing user-facing output to out.
func New(gen Generator, out io.Writer, logger zerolog.Logger, opts Options) *Session {
	bufOpts := []conversation.Option{conversation.WithClock(opts.Clock)}
	if opts.SystemInstruction != "" {
		bufOpts = append(bufOpts, conversation.WithSystemInstruction(opts.SystemInstruction))
	}
	buf := conversation.NewBuffer(opts.MaxHistoryItems, bufOpts...)

	window := opts.PromptWindow
	if window <= 0 {
		window = buf.Cap()
	}

	id := uuid.NewString()
	return &Session{
		id:         id,
		buf:        buf,
		gen:        gen,
		out:        out,
		logger:     logger.With().Str("session_id", id).Logger(),
		styles:     newStyles(opts.Styled),
		window:     window,
		showPrompt: opts.ShowPrompt,
	}
}

func (s *Session) ID() string { return s.id }

// Apply schedules new settings; they take effect before the next input is handled.
func (s *Session) Apply(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &settings
}

func (s *Session) applyPending() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()

	if p == nil {
		return
	}
	if p.PromptWindow > 0 {
		s.window = p.PromptWindow
	}
	if p.SystemInstruction != "" {
		s.buf.SetSystemInstruction(p.SystemInstruction)
	}
	s.logger.Info().Int("prompt_window", s.window).Msg("session settings updated")
}

// Run reads lines from in until exit, EOF or cancellation of ctx. Cancellation prints a
// farewell and returns ErrInterrupted.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErr <- err
		}
	}()

	s.logger.Debug().Int("max_history_items", s.buf.Cap()).Int("prompt_window", s.window).Msg("session started")

	for {
		// a reply interrupted mid-call lands here with ctx already done
		if ctx.Err() != nil {
			return s.interrupted()
		}
		if s.showPrompt {
			fmt.Fprint(s.out, inputPrompt)
		}

		select {
		case <-ctx.Done():
			return s.interrupted()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("read input: %w", err)
				default:
				}
				fmt.Fprintln(s.out, "Exiting.")
				return nil
			}
			if s.HandleLine(ctx, line) == ActionExit {
				return nil
			}
		}
	}
}

func (s *Session) interrupted() error {
	fmt.Fprintln(s.out, "\nInterrupted by user. Exiting.")
	return ErrInterrupted
}

// HandleLine processes one line of user input.
func (s *Session) HandleLine(ctx context.Context, line string) Action {
	s.applyPending()

	input := strings.TrimSpace(line)
	if input == "" {
		return ActionContinue
	}

	switch strings.ToLower(input) {
	case cmdExit:
		fmt.Fprintln(s.out, "Exiting.")
		return ActionExit
	case cmdClear:
		s.buf.Clear()
		s.logger.Debug().Str("command", cmdClear).Msg("conversation cleared")
		fmt.Fprintln(s.out, "Conversation memory cleared.")
		return ActionContinue
	case cmdHistory:
		s.printHistory()
		return ActionContinue
	}

	s.converse(ctx, input)
	return ActionContinue
}

func (s *Session) converse(ctx context.Context, input string) {
	prompt := s.buf.RenderPrompt(input, s.window)

	reply, err := s.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			// the loop reports the interruption
			s.logger.Debug().Err(err).Msg("generation canceled")
			return
		}
		s.logger.Debug().Err(err).Msg("generation failed")
		fmt.Fprintln(s.out, s.styles.error("Error calling model: "+err.Error()))
		return
	}

	fmt.Fprintln(s.out, reply.Text)

	before := s.buf.Evicted()
	s.buf.AppendUser(input)
	s.buf.AppendAssistant(reply.Text)

	event := s.logger.Debug().
		Int("reply_chars", len(reply.Text)).
		Bool("cached", reply.Cached).
		Dur("duration", reply.Duration).
		Int("retained", s.buf.Len())
	if n := s.buf.Evicted() - before; n > 0 {
		event = event.Int("evicted", n)
	}
	event.Msg("turn recorded")
}

// generate calls the generator, converting a panic inside a provider SDK into an error
// so one bad call does not end the session.
func (s *Session) generate(ctx context.Context, prompt string) (reply generation.Reply, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		reply, err = s.gen.Generate(ctx, prompt)
	})
	if r := pc.Recovered(); r != nil {
		s.logger.Error().Str("stack", string(r.Stack)).Msg("generator panicked")
		return generation.Reply{}, &generation.RequestError{Err: r.AsError()}
	}
	return reply, err
}

func (s *Session) printHistory() {
	if s.buf.Empty() {
		fmt.Fprintln(s.out, "(no history)")
		return
	}
	fmt.Fprintln(s.out, s.styles.rule("--- Conversation history (most recent last) ---"))
	for turn := range s.buf.History() {
		fmt.Fprintf(s.out, "%s: %s\n", s.styles.label(turn.Role()), turn.Text())
	}
	fmt.Fprintln(s.out, s.styles.rule("--- end history ---"))
}
