package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/convo/convo/config"
	"github.com/ZanzyTHEbar/convo/convo/generation"
	ports "github.com/ZanzyTHEbar/convo/convo/generation/ports"
)

type stubGenerator struct {
	prompts []string
	reply   func(prompt string) (generation.Reply, error)
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (generation.Reply, error) {
	g.prompts = append(g.prompts, prompt)
	if g.reply != nil {
		return g.reply(prompt)
	}
	return generation.Reply{Text: "reply " + string(rune('0'+len(g.prompts)))}, nil
}

func (g *stubGenerator) lastPrompt() string {
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func fixedClock() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }

func newTestSession(gen Generator, opts Options) (*Session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	if opts.SystemInstruction == "" {
		opts.SystemInstruction = "Be brief."
	}
	return New(gen, out, zerolog.Nop(), opts), out
}

func TestHandleLine_Commands(t *testing.T) {
	gen := &stubGenerator{}
	s, out := newTestSession(gen, Options{})
	ctx := context.Background()

	assert.Equal(t, ActionContinue, s.HandleLine(ctx, "history"))
	assert.Equal(t, "(no history)\n", out.String())

	out.Reset()
	assert.Equal(t, ActionContinue, s.HandleLine(ctx, "  CLEAR "))
	assert.Equal(t, "Conversation memory cleared.\n", out.String())

	out.Reset()
	assert.Equal(t, ActionExit, s.HandleLine(ctx, "Exit"))
	assert.Equal(t, "Exiting.\n", out.String())

	assert.Empty(t, gen.prompts, "commands never reach the model")
}

func TestHandleLine_BlankInputIgnored(t *testing.T) {
	gen := &stubGenerator{}
	s, out := newTestSession(gen, Options{})

	assert.Equal(t, ActionContinue, s.HandleLine(context.Background(), "   \t"))
	assert.Empty(t, out.String())
	assert.Empty(t, gen.prompts)
	assert.True(t, s.buf.Empty())
}

func TestHandleLine_Conversation(t *testing.T) {
	gen := &stubGenerator{}
	s, out := newTestSession(gen, Options{})
	ctx := context.Background()

	s.HandleLine(ctx, "  hello  ")
	assert.Equal(t, "System: Be brief.\nDate: 2026-10-18\n\nConversation:\n\nUser: hello\nAssistant:", gen.lastPrompt())
	assert.Equal(t, "reply 1\n", out.String())
	require.Equal(t, 2, s.buf.Len())

	s.HandleLine(ctx, "again")
	assert.Contains(t, gen.lastPrompt(), "User: hello\n\nAssistant: reply 1\n\nUser: again\nAssistant:")

	out.Reset()
	s.HandleLine(ctx, "history")
	assert.Equal(t, strings.Join([]string{
		"--- Conversation history (most recent last) ---",
		"User: hello",
		"Assistant: reply 1",
		"User: again",
		"Assistant: reply 2",
		"--- end history ---",
		"",
	}, "\n"), out.String())

	out.Reset()
	s.HandleLine(ctx, "clear")
	s.HandleLine(ctx, "history")
	assert.Equal(t, "Conversation memory cleared.\n(no history)\n", out.String())
}

type fixedProvider struct{ text string }

func (p fixedProvider) Name() string { return "fixed" }

func (p fixedProvider) Complete(context.Context, ports.PromptInput, ports.Options) (ports.Completion, error) {
	return ports.Completion{Text: p.text}, nil
}

func TestHandleLine_DefaultConfigKeepsReplyVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	const text = "The secret: practice daily. Put api_key=YOUR_KEY in .env."
	gen := generation.NewFactory(cfg, zerolog.Nop()).CreateGeneratorWithProvider(fixedProvider{text: text}, "live-key")
	s, out := newTestSession(gen, Options{})

	s.HandleLine(context.Background(), "how do I get better?")
	assert.Equal(t, text+"\n", out.String())

	turns := s.buf.Window(0)
	require.Len(t, turns, 2)
	assert.Equal(t, text, turns[1].Text())
}

func TestHandleLine_ErrorLeavesBufferUntouched(t *testing.T) {
	gen := &stubGenerator{reply: func(string) (generation.Reply, error) {
		return generation.Reply{}, &generation.RequestError{Provider: "stub", Model: "m", Err: errors.New("quota exceeded")}
	}}
	s, out := newTestSession(gen, Options{})

	assert.Equal(t, ActionContinue, s.HandleLine(context.Background(), "hi"))
	assert.Equal(t, "Error calling model: stub (m): quota exceeded\n", out.String())
	assert.True(t, s.buf.Empty())
	assert.Zero(t, s.buf.Evicted())
}

func TestHandleLine_GeneratorPanicRecovered(t *testing.T) {
	gen := &stubGenerator{reply: func(string) (generation.Reply, error) {
		panic("sdk exploded")
	}}
	s, out := newTestSession(gen, Options{})

	assert.NotPanics(t, func() {
		assert.Equal(t, ActionContinue, s.HandleLine(context.Background(), "hi"))
	})
	assert.True(t, strings.HasPrefix(out.String(), "Error calling model: "))
	assert.Contains(t, out.String(), "sdk exploded")
	assert.True(t, s.buf.Empty())
}

func TestHandleLine_CanceledGenerationIsSilent(t *testing.T) {
	gen := &stubGenerator{reply: func(string) (generation.Reply, error) {
		return generation.Reply{}, &generation.RequestError{Err: context.Canceled}
	}}
	s, out := newTestSession(gen, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.HandleLine(ctx, "hi")
	assert.Empty(t, out.String())
	assert.True(t, s.buf.Empty())
}

func TestHandleLine_Eviction(t *testing.T) {
	gen := &stubGenerator{}
	s, _ := newTestSession(gen, Options{MaxHistoryItems: 4})
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		s.HandleLine(ctx, q)
		assert.LessOrEqual(t, s.buf.Len(), 4)
	}

	assert.Equal(t, 4, s.buf.Len())
	assert.Equal(t, 2, s.buf.Evicted())
	assert.Equal(t, "two", s.buf.Window(4)[0].Text())

	s.HandleLine(ctx, "four")
	assert.NotContains(t, gen.lastPrompt(), "User: one")
}

func TestPromptWindow(t *testing.T) {
	gen := &stubGenerator{}
	s, _ := newTestSession(gen, Options{MaxHistoryItems: 12, PromptWindow: 2})
	ctx := context.Background()

	s.HandleLine(ctx, "first")
	s.HandleLine(ctx, "second")
	s.HandleLine(ctx, "third")

	p := gen.lastPrompt()
	assert.NotContains(t, p, "User: first")
	assert.Contains(t, p, "User: second\n\nAssistant: reply 2\n\nUser: third\nAssistant:")
	assert.Equal(t, 6, s.buf.Len())
}

func TestApply(t *testing.T) {
	gen := &stubGenerator{}
	s, _ := newTestSession(gen, Options{})
	ctx := context.Background()

	s.HandleLine(ctx, "first")
	s.HandleLine(ctx, "second")

	s.Apply(Settings{PromptWindow: 1, SystemInstruction: "Answer in French."})
	s.HandleLine(ctx, "third")

	p := gen.lastPrompt()
	assert.True(t, strings.HasPrefix(p, "System: Answer in French.\n"))
	assert.NotContains(t, p, "User: second")
	assert.Contains(t, p, "\n\nAssistant: reply 2\n\nUser: third\nAssistant:")

	s.Apply(Settings{})
	s.HandleLine(ctx, "fourth")
	assert.True(t, strings.HasPrefix(gen.lastPrompt(), "System: Answer in French.\n"), "zero settings keep current values")
}

func TestRun(t *testing.T) {
	t.Run("exit command", func(t *testing.T) {
		gen := &stubGenerator{}
		s, out := newTestSession(gen, Options{})

		err := s.Run(context.Background(), strings.NewReader("hi\nhistory\nexit\nnever\n"))
		require.NoError(t, err)

		assert.Len(t, gen.prompts, 1)
		assert.Contains(t, out.String(), "reply 1\n--- Conversation history (most recent last) ---\n")
		assert.True(t, strings.HasSuffix(out.String(), "--- end history ---\nExiting.\n"))
	})

	t.Run("end of input", func(t *testing.T) {
		gen := &stubGenerator{}
		s, out := newTestSession(gen, Options{})

		require.NoError(t, s.Run(context.Background(), strings.NewReader("hi")))
		assert.Equal(t, "reply 1\nExiting.\n", out.String())
	})

	t.Run("shows prompt", func(t *testing.T) {
		s, out := newTestSession(&stubGenerator{}, Options{ShowPrompt: true})

		require.NoError(t, s.Run(context.Background(), strings.NewReader("exit\n")))
		assert.Equal(t, inputPrompt+"Exiting.\n", out.String())
	})

	t.Run("interrupted", func(t *testing.T) {
		s, out := newTestSession(&stubGenerator{}, Options{})
		pr, pw := io.Pipe()
		defer pw.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Run(ctx, pr)
		assert.ErrorIs(t, err, ErrInterrupted)
		assert.Equal(t, "\nInterrupted by user. Exiting.\n", out.String())
	})

	t.Run("interrupted during reply", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gen := &stubGenerator{reply: func(string) (generation.Reply, error) {
			cancel()
			return generation.Reply{}, &generation.RequestError{Err: context.Canceled}
		}}
		s, out := newTestSession(gen, Options{ShowPrompt: true})

		err := s.Run(ctx, strings.NewReader("hi\nhistory\n"))
		assert.ErrorIs(t, err, ErrInterrupted)
		assert.Equal(t, inputPrompt+"\nInterrupted by user. Exiting.\n", out.String())
		assert.True(t, s.buf.Empty())
	})

	t.Run("read error", func(t *testing.T) {
		s, _ := newTestSession(&stubGenerator{}, Options{})
		pr, pw := io.Pipe()
		pw.CloseWithError(errors.New("tty gone"))

		err := s.Run(context.Background(), pr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tty gone")
	})
}

func TestNew_Defaults(t *testing.T) {
	s := New(&stubGenerator{}, io.Discard, zerolog.Nop(), Options{})

	assert.Equal(t, 12, s.buf.Cap())
	assert.Equal(t, 12, s.window)
	assert.NotEmpty(t, s.buf.SystemInstruction())
	assert.Len(t, s.ID(), 36)
}

func TestStyles(t *testing.T) {
	plain := newStyles(false)
	assert.Equal(t, "Error calling model: x", plain.error("Error calling model: x"))

	styled := newStyles(true)
	assert.Contains(t, styled.error("boom"), "boom")
	assert.Contains(t, styled.rule("--- end history ---"), "--- end history ---")
}
