// Command convo is an interactive terminal chat with a hosted language model that
// remembers the most recent turns of the conversation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ZanzyTHEbar/convo/convo/config"
	"github.com/ZanzyTHEbar/convo/convo/generation"
	"github.com/ZanzyTHEbar/convo/convo/session"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := pflag.NewFlagSet("convo", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "convo: %v\n", err)
		return 1
	}

	configPath, _ := flags.GetString("config")
	v, err := config.New(configPath, flags)
	if err != nil {
		fmt.Fprintf(stderr, "convo: %v\n", err)
		return 1
	}
	cfg, err := config.Decode(v)
	if err != nil {
		fmt.Fprintf(stderr, "convo: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := generation.NewFactory(cfg, logger).CreateGenerator(ctx)
	if err != nil {
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			fmt.Fprintf(stderr, "convo: %v\n", cerr)
		} else {
			fmt.Fprintf(stderr, "convo: create generator: %v\n", err)
		}
		return 1
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	sess := session.New(gen, os.Stdout, logger, session.Options{
		MaxHistoryItems:   cfg.Chat.MaxHistoryItems,
		PromptWindow:      cfg.Chat.PromptWindow,
		SystemInstruction: cfg.Chat.SystemInstruction,
		Styled:            term.IsTerminal(int(os.Stdout.Fd())),
		ShowPrompt:        interactive,
	})

	if config.Watch(v, logger, func(c *config.Config) {
		sess.Apply(session.Settings{
			PromptWindow:      c.Chat.PromptWindow,
			SystemInstruction: c.Chat.SystemInstruction,
		})
	}) {
		logger.Debug().Str("file", v.ConfigFileUsed()).Msg("watching config for changes")
	}

	logger.Info().
		Str("session_id", sess.ID()).
		Str("provider", cfg.LLM.Provider).
		Str("model", gen.Model()).
		Msg("session ready")

	err = sess.Run(ctx, os.Stdin)
	if code := exitCode(err); code != 0 {
		logger.Error().Err(err).Msg("session ended")
		return code
	}
	return 0
}

// exitCode maps the session result to a process status. An interrupt is a normal exit.
func exitCode(err error) int {
	if err == nil || errors.Is(err, session.ErrInterrupted) {
		return 0
	}
	return 1
}

// newLogger builds the root logger. Human-readable console output is used when w is a
// terminal or the format says so; JSON otherwise.
func newLogger(cfg config.LogConfig, w *os.File) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.WarnLevel
	}

	var out io.Writer = w
	switch cfg.Format {
	case "console":
		out = zerolog.ConsoleWriter{Out: w}
	case "json":
	default:
		if term.IsTerminal(int(w.Fd())) {
			out = zerolog.ConsoleWriter{Out: w}
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
