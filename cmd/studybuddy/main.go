package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/conorfennell/studybuddy/internal/client"
	"github.com/conorfennell/studybuddy/internal/config"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/conorfennell/studybuddy/internal/logger"
	"github.com/conorfennell/studybuddy/internal/storage"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// command is one studybuddy subcommand.
type command struct {
	usage string
	flags func(fs *pflag.FlagSet)
	run   func(ctx context.Context, a *app, fs *pflag.FlagSet) error
}

var commands = map[string]command{
	"serve":      serveCommand,
	"add":        addCommand,
	"import":     importCommand,
	"drafts":     draftsCommand,
	"remove":     removeCommand,
	"sync":       syncCommand,
	"subjects":   subjectsCommand,
	"tests":      testsCommand,
	"cards":      cardsCommand,
	"study":      studyCommand,
	"master":     masterCommand,
	"upload-pdf": uploadPDFCommand,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	fs := pflag.NewFlagSet("studybuddy "+name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, cmd, fs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cmd command, fs *pflag.FlagSet) error {
	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	a := newApp(cfg, log)
	defer a.close()

	return cmd.run(ctx, a, fs)
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Usage: studybuddy <command> [flags]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", name, commands[name].usage)
	}
}

// app holds what the commands share.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	creds client.Credentials
	api   *client.API
	db    *storage.DB
}

func newApp(cfg *config.Config, log *zap.Logger) *app {
	var creds client.Chain
	if cfg.Auth.Token != "" {
		creds = append(creds, client.StaticToken(cfg.Auth.Token))
	}
	if cfg.Auth.TokenFile != "" {
		creds = append(creds, client.TokenFile(cfg.Auth.TokenFile))
	}

	return &app{
		cfg:   cfg,
		log:   log,
		creds: creds,
		api:   client.New(cfg.API.BaseURL, cfg.API.Timeout, creds, log.Named("client")),
	}
}

// drafts opens the draft store. With require set, a journal must be
// configured, since drafts held only in memory would vanish when the
// command exits.
func (a *app) drafts(require bool) (*draft.Store, error) {
	if a.cfg.Drafts.Journal == "" {
		if require {
			return nil, errors.New("this command needs a draft journal: set --journal or STUDYBUDDY_DRAFTS_JOURNAL")
		}
		a.log.Warn("No draft journal configured, unsynced drafts are lost on exit")
		return draft.New(), nil
	}

	db, err := storage.Open(a.cfg.Drafts.Journal)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.log.Info("Draft journal opened", zap.String("path", a.cfg.Drafts.Journal))

	return draft.Open(db)
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close draft journal", zap.Error(err))
		}
	}
}
