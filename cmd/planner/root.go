package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/eventplanner/internal/cache"
	"github.com/ashureev/eventplanner/internal/config"
	"github.com/ashureev/eventplanner/internal/directory"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/prompt"
	"github.com/ashureev/eventplanner/internal/remote"
	"github.com/ashureev/eventplanner/internal/thread"
)

var (
	verbose  bool
	userFlag string
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "Plan events with a generative assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id (defaults to PLANNER_USER_ID)")

	rootCmd.AddCommand(
		GetChatCommand(),
		GetDraftCommand(),
		GetSessionsCommand(),
		GetPromptCommand(),
	)
	return rootCmd
}

// app holds the wired engine for one command invocation.
type app struct {
	cfg    *config.ClientConfig
	ident  identity.Provider
	cache  cache.Cache
	client *remote.Client
	dir    *directory.Directory
	mgr    *thread.Manager

	compiler *prompt.Compiler
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	ident := identity.Static(cfg.UserID)

	c, err := cache.Open(cache.Config{
		Backend:       cfg.CacheBackend,
		Path:          cfg.CachePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, identity.Scope(ident))
	if err != nil {
		return nil, fmt.Errorf("open session cache: %w", err)
	}

	client := remote.New(cfg.Endpoint)

	var compilerOpts []prompt.Option
	if cfg.Currency != "" {
		compilerOpts = append(compilerOpts, prompt.WithCurrency(cfg.Currency))
	}
	compiler := prompt.New(compilerOpts...)

	mgr := thread.New(client, c, ident,
		thread.WithTimeout(cfg.GenerateTimeout),
		thread.WithCompiler(compiler),
	)
	if err := mgr.Restore(ctx); err != nil {
		slog.Warn("Failed to restore session", "error", err)
	}

	return &app{
		cfg:    cfg,
		ident:  ident,
		cache:  c,
		client: client,
		dir:    directory.New(client, directory.WithTTL(cfg.DirectoryTTL)),
		mgr:    mgr,

		compiler: compiler,
	}, nil
}

// userID returns the signed-in user or "".
func (a *app) userID() string {
	id, _ := a.ident.CurrentUserID()
	return id
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		slog.Warn("Failed to close session cache", "error", err)
	}
}
