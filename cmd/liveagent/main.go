package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/liveagent/internal/cliconfig"
	"github.com/bft-labs/liveagent/pkg/liveagent"
	"github.com/bft-labs/liveagent/pkg/log"
	"github.com/bft-labs/liveagent/plugins/filewatch"
)

const longHelp = `Keep a page in sync with a live-reload development server.

liveagent loads the page, holds the server's live channel open and, on every
change notice, probes the page until the server marks it as rebuilt. Soft
mode swaps head and body in place and restores scroll positions; hard mode
re-fetches the whole document.

Highlights:
  - Reconnects forever; a reconnect after an interruption triggers a reload.
  - Coalesces bursts of change notices into at most one extra reload.
  - Optional file watching for servers without a live channel.`

var exampleUsage = strings.TrimSpace(`
  liveagent http://localhost:8080/
  liveagent --url http://localhost:8080/docs/ --mode hard --output ./page.html
  liveagent --config $HOME/.liveagent/config.toml --watch ./site
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.NewConsoleLogger(os.Stderr, zerolog.InfoLevel)

	root := &cobra.Command{
		Use:          "liveagent [url]",
		Short:        "Keep a page in sync with a live-reload development server",
		Long:         longHelp,
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if len(args) == 1 {
				cfg.PageURL = args[0]
				changed["url"] = true
			}

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// LIVEAGENT_* overrides the file, flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = logger.Level(log.ParseLevel(cfg.LogLevel))
			logger.Info().Interface("config", cfg).Msg("configuration")

			return run(cfg, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.liveagent/config.toml)")
	root.Flags().StringVar(&cfg.PageURL, "url", cfg.PageURL, "page to keep in sync (may also be given as the argument)")
	root.Flags().StringVar(&cfg.Mode, "mode", cfg.Mode, "reload mode: soft or hard")
	root.Flags().StringVar(&cfg.ChannelPath, "channel-path", cfg.ChannelPath, "live channel path on the page's host")

	root.Flags().DurationVar(&cfg.ReconnectDelay, "reconnect-delay", cfg.ReconnectDelay, "delay between channel reconnect attempts")
	root.Flags().DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "delay between probes that lack the reload marker")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for page, probe and preload requests")
	root.Flags().IntVar(&cfg.PreloadConcurrency, "preload-concurrency", cfg.PreloadConcurrency, "maximum concurrent resource preloads")

	root.Flags().StringVar(&cfg.Storage, "storage", cfg.Storage, "scroll state storage: memory, file or badger")
	root.Flags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for file and badger storage")

	root.Flags().StringVar(&cfg.WatchDir, "watch", cfg.WatchDir, "also reload when files under this directory change")
	root.Flags().DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "quiet period before a file change triggers a reload")

	root.Flags().StringVar(&cfg.Output, "output", cfg.Output, "write the live document to this file after every reload")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("liveagent")
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, logger zerolog.Logger) error {
	libCfg := liveagent.Config{
		PageURL:            cfg.PageURL,
		Mode:               liveagent.Mode(cfg.Mode),
		ChannelPath:        cfg.ChannelPath,
		ReconnectDelay:     cfg.ReconnectDelay,
		RetryDelay:         cfg.RetryDelay,
		HTTPTimeout:        cfg.HTTPTimeout,
		PreloadConcurrency: cfg.PreloadConcurrency,
		Storage:            cfg.Storage,
		StateDir:           cfg.StateDir,
	}

	output := &snapshotWriter{path: cfg.Output, logger: logger}
	opts := []liveagent.Option{
		liveagent.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		liveagent.WithEventHandler(output),
	}
	if cfg.WatchDir != "" {
		// The snapshot may live inside the watched tree.
		opts = append(opts, filewatch.WithFileWatch(filewatch.Config{
			Dir:      cfg.WatchDir,
			Debounce: cfg.WatchDebounce,
			Ignore:   []string{cfg.Output},
		}))
	}

	agent, err := liveagent.New(libCfg, opts...)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	output.agent = agent

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}
	if err := output.write(); err != nil {
		logger.Error().Err(err).Str("path", cfg.Output).Msg("write snapshot")
	}

	<-ctx.Done()
	logger.Info().Msg("received signal, stopping...")

	if err := agent.Stop(); err != nil {
		return fmt.Errorf("stop agent: %w", err)
	}
	return nil
}
