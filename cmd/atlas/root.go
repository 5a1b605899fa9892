package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/atlas"
	"github.com/aretw0/atlas/internal/config"
	"github.com/aretw0/atlas/internal/logging"
	"github.com/aretw0/atlas/internal/presentation/tui"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	redisAdapter "github.com/aretw0/atlas/pkg/adapters/redis"
	sqliteAdapter "github.com/aretw0/atlas/pkg/adapters/sqlite"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	exitGeneric    = 1
	exitValidation = 2
)

// settings is filled from the environment, then overridden by flags.
var (
	settings config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas builds and validates branching narrative documents",
	Long: `Atlas turns narrative node definitions into a single validated JSON document,
reports on its shape, and serves it to tools and agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel, _ = flags.GetString("log-level")
		}
		if flags.Changed("out") {
			cfg.Out, _ = flags.GetString("out")
		}
		if flags.Changed("lock-file") {
			cfg.LockFile, _ = flags.GetString("lock-file")
		}
		if flags.Changed("redis-addr") {
			cfg.RedisAddr, _ = flags.GetString("redis-addr")
		}
		if flags.Changed("archive") {
			cfg.Archive, _ = flags.GetString("archive")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		level, _ := logging.ParseLevel(cfg.LogLevel)
		settings = cfg
		logger = logging.New(level)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner(cmd.OutOrStdout())
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("out", "dist/narrative_tree_complete.json", "Assembled document path")
	rootCmd.PersistentFlags().String("lock-file", fileAdapter.DefaultLockName, "Narrative edit lock file")
	rootCmd.PersistentFlags().String("redis-addr", "", "Use a Redis edit lock at this address instead of the lock file")
	rootCmd.PersistentFlags().String("archive", "", "SQLite build archive path (empty disables archiving)")
}

// exitCode maps validation and build failures to exit code 2.
func exitCode(err error) int {
	var (
		buildErr      *domain.BuildError
		validationErr *domain.ValidationError
	)
	if errors.As(err, &buildErr) || errors.As(err, &validationErr) {
		return exitValidation
	}
	return exitGeneric
}

// newEngine builds the facade with the configured logger and archive.
// The returned cleanup closes the archive.
func newEngine() (*atlas.Engine, func(), error) {
	opts := []atlas.Option{atlas.WithLogger(logger)}
	cleanup := func() {}
	if settings.Archive != "" {
		archive, err := sqliteAdapter.Open(settings.Archive)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, atlas.WithArchive(archive))
		cleanup = func() {
			if err := archive.Close(); err != nil {
				logger.Warn("archive close failed", "err", err)
			}
		}
	}
	return atlas.New(opts...), cleanup, nil
}

// newLocker returns the Redis locker when an address is configured, else the
// file locker.
func newLocker() (ports.EditLocker, func()) {
	if settings.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: settings.RedisAddr})
		return redisAdapter.NewLocker(client, settings.RedisPrefix, settings.LockTTL), func() { _ = client.Close() }
	}
	return fileAdapter.NewLocker(settings.LockFile), func() {}
}

// lockInfo describes this process for the edit lock.
func lockInfo(agent, operation string) ports.LockInfo {
	if agent == "" {
		agent = settings.Agent
	}
	if agent == "" {
		agent = "atlas"
	}
	return ports.LockInfo{
		Agent:     agent,
		Operation: operation,
		Timestamp: time.Now().UTC(),
		PID:       os.Getpid(),
	}
}

// documentPath returns args[0] when given, else the configured output.
func documentPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return settings.Out
}
