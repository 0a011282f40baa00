// Package cli implements the tally command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/internal/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUsage marks errors caused by bad input rather than the system.
var errUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// app holds the state shared by one command invocation.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	cfg   *viper.Viper
	log   *slog.Logger
	store *sqlite.Store
}

// NewRootCmd creates the top-level "tally" command with global flags and
// all subcommands registered. Running it through Execute also closes the
// store when a command fails.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tally",
		Short: "A local-first personal finance ledger",
		Long: "tally keeps accounts, categories, transactions, people and the money\n" +
			"moved between them in one embedded database image.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/tally)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "directory holding the database image (default: $XDG_DATA_HOME/tally)")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output as JSON")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAccountCmd(a),
		newCategoryCmd(a),
		newProfileCmd(a),
		newTxCmd(a),
		newMessageCmd(a),
		newTransferCmd(a),
		newConfigCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newQueryCmd(a),
		newPendingCmd(a),
		newSyncCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	a := &app{}
	if err := a.run(newRootCmd(a)); err != nil {
		fmt.Fprintln(os.Stderr, "tally:", err)
		if errors.Is(err, errUsage) {
			return exitUserError
		}
		return exitSysError
	}
	return exitSuccess
}

// setup resolves the config directory, reads config.yaml and installs the
// logger. The store is opened lazily by commands that need it.
func (a *app) setup(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = dir

	a.cfg, err = loadConfig(dir)
	if err != nil {
		return err
	}
	if a.logLevel == "" {
		a.logLevel = a.cfg.GetString(cfgKeyLogLevel)
	}
	a.log, err = newLogger(cmd.ErrOrStderr(), a.logLevel)
	if err != nil {
		return err
	}
	return nil
}

// storeConfig assembles the store parameters from flags and config.yaml.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		DataDir:       dataDir,
		ImageKey:      a.cfg.GetString(cfgKeyImageKey),
		ImageEncoding: a.cfg.GetString(cfgKeyImageEncoding),
		SchemaFile:    a.cfg.GetString(cfgKeySchemaFile),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, usageErrorf("config.yaml: %v", err)
	}
	return cfg.WithDefaults(), nil
}

// openStore opens the store once per invocation.
func (a *app) openStore(ctx context.Context) (*sqlite.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	s, err := sqlite.Open(ctx, cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("open store in %s: %w", cfg.DataDir, err)
	}
	a.store = s
	return s, nil
}

// run executes root and then closes the store. Cobra skips
// PersistentPostRunE when a command returns an error, so the close here
// covers the failing paths.
func (a *app) run(root *cobra.Command) error {
	err := root.Execute()
	return errors.Join(err, a.close())
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// newLogger builds the stderr text logger for level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "", "warn", "warning":
		lvl = slog.LevelWarn
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		return nil, usageErrorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
