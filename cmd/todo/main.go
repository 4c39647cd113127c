package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"todo-app/app"
	"todo-app/config"
	"todo-app/kv"
	"todo-app/logging"
	"todo-app/store"
	"todo-app/tui"
)

const closeTimeout = 5 * time.Second

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	backend    string
	dataDir    string
	logFile    string
	logLevel   string
}

var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "todo",
		Short: "A small to-do list for the terminal",
		Long: `todo keeps a single to-do list on disk.

Run without arguments to open the interactive list. The subcommands change
or print the same list without a UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdoutIsTerminal() {
				return withSession(cmd, flags, func(s *session) error {
					return printList(cmd.OutOrStdout(), s.svc.Visible())
				})
			}
			return runInteractive(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a TOML config file")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: file, sqlite or memory")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory holding the stored list")
	pf.StringVar(&flags.logFile, "log-file", "", "path to the log file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newListCmd(flags),
		newAddCmd(flags),
		newDoneCmd(flags),
		newRemoveCmd(flags),
		newEditCmd(flags),
		newToggleAllCmd(flags),
		newCountsCmd(flags),
		newExportCmd(flags),
	)
	return root
}

// session wires config, logging, storage and the item store for one run.
type session struct {
	cfg      config.Config
	logger   *log.Logger
	closeLog func() error
	storage  kv.Storage
	adapter  *store.Adapter
	svc      *app.Service
}

func openSession(flags *globalFlags) (*session, error) {
	cfg, err := config.Load(flags.configPath, config.Overrides{
		Backend:  flags.backend,
		DataDir:  flags.dataDir,
		LogFile:  flags.logFile,
		LogLevel: flags.logLevel,
	})
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Setup(logging.Options{
		File:   cfg.Log.File,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: "todo",
	})
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	storage, err := kv.Open(cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Debug("storage opened", "backend", cfg.Storage.Backend, "path", cfg.StoragePath(), "config", cfg.File)

	adapter := store.New(storage, store.WithLogger(logger))
	return &session{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		storage:  storage,
		adapter:  adapter,
		svc:      app.NewService(adapter, app.WithLogger(logger)),
	}, nil
}

// close flushes pending writes and releases everything. A failed final
// write is reported so headless commands exit non-zero.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if err := s.adapter.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flushing items: %w", err))
	}
	if err := s.adapter.LastError(); err != nil {
		errs = append(errs, fmt.Errorf("saving items: %w", err))
	}
	if err := s.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	if err := s.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("closing log: %w", err))
	}
	return errors.Join(errs...)
}

// withSession runs fn against a loaded store and always closes it.
func withSession(cmd *cobra.Command, flags *globalFlags, fn func(*session) error) (err error) {
	s, err := openSession(flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := s.svc.Hydrate(s.adapter.Load(cmd.Context())); err != nil {
		return err
	}
	return fn(s)
}

func runInteractive(cmd *cobra.Command, flags *globalFlags) (err error) {
	s, err := openSession(flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	model := tui.NewModel(s.svc, s.adapter, tui.WithLogger(s.logger))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	s.logger.Info("ui closed", "items", len(s.svc.Items()))
	return nil
}
