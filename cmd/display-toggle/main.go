package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/display-toggle/display-toggle/internal/cache"
	"github.com/display-toggle/display-toggle/internal/config"
	"github.com/display-toggle/display-toggle/internal/history"
	"github.com/display-toggle/display-toggle/internal/lock"
	"github.com/display-toggle/display-toggle/internal/logging"
	"github.com/display-toggle/display-toggle/internal/mapping"
	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/display-toggle/display-toggle/internal/notify"
	"github.com/display-toggle/display-toggle/internal/reporter"
	"github.com/display-toggle/display-toggle/internal/toggle"
	"github.com/display-toggle/display-toggle/pkg/backend"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "display-toggle"

const (
	exitOK            = 0
	exitFailure       = 1
	exitInvalidTarget = 2
)

type options struct {
	dryRun       bool
	verbose      int
	noCache      bool
	history      bool
	json         bool
	clearHistory bool
	timeout      time.Duration
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, toggle.ErrInvalidTarget):
		return exitInvalidTarget
	default:
		return exitFailure
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName + " [usb|alt]",
		Short: "Toggle monitors between USB-C and their alternate input",
		Long: `display-toggle switches every monitor with a known alternate input
between USB-C and that input, in one direction for all of them.

Without a target the direction is read from the first such monitor:
if it shows USB-C every monitor goes to its alternate input, otherwise
every monitor goes back to USB-C.

  usb   force every monitor to USB-C
  alt   force every monitor to its alternate input`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(stdout, opts.verbose)

			direction, err := toggle.TargetFromArgs(args)
			if err != nil {
				return err
			}

			cfg := config.New()
			if opts.noCache {
				cfg.Cache.Disabled = true
			}
			if opts.timeout != 0 {
				if err := cfg.SetTimeout(opts.timeout); err != nil {
					return errors.Wrap(err, "invalid --timeout")
				}
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			log.Trace().Msg(cfg.String())

			switch {
			case opts.clearHistory:
				return clearHistory(cfg)
			case opts.history:
				return showHistory(cfg, stdout, opts.json)
			case opts.json:
				return errors.New("--json requires --history")
			}
			return runToggle(cfg, direction, opts.dryRun)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "print the switches without applying them")
	cmd.Flags().CountVarP(&opts.verbose, "verbose", "v", "increase verbosity (-v debug, -vv trace)")
	cmd.Flags().BoolVarP(&opts.noCache, "no-cache", "f", false, "ignore the model cache and query every monitor")
	cmd.Flags().BoolVar(&opts.history, "history", false, "show recent switches and exit")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print --history as JSON")
	cmd.Flags().BoolVar(&opts.clearHistory, "clear-history", false, "delete all recorded history and exit")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "bound on each ddcutil call (default from configuration)")

	return cmd
}

func runToggle(cfg *config.Config, direction toggle.Direction, dryRun bool) error {
	pidLock := lock.New(cfg.Lock.Path)
	if err := pidLock.Acquire(); err != nil {
		return err
	}
	log.Trace().Str("path", pidLock.Path()).Msg("Lock held")
	defer func() {
		if err := pidLock.Release(); err != nil {
			log.Warn().Err(err).Msg("Failed to release lock")
		}
	}()

	table, err := mapping.Load(cfg.Mapping.Path)
	if err != nil {
		return err
	}

	enumerator, err := backend.New(cfg.Backend.Command, cfg.Backend.Timeout)
	if err != nil {
		return err
	}

	var store toggle.ModelStore
	if !cfg.Cache.Disabled {
		cacheStore := cache.NewStore(cfg.Cache.Path)
		log.Debug().Str("path", cacheStore.Path()).Msg("Using model cache")
		store = cacheStore
	} else {
		log.Debug().Msg("Model cache disabled")
	}

	engine := toggle.NewEngine(enumerator, table, store, toggle.Options{
		Override: direction,
		DryRun:   dryRun,
	})
	startedAt := time.Now()
	result, runErr := engine.Run()

	if cfg.History.Enabled {
		if err := recordHistory(cfg.History, startedAt, result, runErr); err != nil {
			log.Warn().Err(err).Msg("Failed to record history")
		}
	}

	if runErr != nil {
		return runErr
	}

	if err := notify.New(cfg.Notify.Enabled).RunFinished(result); err != nil {
		log.Warn().Err(err).Msg("Notification not sent")
	}
	return nil
}

// recordHistory stores the switches of a run and, when it failed, the
// error. Rows older than the retention period are pruned afterwards.
func recordHistory(cfg config.HistoryConfig, at time.Time, result *toggle.Result, runErr error) error {
	if runErr == nil && (result == nil || len(result.Switches) == 0) {
		return nil
	}

	repo, closeDB, err := openHistory(cfg.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	runID := history.NewRunID()
	if err := repo.CreateSwitches(history.EventsFromResult(runID, at, result)); err != nil {
		return err
	}
	if runErr != nil {
		err := repo.CreateErrorLog(&models.ErrorLog{
			RunID:     runID,
			Timestamp: at,
			ErrorMsg:  runErr.Error(),
		})
		if err != nil {
			return err
		}
	}

	if cfg.Retention > 0 {
		pruned, err := repo.DeleteBefore(at.Add(-cfg.Retention))
		if err != nil {
			return err
		}
		log.Debug().Int64("pruned", pruned).Msg("Pruned old history")
	}
	return nil
}

func openHistory(path string) (*history.Repository, func(), error) {
	db, err := history.Connect(path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return history.NewRepository(db), func() { db.Close() }, nil
}

func showHistory(cfg *config.Config, out io.Writer, asJSON bool) error {
	repo, closeDB, err := openHistory(cfg.History.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	r := reporter.New(repo, cfg.History.Limit)
	report, err := r.GenerateReport()
	if err != nil {
		return err
	}

	if asJSON {
		text, err := r.FormatReportJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	}
	fmt.Fprint(out, r.FormatReportText(report))
	return nil
}

func clearHistory(cfg *config.Config) error {
	repo, closeDB, err := openHistory(cfg.History.Path)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(); err != nil {
		return err
	}
	log.Info().Msg("History cleared")
	return nil
}
