package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/api"
	"github.com/balkashynov/tock/internal/config"
	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/guard"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/parser"
	"github.com/balkashynov/tock/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgPath  string
	verbose  bool
	dayScope string
)

// notify prints controller callbacks; the live view silences it while it owns the screen
var notify = func(format string, a ...any) {
	fmt.Printf(format, a...)
}

var rootCmd = &cobra.Command{
	Use:   "tock",
	Short: "A hierarchical timer for the day's tasks",
	Long: `tock tracks time on nested tasks grouped by category.
Only one task runs at a time: starting a task pauses whichever one was running.
Tasks live in a backing store started with 'tock serve'.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tock %s (commit %s, built %s)\n", version, commit, date)
	},
}

// newLogger returns a stderr logger with --verbose and a silent one otherwise
func newLogger() *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// newClient builds the store client from the client section of cfg
func newClient(cfg *config.Config, logger *log.Logger) *api.Client {
	retries := cfg.Client.Retries
	if retries == 0 {
		retries = -1
	}
	return api.NewClient(api.Options{
		BaseURL:    cfg.Client.BaseURL,
		Timeout:    cfg.Client.Timeout,
		MaxRetries: retries,
		Logger:     logger,
	})
}

// sessionDate resolves --date to the YYYY-MM-DD scope key
func sessionDate() (string, error) {
	return parser.ParseDate(dayScope, time.Now())
}

// withController wraps a command function with a loaded controller for the
// configured owner and --date. Pending order writes are flushed afterwards.
func withController(fn func(*cobra.Command, []string, *controller.Controller)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		day, err := sessionDate()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		logger := newLogger()
		client := newClient(cfg, logger)

		ctl, err := controller.New(controller.Options{
			OwnerID: cfg.Client.OwnerID,
			Date:    day,
			Client:  client,
			Logger:  logger,
			OnConflict: func(ce *guard.ConflictError) controller.Resolution {
				notify("⚠️  %s was changed elsewhere, reloading\n", ce.TaskName)
				return controller.Refresh
			},
			OnTasksPaused: printPaused,
			OnError: func(err error) {
				notify("Error: %v\n", err)
			},
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout)
			defer cancel()
			if err := ctl.Flush(ctx); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			ctl.Close()
		}()

		if err := ctl.Load(cmd.Context()); err != nil {
			fmt.Printf("Error: %v\n", err)
			fmt.Printf("Is the store running? Start it with 'tock serve' (%s)\n", cfg.Client.BaseURL)
			return
		}
		fn(cmd, args, ctl)
	}
}

func printPaused(paused []models.PausedTask) {
	for _, p := range paused {
		notify("⏸️  Paused %s (%s)\n", p.Name, tui.ShortID(p.ID))
	}
}

// runWatch opens the live view with controller notifications silenced
func runWatch(ctl *controller.Controller) error {
	day, err := sessionDate()
	if err != nil {
		return err
	}
	prev := notify
	notify = func(string, ...any) {}
	defer func() { notify = prev }()
	return tui.RunWatchTUI(ctl, day)
}

// resolveTask finds a task by id, unique id prefix or unique name
func resolveTask(ctl *controller.Controller, ref string) (*models.TimerTask, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := ctl.Get(ref); ok {
		return t, nil
	}

	var byPrefix, byName []*models.TimerTask
	for _, t := range ctl.Tree().Flat() {
		if strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t)
		}
		if strings.EqualFold(t.Name, ref) {
			byName = append(byName, t)
		}
	}
	for _, matches := range [][]*models.TimerTask{byPrefix, byName} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0].Clone(), nil
		default:
			return nil, fmt.Errorf("'%s' matches %d tasks, use a longer id", ref, len(matches))
		}
	}
	return nil, fmt.Errorf("no task '%s' on this day", ref)
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.tock/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and background writes to stderr")
	rootCmd.PersistentFlags().StringVarP(&dayScope, "date", "d", "today", "Day to work on: today, yesterday, yyyy-mm-dd, dd/mm/yyyy, X days ago")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(datesCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(nestCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(setTimeCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
