package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/config"
	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/timer"
	"github.com/balkashynov/tock/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [task]",
	Short: "Start tracking time on a task",
	Long: `Start tracking time on a task. Any other running task is paused first.

Examples:
  tock start 3f2a          # By id prefix
  tock start "Write docs"  # By name
  tock start 3f2a --watch  # Then open the live view`,
	Args: cobra.ExactArgs(1),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		// Paused tasks are reported through OnTasksPaused before this returns
		if err := ctl.Start(cmd.Context(), task.ID); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		started, ok := ctl.Get(task.ID)
		if !ok || started.State() != models.StateRunning {
			return
		}
		fmt.Printf("⏱️  Started tracking time for %s: %s\n", tui.ShortID(started.ID), started.Name)
		fmt.Printf("Started at: %s (already %s)\n",
			time.Unix(*started.StartTime, 0).Format("15:04:05"),
			timer.FormatSeconds(started.ElapsedTime))

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if err := runWatch(ctl); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	}),
}

var pauseCmd = &cobra.Command{
	Use:   "pause [task]",
	Short: "Pause a running task",
	Long:  `Pause a task, keeping its time. With no argument the running task is paused.`,
	Args:  cobra.MaximumNArgs(1),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := runningOrArg(ctl, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := ctl.Pause(cmd.Context(), task.ID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		paused, _ := ctl.Get(task.ID)
		fmt.Printf("⏸️  Paused %s: %s\n", tui.ShortID(task.ID), task.Name)
		if paused != nil {
			fmt.Printf("Time so far: %s\n", timer.FormatSeconds(paused.ElapsedTime))
		}
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop [task]",
	Short: "Stop tracking time on a task",
	Long:  `Stop a task, keeping its time. With no argument the running task is stopped.`,
	Args:  cobra.MaximumNArgs(1),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := runningOrArg(ctl, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := ctl.Stop(cmd.Context(), task.ID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		stopped, _ := ctl.Get(task.ID)
		fmt.Printf("⏹️  Stopped %s: %s\n", tui.ShortID(task.ID), task.Name)
		if stopped != nil {
			fmt.Printf("Total time: %s\n", timer.FormatSeconds(stopped.ElapsedTime))
		}
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is running, on any day",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		running, err := newClient(cfg, newLogger()).Running(cmd.Context(), cfg.Client.OwnerID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(running) == 0 {
			fmt.Println("Nothing is running")
			return
		}
		if len(running) > 1 {
			fmt.Printf("⚠️  %d tasks are marked running; starting one will pause the others on its day\n", len(running))
		}
		now := time.Now().Unix()
		for i := range running {
			t := &running[i]
			fmt.Printf("⏱️  %s: %s @%s (%s)\n", tui.ShortID(t.ID), t.Name, timer.CategoryDisplay(t.CategoryPath), t.Date)
			fmt.Printf("Elapsed: %s\n", timer.FormatClock(timer.DisplayTime(t, now)))
		}
	},
}

// runningOrArg resolves the argument, or the single running task without one
func runningOrArg(ctl *controller.Controller, args []string) (*models.TimerTask, error) {
	if len(args) == 1 {
		return resolveTask(ctl, args[0])
	}
	running := ctl.Tree().Running()
	switch len(running) {
	case 0:
		return nil, fmt.Errorf("nothing is running")
	case 1:
		return running[0].Clone(), nil
	default:
		return nil, fmt.Errorf("%d tasks are running, name one", len(running))
	}
}

func init() {
	startCmd.Flags().BoolP("watch", "w", false, "Open the live view after starting")
}
