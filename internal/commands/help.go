package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for tock",
	Long:  `Display detailed help for all tock commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp()
	},
}

func showCustomHelp() {
	fmt.Print(`
████████╗ ██████╗  ██████╗██╗  ██╗
╚══██╔══╝██╔═══██╗██╔════╝██║ ██╔╝
   ██║   ██║   ██║██║     █████╔╝
   ██║   ██║   ██║██║     ██╔═██╗
   ██║   ╚██████╔╝╚██████╗██║  ██╗
   ╚═╝    ╚═════╝  ╚═════╝╚═╝  ╚═╝

tock - hierarchical task timer

COMMANDS:

  serve                   Run the backing store
    --addr                Listen address (default :8787)
    --db                  Database file, or :memory:

  add <task>              Create a task with quick syntax
    -c, --category        Category path
    -p, --parent          Create as a subtask of another task
    -s, --start           Start it right away
    -i, --interactive     Open the add form

    Quick syntax:
      @Work/Dev     Category path
      #tag1,tag2    Instance tags
      1h20m         Initial time (last word)

    Example:
      tock add "Write docs @Work/Docs #nexus 1h20m" --start

  ls                      Show the day's tasks as a tree
    -g, --groups          Group by category
    --json                JSON output
  days                    List the days that have tasks

  start <task>            Start a task, pausing whichever one runs
    -w, --watch           Open the live view afterwards
  pause [task]            Pause a task (default: the running one)
  stop [task]             Stop a task (default: the running one)
  status                  Show what is running

  rename <task> <name>    Rename a task
  mv <task> <category>    Move a task to another category
  tag <task> [tags]       Set or clear instance tags
  nest <task> [parent]    Move a task under another, or to top level
  order <task> <pos>      Move a task among its siblings (1 = first)
  set-time <task> <dur>   Change a task's initial time
  rm <task>               Delete a task and its subtasks

  watch                   Live view
    Keys:
      ↑/↓ or j/k    Select
      s / enter     Start
      p             Pause
      x             Stop
      d             Delete
      J / K         Move down / up
      r             Reload
      q / esc       Quit

  report                  Weekly timesheet by category
    --week-of             Any day of the week to report

  config                  Print the effective configuration
  config init             Write ~/.tock/config.yaml
    -f, --force           Overwrite an existing file
  version                 Print version information

GLOBAL FLAGS:
  --date, -d              Day to work on (today, yesterday, 2026-10-17, 17/10/2026, 3 days ago)
  --config                Config file
  --verbose, -v           Log requests to stderr

Tasks can be named by id, id prefix or exact name.

`)
}
