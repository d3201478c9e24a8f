package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/parser"
	"github.com/balkashynov/tock/internal/timer"
	"github.com/balkashynov/tock/internal/tui"
)

var renameCmd = &cobra.Command{
	Use:   "rename <task> <name>",
	Short: "Rename a task",
	Long: `Rename a task.

Examples:
  tock rename 3f2a "Write release notes"
  tock rename "old name" new name`,
	Args: cobra.MinimumNArgs(2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		name := strings.Join(args[1:], " ")
		if err := ctl.Rename(cmd.Context(), task.ID, name); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✏️  Renamed %s: %s → %s\n", tui.ShortID(task.ID), task.Name, strings.TrimSpace(name))
	}),
}

var mvCmd = &cobra.Command{
	Use:   "mv <task> <category>",
	Short: "Move a task to another category",
	Long: `Move a task to another category path. Subtasks keep their own category.

Examples:
  tock mv 3f2a Work/Dev
  tock mv 3f2a @Life/Errands`,
	Args: cobra.ExactArgs(2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		category := strings.TrimPrefix(args[1], "@")
		if err := ctl.Recategorize(cmd.Context(), task.ID, category); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("📁 Moved %s to %s\n", task.Name, timer.CategoryDisplay(category))
	}),
}

var tagCmd = &cobra.Command{
	Use:   "tag <task> [tags]",
	Short: "Set or clear a task's instance tags",
	Long: `Set a task's instance tags. With no tags the current ones are cleared.

Examples:
  tock tag 3f2a nexus,alpha
  tock tag 3f2a             # Clear`,
	Args: cobra.RangeArgs(1, 2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		var tag string
		if len(args) == 2 {
			var tags []string
			for _, t := range strings.Split(args[1], ",") {
				if t = strings.TrimPrefix(strings.TrimSpace(t), "#"); t != "" {
					tags = append(tags, t)
				}
			}
			tag = strings.Join(tags, ",")
		}
		if err := ctl.SetInstanceTag(cmd.Context(), task.ID, tag); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if tag == "" {
			fmt.Printf("🏷️  Cleared tags of %s\n", task.Name)
			return
		}
		fmt.Printf("🏷️  Tagged %s: %s\n", task.Name, tag)
	}),
}

var nestCmd = &cobra.Command{
	Use:   "nest <task> [parent]",
	Short: "Move a task under another task",
	Long: `Move a task, with its subtasks, under a new parent. With no parent the
task becomes top-level. A task cannot be moved under its own subtree.

Examples:
  tock nest 3f2a 9bc1   # 3f2a becomes the last child of 9bc1
  tock nest 3f2a        # Back to top level`,
	Args: cobra.RangeArgs(1, 2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		parentID, parentName := "", "top level"
		if len(args) == 2 {
			parent, err := resolveTask(ctl, args[1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			parentID, parentName = parent.ID, parent.Name
		}
		if err := ctl.Reparent(cmd.Context(), task.ID, parentID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("🌳 Moved %s under %s\n", task.Name, parentName)
	}),
}

var orderCmd = &cobra.Command{
	Use:   "order <task> <position>",
	Short: "Change a task's position among its siblings",
	Long: `Move a task to a position among its siblings, counting from 1.

Examples:
  tock order 3f2a 1   # First`,
	Args: cobra.ExactArgs(2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		position, err := strconv.Atoi(args[1])
		if err != nil || position < 1 {
			fmt.Printf("Error: invalid position '%s'\n", args[1])
			return
		}
		if err := ctl.MoveTo(task.ID, position-1); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("↕️  Moved %s to position %d\n", task.Name, position)
	}),
}

var setTimeCmd = &cobra.Command{
	Use:   "set-time <task> <duration>",
	Short: "Change the time a task was seeded with",
	Long: `Change a task's initial time. Time tracked since is kept.

Examples:
  tock set-time 3f2a 1h30m
  tock set-time 3f2a 0`,
	Args: cobra.ExactArgs(2),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		seconds, err := parseSeconds(args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := ctl.SetInitialTime(cmd.Context(), task.ID, seconds); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("⏲️  Initial time of %s set to %s\n", task.Name, timer.FormatSeconds(seconds))
	}),
}

// parseSeconds accepts a duration or a bare number of seconds
func parseSeconds(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("time must be >= 0")
		}
		return n, nil
	}
	return parser.ParseDuration(s)
}
