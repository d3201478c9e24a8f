package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/models"
	"github.com/balkashynov/tock/internal/parser"
	"github.com/balkashynov/tock/internal/timer"
	"github.com/balkashynov/tock/internal/tui"
)

var addCmd = &cobra.Command{
	Use:   "add [task]",
	Short: "Add a new task",
	Long: `Add a task to the day, optionally nested under another task.

Modes:
  Interactive: tock add -i (or just 'tock add' with no arguments)
  Quick: tock add "Task name @Category" (with optional flags)

Quick syntax:
  @Work/Dev   - Category path (required for top-level tasks)
  #tag1,tag2  - Instance tags
  1h20m       - Initial time, as the last word (also 45m, 1:30)

Examples:
  tock add "Write docs @Work/Docs #nexus 1h20m"
  tock add "Review PR @Work/Dev" --start
  tock add "Fix tests" --parent 3f2a   # Subtask, inherits the category`,
	Args: cobra.ArbitraryArgs,
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		interactive, _ := cmd.Flags().GetBool("interactive")
		line := strings.Join(args, " ")

		var req models.CreateTaskRequest
		if interactive || len(args) == 0 {
			r, ok, err := tui.RunAddTaskTUI(line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			if !ok {
				return
			}
			req = r
		} else {
			parsed := parser.ParseQuick(line)
			if len(parsed.Errors) > 0 {
				fmt.Printf("⚠️  Found issues with parsing: %s\n", strings.Join(parsed.Errors, ", "))
				return
			}
			req = models.CreateTaskRequest{
				Name:         parsed.Name,
				CategoryPath: parsed.CategoryPath,
				InstanceTag:  parsed.InstanceTag(),
				InitialTime:  parsed.InitialTime,
			}
		}

		if category, _ := cmd.Flags().GetString("category"); category != "" {
			req.CategoryPath = category
		}
		if ref, _ := cmd.Flags().GetString("parent"); ref != "" {
			parent, err := resolveTask(ctl, ref)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			req.ParentID = models.String(parent.ID)
			if req.CategoryPath == "" {
				req.CategoryPath = parent.CategoryPath
			}
		}
		req.AutoStart, _ = cmd.Flags().GetBool("start")

		task, err := ctl.Create(cmd.Context(), req)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ New task \"%s\" added - ID: %s\n", task.Name, tui.ShortID(task.ID))
		if task.InitialTime > 0 {
			fmt.Printf("Initial time: %s\n", timer.FormatSeconds(task.InitialTime))
		}
		if req.AutoStart {
			fmt.Printf("⏱️  Started tracking time for %s\n", task.Name)
		}
	}),
}

func init() {
	addCmd.Flags().BoolP("interactive", "i", false, "Open the add form")
	addCmd.Flags().StringP("category", "c", "", "Category path, e.g. Work/Dev")
	addCmd.Flags().StringP("parent", "p", "", "Parent task id, id prefix or name")
	addCmd.Flags().BoolP("start", "s", false, "Start the task right away")
}
