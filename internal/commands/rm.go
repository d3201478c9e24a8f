package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/tui"
)

var rmCmd = &cobra.Command{
	Use:     "rm <task>",
	Aliases: []string{"delete"},
	Short:   "Delete a task and its subtasks",
	Args:    cobra.ExactArgs(1),
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		task, err := resolveTask(ctl, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		subtasks := len(ctl.Tree().Subtree(task.ID)) - 1

		if err := ctl.Delete(cmd.Context(), task.ID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Deleted %s: %s\n", tui.ShortID(task.ID), task.Name)
		if subtasks > 0 {
			fmt.Printf("Also deleted %d subtasks\n", subtasks)
		}
	}),
}
