package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/controller"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the day's tasks",
	Long: `Open the live view. Timers tick every second; keys start, pause, stop,
delete and reorder the selected task.`,
	Args: cobra.NoArgs,
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		if err := runWatch(ctl); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}
