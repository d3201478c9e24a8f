package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/config"
	"github.com/balkashynov/tock/internal/controller"
	"github.com/balkashynov/tock/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List the day's tasks",
	Long: `List the day's tasks as a tree with their current display time.

Examples:
  tock ls                    # Today's tasks
  tock ls --date yesterday   # Another day
  tock ls --groups           # Grouped by category
  tock ls --json             # Machine readable`,
	Args: cobra.NoArgs,
	Run: withController(func(cmd *cobra.Command, args []string, ctl *controller.Controller) {
		asJSON, _ := cmd.Flags().GetBool("json")
		groups, _ := cmd.Flags().GetBool("groups")

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			var err error
			if groups {
				err = enc.Encode(ctl.Groups())
			} else {
				err = enc.Encode(ctl.Tasks())
			}
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			return
		}

		tasks := ctl.Tasks()
		if len(tasks) == 0 {
			fmt.Println("No tasks found. Use 'tock add \"Task name @Category\"' to create your first task.")
			return
		}
		if groups {
			fmt.Print(tui.RenderGroups(ctl.Groups(), ctl.Now()))
			return
		}
		fmt.Print(tui.RenderTree(tasks, ctl.Now()))
	}),
}

var datesCmd = &cobra.Command{
	Use:   "days",
	Short: "List the days that have tasks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		dates, err := newClient(cfg, newLogger()).Dates(cmd.Context(), cfg.Client.OwnerID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(dates) == 0 {
			fmt.Println("No tasks recorded yet.")
			return
		}
		for _, d := range dates {
			fmt.Println(d)
		}
	},
}

func init() {
	listCmd.Flags().BoolP("groups", "g", false, "Group tasks by category")
	listCmd.Flags().Bool("json", false, "JSON output")
}
