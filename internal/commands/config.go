package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration",
	Long: `Show the effective configuration: the file, defaults and TOCK_* environment overrides merged.

Examples:
  tock config             # Print the effective configuration
  tock config init        # Write ~/.tock/config.yaml with the defaults`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		out, err := config.Marshal(cfg)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Print(string(out))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgPath
		if path == "" {
			path = config.DefaultPath()
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := config.WriteDefault(path, nil, force); err != nil {
			fmt.Printf("Error: %v\n", err)
			if !force {
				fmt.Println("Use --force to overwrite it.")
			}
			return
		}
		fmt.Printf("📝 Wrote %s\n", path)
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
