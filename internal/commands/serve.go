package commands

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tock/internal/config"
	"github.com/balkashynov/tock/internal/db"
	"github.com/balkashynov/tock/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backing store",
	Long: `Run the HTTP store the other commands talk to. Tasks are kept in a SQLite database.

Examples:
  tock serve                      # Listen on the configured address (default :8787)
  tock serve --addr :9000         # Override the listen address
  tock serve --db /tmp/tock.db    # Use another database file
  tock serve --db :memory:        # Throwaway in-memory store`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		addr := cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}
		path := cfg.Server.DBPath
		if v, _ := cmd.Flags().GetString("db"); v != "" {
			path = config.ExpandHome(v)
		}

		store, err := db.Open(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer store.Close()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		logger := log.New(os.Stderr, "", log.LstdFlags)
		fmt.Printf("🗄️  Serving %s on %s\n", path, addr)
		if err := server.NewServer(store, logger).Run(cmd.Context(), addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Error: %v\n", err)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().String("db", "", "Database path (overrides server.db_path)")
}
